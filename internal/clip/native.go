package clip

import (
	"context"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// NativeAvailable reports whether the native clipboard accessor initialised.
// clipboard.Init runs on first use rather than in init() so that CLI
// sub-commands that never touch the pasteboard don't log spurious warnings on
// headless systems.
func NativeAvailable() bool {
	initOnce.Do(func() {
		initErr = clipboard.Init()
		if initErr != nil {
			slog.Warn("native clipboard unavailable, using command fallbacks", "err", initErr)
		}
	})
	return initErr == nil
}

type nativeStrategy struct {
	kind Kind
}

// NativeText reads text through golang.design/x/clipboard.
func NativeText() Strategy { return nativeStrategy{kind: KindText} }

// NativeImage reads PNG image data through golang.design/x/clipboard.
func NativeImage() Strategy { return nativeStrategy{kind: KindImage} }

func (n nativeStrategy) Name() string { return "native-" + string(n.kind) }

func (n nativeStrategy) Extract(ctx context.Context) (*Payload, error) {
	if !NativeAvailable() {
		return nil, nil
	}
	fmtType := clipboard.FmtText
	if n.kind == KindImage {
		fmtType = clipboard.FmtImage
	}
	data, err := runBlocking(ctx, func() ([]byte, error) {
		return clipboard.Read(fmtType), nil
	})
	if err != nil || len(data) == 0 {
		return nil, err
	}
	if n.kind == KindText {
		return &Payload{Kind: KindText, Text: string(data)}, nil
	}
	return &Payload{Kind: KindImage, Data: data, Format: FormatPNG}, nil
}

// writeNative reports whether the native accessor accepted the write.
// clipboard.Write returns a nil channel when the write fails.
func writeNative(ctx context.Context, kind Kind, data []byte) bool {
	if !NativeAvailable() {
		return false
	}
	fmtType := clipboard.FmtText
	if kind == KindImage {
		fmtType = clipboard.FmtImage
	}
	ok, err := runBlocking(ctx, func() (bool, error) {
		return clipboard.Write(fmtType, data) != nil, nil
	})
	return err == nil && ok
}
