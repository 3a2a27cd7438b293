package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	atotto "github.com/atotto/clipboard"
)

// ErrWriteFailed is returned when every write method for a payload failed.
var ErrWriteFailed = errors.New("clipboard write failed")

// writeTimeout bounds each write attempt. Writes are user-initiated, so they
// get more room than a polling read.
const writeTimeout = 2 * time.Second

// copyCommand is an external utility that takes an image on stdin, or by
// path when stdin is false.
type copyCommand struct {
	name  string
	args  []string
	stdin bool
}

// Writer puts text and images back on the pasteboard.
type Writer struct {
	native     func(ctx context.Context, kind Kind, data []byte) bool
	shellText  func(text string) error
	imageCmds  func(path string) []copyCommand
	runCommand func(ctx context.Context, c copyCommand, data []byte) error
}

// NewWriter returns a Writer using the native accessor first and the
// platform's copy utilities as fallback.
func NewWriter() *Writer {
	return &Writer{
		native:     writeNative,
		shellText:  shellWriteText,
		imageCmds:  imageCopyCommands,
		runCommand: runCopyCommand,
	}
}

// WriteText copies text to the pasteboard. The shell fallback pipes the text
// into pbcopy, xclip, xsel or wl-copy via github.com/atotto/clipboard.
func (w *Writer) WriteText(ctx context.Context, text string) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if w.native(wctx, KindText, []byte(text)) {
		return nil
	}

	wctx, cancel = context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := runBlocking(wctx, func() (struct{}, error) {
		return struct{}{}, w.shellText(text)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// WriteImage copies a PNG image to the pasteboard. path is the file holding
// the same bytes; utilities that take a path instead of stdin use it.
func (w *Writer) WriteImage(ctx context.Context, data []byte, path string) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if w.native(wctx, KindImage, data) {
		return nil
	}

	var errs []error
	for _, c := range w.imageCmds(path) {
		cctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := w.runCommand(cctx, c, data)
		cancel()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no image copy utility available", ErrWriteFailed)
	}
	return fmt.Errorf("%w: %w", ErrWriteFailed, errors.Join(errs...))
}

func shellWriteText(text string) error {
	if atotto.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return atotto.WriteAll(text)
}

func runCopyCommand(ctx context.Context, c copyCommand, data []byte) error {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.WaitDelay = 100 * time.Millisecond
	if c.stdin {
		cmd.Stdin = bytes.NewReader(data)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.name, err, bytes.TrimSpace(out))
	}
	return nil
}
