package clip

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/image/tiff"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

func has(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

type commandStrategy struct {
	kind   Kind
	format Format
	name   string
	args   []string
}

// TextCommand reads text from the stdout of an external paste utility.
func TextCommand(name string, args ...string) Strategy {
	return &commandStrategy{kind: KindText, name: name, args: args}
}

// ImageCommand reads image bytes of the given format from the stdout of an
// external paste utility. TIFF output is transcoded to PNG.
func ImageCommand(format Format, name string, args ...string) Strategy {
	return &commandStrategy{kind: KindImage, format: format, name: name, args: args}
}

func (c *commandStrategy) Name() string {
	if c.kind == KindImage {
		return c.name + "-" + string(c.format)
	}
	return c.name + "-text"
}

func (c *commandStrategy) Extract(ctx context.Context) (*Payload, error) {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.WaitDelay = 100 * time.Millisecond
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s: %w", c.name, strings.Join(c.args, " "), err)
	}

	if c.kind == KindText {
		if len(out) == 0 {
			return nil, nil
		}
		return &Payload{Kind: KindText, Text: string(out)}, nil
	}

	if len(out) < MinImageSize {
		return nil, nil
	}
	switch c.format {
	case FormatTIFF:
		out, err = TIFFToPNG(out)
		if err != nil {
			return nil, err
		}
	default:
		if !IsPNG(out) {
			return nil, nil
		}
	}
	return &Payload{Kind: KindImage, Data: out, Format: FormatPNG}, nil
}

// TIFFToPNG transcodes a TIFF image to PNG.
func TIFFToPNG(b []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("tiff decode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
