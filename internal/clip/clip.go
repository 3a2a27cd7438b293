// Package clip reads and writes the system pasteboard.
//
// Reads go through a Sampler: two ordered chains of Strategy values, one for
// text and one for images, tried in order until one yields a usable payload.
// Platform files build the default chains:
//
//	clip_darwin.go: native accessor, then pbpaste PNG, then pbpaste TIFF
//	clip_linux.go:  native accessor, then wl-paste / xclip PNG, then TIFF
//	clip_other.go:  native accessor only
//
// The native accessor is golang.design/x/clipboard. When it cannot be
// initialised (no display server, no cgo) the native strategies report no
// payload and only the command strategies remain useful.
package clip

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"
)

// Kind distinguishes text payloads from image payloads.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Format is the encoding of an image payload.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

const (
	// MinImageSize screens out empty and placeholder image entries.
	MinImageSize = 100

	// StrategyTimeout bounds a single extraction attempt.
	StrategyTimeout = 500 * time.Millisecond
)

// Payload is one piece of pasteboard content. Text is set for KindText;
// Data and Format for KindImage. Image data is always PNG by the time it
// leaves the Sampler.
type Payload struct {
	Kind   Kind
	Text   string
	Data   []byte
	Format Format
}

// Strategy is one way of pulling content off the pasteboard.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Extract returns the current content, or nil, nil if this strategy
	// finds nothing usable. It must honour ctx.
	Extract(ctx context.Context) (*Payload, error)
}

// Sampler runs the text and image strategy chains.
type Sampler struct {
	text    []Strategy
	image   []Strategy
	timeout time.Duration
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithTimeout overrides StrategyTimeout.
func WithTimeout(d time.Duration) SamplerOption {
	return func(s *Sampler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSampler returns a Sampler over the given chains. Either may be empty.
func NewSampler(text, image []Strategy, opts ...SamplerOption) *Sampler {
	s := &Sampler{text: text, image: image, timeout: StrategyTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Text returns the first non-blank text payload in the text chain, or nil.
func (s *Sampler) Text(ctx context.Context) *Payload {
	return s.first(ctx, s.text)
}

// Image returns the first image payload of at least MinImageSize bytes in the
// image chain, or nil.
func (s *Sampler) Image(ctx context.Context) *Payload {
	return s.first(ctx, s.image)
}

// Sample tries text first, then images.
func (s *Sampler) Sample(ctx context.Context) *Payload {
	if p := s.Text(ctx); p != nil {
		return p
	}
	return s.Image(ctx)
}

// Strategies returns the names of the configured strategies, text chain first.
func (s *Sampler) Strategies() []string {
	names := make([]string, 0, len(s.text)+len(s.image))
	for _, st := range s.text {
		names = append(names, st.Name())
	}
	for _, st := range s.image {
		names = append(names, st.Name())
	}
	return names
}

func (s *Sampler) first(ctx context.Context, chain []Strategy) *Payload {
	for _, st := range chain {
		if ctx.Err() != nil {
			return nil
		}
		if p := s.try(ctx, st); usable(p) {
			return p
		}
	}
	return nil
}

// try runs one strategy under the per-attempt timeout. Errors and panics are
// logged and reported as no payload.
func (s *Sampler) try(ctx context.Context, st Strategy) (p *Payload) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("clipboard strategy panicked", "strategy", st.Name(), "panic", fmt.Sprint(r))
			p = nil
		}
	}()

	p, err := st.Extract(ctx)
	if err != nil {
		slog.Debug("clipboard strategy failed", "strategy", st.Name(), "err", err)
		return nil
	}
	return p
}

func usable(p *Payload) bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case KindText:
		return strings.TrimSpace(p.Text) != ""
	case KindImage:
		return len(p.Data) >= MinImageSize && IsPNG(p.Data)
	default:
		return false
	}
}

// IsPNG reports whether b starts with a decodable PNG header. Paste
// utilities fall back to printing plain text when no image is present.
func IsPNG(b []byte) bool {
	_, err := png.DecodeConfig(bytes.NewReader(b))
	return err == nil
}

// runBlocking runs fn on its own goroutine and gives up when ctx is done.
// An abandoned fn keeps running until it returns on its own.
func runBlocking[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
