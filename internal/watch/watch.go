// Package watch runs the change-detection loop: it samples the pasteboard on
// a fixed interval and records anything new in the history.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/fingerprint"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/hub"
)

// DefaultInterval is the time between two samples.
const DefaultInterval = time.Second

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("watch loop already running")

// Sampler reads the pasteboard. *clip.Sampler satisfies it.
type Sampler interface {
	Text(ctx context.Context) *clip.Payload
	Image(ctx context.Context) *clip.Payload
}

// Writer puts entries back on the pasteboard. *clip.Writer satisfies it.
type Writer interface {
	WriteText(ctx context.Context, text string) error
	WriteImage(ctx context.Context, data []byte, path string) error
}

// Loop is the single writer of a history store while it runs.
type Loop struct {
	sampler  Sampler
	store    *history.Store
	writer   Writer
	hub      *hub.Hub
	filter   Filter
	interval time.Duration

	reqs       chan request
	intervalCh chan time.Duration
	running    atomic.Bool
	done       chan struct{}

	mu       sync.Mutex
	lastSeen string
}

type request struct {
	name string
	fn   func(context.Context) error
	done chan error
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the sampling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithWriter sets the pasteboard writer used by Copy.
func WithWriter(w Writer) Option {
	return func(l *Loop) { l.writer = w }
}

// WithHub publishes history changes to h.
func WithHub(h *hub.Hub) Option {
	return func(l *Loop) { l.hub = h }
}

// WithFilter replaces DefaultFilter.
func WithFilter(f Filter) Option {
	return func(l *Loop) { l.filter = f }
}

// New returns a loop over store. LastSeen starts at the newest stored entry
// so a restart does not re-record what is still on the pasteboard.
func New(sampler Sampler, store *history.Store, opts ...Option) *Loop {
	l := &Loop{
		sampler:    sampler,
		store:      store,
		filter:     DefaultFilter(),
		interval:   DefaultInterval,
		reqs:       make(chan request),
		intervalCh: make(chan time.Duration, 1),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	if newest, ok := store.Newest(); ok {
		l.lastSeen = newest.Fingerprint
	}
	return l
}

// LastSeen returns the fingerprint of the last content the loop handled.
func (l *Loop) LastSeen() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeen
}

func (l *Loop) setLastSeen(fp string) {
	l.mu.Lock()
	l.lastSeen = fp
	l.mu.Unlock()
}

// SetInterval changes the sampling interval of a running loop.
func (l *Loop) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-l.intervalCh:
	default:
	}
	select {
	case l.intervalCh <- d:
	default:
	}
}

// Run cleans the history once, then samples every interval until ctx is
// done. Requests made through Copy, Clear and Cleanup while Run is active
// execute on its goroutine. Run may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(l.done)

	l.cleanup()
	slog.Info("watching clipboard", "interval", l.interval, "entries", l.store.Len())

	t := time.NewTicker(l.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("watch loop stopped")
			return nil
		case d := <-l.intervalCh:
			l.interval = d
			t.Reset(d)
			slog.Info("sampling interval changed", "interval", d)
		case req := <-l.reqs:
			req.done <- req.fn(ctx)
		case <-t.C:
			l.Tick(ctx)
		}
	}
}

// do runs fn on the loop goroutine when Run is active, directly otherwise.
func (l *Loop) do(ctx context.Context, name string, fn func(context.Context) error) error {
	if !l.running.Load() {
		return fn(ctx)
	}
	req := request{name: name, fn: fn, done: make(chan error, 1)}
	select {
	case l.reqs <- req:
	case <-l.done:
		return fn(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

// Tick samples the pasteboard once. Text wins over images: an image is only
// looked at when no new text was found. It reports whether a new entry was
// added.
func (l *Loop) Tick(ctx context.Context) bool {
	handled, added := l.captureText(ctx)
	if handled {
		return added
	}
	return l.captureImage(ctx)
}

func (l *Loop) captureText(ctx context.Context) (handled, added bool) {
	defer recoverStep("text", func() { handled, added = false, false })

	p := l.sampler.Text(ctx)
	if p == nil || strings.TrimSpace(p.Text) == "" {
		return false, false
	}
	fp := fingerprint.Text(p.Text)
	if fp == l.LastSeen() || !l.filter.Accept(p.Text) {
		return false, false
	}

	it := history.Item{
		Kind:        history.KindText,
		Content:     fingerprint.NormalizeText(p.Text),
		Fingerprint: fp,
		CapturedAt:  l.store.Now(),
	}
	added = l.store.Insert(it)
	l.setLastSeen(fp)
	if added {
		l.publish(hub.Event{Kind: hub.Added, Item: it, At: it.CapturedAt})
	}
	return true, added
}

func (l *Loop) captureImage(ctx context.Context) (added bool) {
	defer recoverStep("image", func() { added = false })

	p := l.sampler.Image(ctx)
	if p == nil || len(p.Data) < clip.MinImageSize || !clip.IsPNG(p.Data) {
		return false
	}
	fp := fingerprint.Bytes(p.Data)
	if fp == l.LastSeen() {
		return false
	}
	if l.store.Contains(fp) {
		l.setLastSeen(fp)
		return false
	}

	now := l.store.Now()
	path, err := l.store.SaveImage(p.Data, now)
	if err != nil {
		slog.Error("image save failed", "err", err)
		return false
	}
	it := history.Item{Kind: history.KindImage, Content: path, Fingerprint: fp, CapturedAt: now}
	added = l.store.Insert(it)
	if !added {
		l.store.DiscardImage(path)
	}
	l.setLastSeen(fp)
	if added {
		l.publish(hub.Event{Kind: hub.Added, Item: it, At: now})
	}
	return added
}

// Copy puts the entry identified by ref, a fingerprint or a unique prefix of
// one, back on the pasteboard. The entry becomes LastSeen so the next tick
// does not record it again.
func (l *Loop) Copy(ctx context.Context, ref string) (history.Item, error) {
	var it history.Item
	err := l.do(ctx, "copy", func(ctx context.Context) error {
		var err error
		it, err = l.store.Lookup(ref)
		if err != nil {
			return err
		}
		if l.writer == nil {
			return fmt.Errorf("copy %s: no clipboard writer", fingerprint.Short(it.Fingerprint))
		}
		switch it.Kind {
		case history.KindImage:
			data, err := l.store.ReadImage(it)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			err = l.writer.WriteImage(ctx, data, it.Content)
			if err != nil {
				return err
			}
		default:
			if err := l.writer.WriteText(ctx, it.Content); err != nil {
				return err
			}
		}
		l.setLastSeen(it.Fingerprint)
		l.publish(hub.Event{Kind: hub.Copied, Item: it})
		return nil
	})
	return it, err
}

// Clear empties the history and forgets LastSeen, so whatever is on the
// pasteboard now is recorded again on the next tick.
func (l *Loop) Clear(ctx context.Context) (int, error) {
	var removed int
	err := l.do(ctx, "clear", func(context.Context) error {
		removed = l.store.Len()
		l.store.Clear()
		l.setLastSeen("")
		l.publish(hub.Event{Kind: hub.Cleared, Removed: removed})
		return nil
	})
	return removed, err
}

// Cleanup runs the store's cleanup pass on the loop goroutine.
func (l *Loop) Cleanup(ctx context.Context) (int, error) {
	var removed int
	err := l.do(ctx, "cleanup", func(context.Context) error {
		removed = l.cleanup()
		return nil
	})
	return removed, err
}

func (l *Loop) cleanup() int {
	removed := l.store.Cleanup()
	if removed > 0 {
		l.publish(hub.Event{Kind: hub.Cleaned, Removed: removed})
	}
	return removed
}

func (l *Loop) publish(ev hub.Event) {
	if l.hub != nil {
		l.hub.Publish(ev)
	}
}

// recoverStep turns a panic in one capture step into "no content".
func recoverStep(step string, reset func()) {
	if r := recover(); r != nil {
		slog.Error("capture step panicked", "step", step, "panic", fmt.Sprint(r))
		reset()
	}
}
