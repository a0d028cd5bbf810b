// Package scanner adapts QR decoding hardware to the check-in flow. The
// Decoder contract keeps the decoding engine swappable without touching
// orchestration: implementations emit decoded payloads through a callback
// and own their start/stop lifecycle.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// ErrAlreadyStarted is returned when Start is called on a running decoder.
// No two pumps may run concurrently against the same source.
var ErrAlreadyStarted = errors.New("decoder already started")

// Decoder emits decoded QR payloads until stopped.
type Decoder interface {
	// Start begins decoding and invokes onDecode once per recognized code.
	// It returns an error if the source is unavailable or the decoder is
	// already running.
	Start(ctx context.Context, onDecode func(code string)) error
	// Stop halts decoding and releases the source. It is idempotent; once it
	// returns, no further decodes are delivered and the source may be
	// reacquired.
	Stop()
}

// Source acquires the scan byte stream. Start calls it on every (re)start and
// Stop closes what it returned, so a restarted decoder reads a fresh handle
// rather than competing with a stale one.
type Source func() (io.ReadCloser, error)

// FixedSource adapts a plain reader into a Source. Restarting resumes the
// same stream. Stop cannot interrupt a blocked read on a non-closable reader,
// so use this only for sources that do not block indefinitely.
func FixedSource(r io.Reader) Source {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return func() (io.ReadCloser, error) {
		if rc == nil {
			return nil, errors.New("no scan source available")
		}
		return rc, nil
	}
}

// Wedge decodes from a line-oriented byte stream: USB wedge scanners and the
// camera bridge both present one decoded payload per line. Repeated
// presentations of the same physical code within the debounce window are
// emitted once.
type Wedge struct {
	open     Source
	debounce time.Duration
	onError  func(error)

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	src      io.ReadCloser
	done     chan struct{}
	lastCode string
	lastAt   time.Time
}

// WedgeOption configures a Wedge.
type WedgeOption func(*Wedge)

// WithOnError installs a hook for mid-stream read failures. Read failures
// stop the pump but are never fatal to the process.
func WithOnError(fn func(error)) WedgeOption {
	return func(w *Wedge) { w.onError = fn }
}

// NewWedge creates a wedge decoder over the given source.
func NewWedge(open Source, debounce time.Duration, opts ...WedgeOption) *Wedge {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	w := &Wedge{open: open, debounce: debounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start acquires the source and launches the read pump. A restart first waits
// for the previous pump to exit so a stale goroutine can never swallow the
// next scan.
func (w *Wedge) Start(ctx context.Context, onDecode func(code string)) error {
	if w.open == nil {
		return errors.New("no scan source available")
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	prev := w.done
	w.mu.Unlock()
	if prev != nil {
		<-prev
	}

	src, err := w.open()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		_ = src.Close()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.running = true
	w.cancel = cancel
	w.src = src
	w.done = done
	w.mu.Unlock()

	go w.pump(ctx, src, onDecode, done)
	return nil
}

func (w *Wedge) pump(ctx context.Context, src io.Reader, onDecode func(code string), done chan struct{}) {
	defer close(done)
	defer w.Stop()

	sc := bufio.NewScanner(src)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			continue
		}
		if !w.admit(code) {
			continue
		}
		onDecode(code)
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil && w.onError != nil {
		w.onError(err)
	}
}

// admit applies the per-code debounce.
func (w *Wedge) admit(code string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if code == w.lastCode && now.Sub(w.lastAt) < w.debounce {
		return false
	}
	w.lastCode = code
	w.lastAt = now
	return true
}

// Stop halts the pump and closes the source so a read blocked on it returns.
// Safe to call multiple times.
func (w *Wedge) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.src != nil {
		_ = w.src.Close()
		w.src = nil
	}
}

// Scripted replays a fixed sequence of codes on demand. Test use only.
type Scripted struct {
	mu       sync.Mutex
	running  bool
	onDecode func(code string)
}

// NewScripted creates an idle scripted decoder.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Start records the callback; codes are delivered via Emit.
func (s *Scripted) Start(_ context.Context, onDecode func(code string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}
	s.running = true
	s.onDecode = onDecode
	return nil
}

// Stop halts delivery.
func (s *Scripted) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.onDecode = nil
}

// Emit delivers one decoded payload synchronously. Emissions while stopped
// are dropped.
func (s *Scripted) Emit(code string) {
	s.mu.Lock()
	fn := s.onDecode
	s.mu.Unlock()
	if fn != nil {
		fn(code)
	}
}
