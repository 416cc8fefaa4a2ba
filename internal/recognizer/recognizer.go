// Package recognizer adapts a continuous speech engine's callback lifecycle
// into last-value-wins transcript state behind a simple start/stop surface.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupported indicates no recognition engine is available in this
// deployment. Callers are expected to fall back to record-and-upload capture.
var ErrUnsupported = errors.New("speech recognition engine unavailable")

// EngineError is a failure reported by the engine itself, tagged with the
// engine's own error code.
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recognition engine error %s: %s", e.Code, e.Message)
}

// ErrorCode returns the engine-reported code for taxonomy mapping.
func (e *EngineError) ErrorCode() string { return e.Code }

// Result is one recognition hypothesis emitted by the engine.
type Result struct {
	Text       string
	Confidence float64
	Final      bool
}

// Events receives the engine's asynchronous callbacks. All methods are
// invoked from the engine's own goroutine, never concurrently with each other.
type Events interface {
	Started()
	Recognized(Result)
	Failed(code string, message string)
	Ended()
}

// Engine is one continuous-recognition backend with interim results.
type Engine interface {
	// Available reports whether the engine can be used at all. The result
	// must be stable for the engine's lifetime.
	Available() bool
	// Start begins a single-utterance listening session and delivers
	// callbacks to events until the session ends.
	Start(ctx context.Context, events Events) error
	// Stop requests the engine end the session. Completion is observed only
	// through the Ended or Failed callbacks.
	Stop() error
}

// Adapter holds the externally visible recognition state for one engine.
// Interim and final results overwrite the previous hypothesis; accumulation
// across results never happens here.
type Adapter struct {
	engine    Engine
	supported bool

	mu         sync.Mutex
	listening  bool
	transcript string
	confidence float64
	err        error
	done       chan struct{}
	ended      bool
}

// NewAdapter probes the engine once and fixes the capability answer for the
// adapter's lifetime.
func NewAdapter(engine Engine) *Adapter {
	done := make(chan struct{})
	close(done)
	return &Adapter{
		engine:    engine,
		supported: engine != nil && engine.Available(),
		done:      done,
	}
}

// Supported reports the capability probe result.
func (a *Adapter) Supported() bool { return a.supported }

// Listening reports whether the engine currently has an open session. It
// turns true only on the engine's start callback, not synchronously with
// Start.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// Transcript returns the latest hypothesis and its confidence.
func (a *Adapter) Transcript() (string, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transcript, a.confidence
}

// Err returns the engine failure for the current session, if any.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Done returns a channel closed when the engine session has fully ended.
func (a *Adapter) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Start resets session state and begins listening. It fails fast with
// ErrUnsupported when the capability probe came back negative.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.supported {
		return ErrUnsupported
	}

	a.mu.Lock()
	a.listening = false
	a.transcript = ""
	a.confidence = 0
	a.err = nil
	a.done = make(chan struct{})
	a.ended = false
	a.mu.Unlock()

	if err := a.engine.Start(ctx, adapterEvents{a}); err != nil {
		a.mu.Lock()
		a.closeDoneLocked()
		a.mu.Unlock()
		return fmt.Errorf("start recognition engine: %w", err)
	}
	return nil
}

// Stop asks the engine to end the session. The final transcript may still
// arrive after Stop returns; Done signals when no more callbacks will come.
func (a *Adapter) Stop() error {
	if !a.supported {
		return ErrUnsupported
	}
	return a.engine.Stop()
}

func (a *Adapter) closeDoneLocked() {
	if !a.ended {
		a.ended = true
		close(a.done)
	}
}

// adapterEvents funnels engine callbacks into adapter state.
type adapterEvents struct {
	a *Adapter
}

func (e adapterEvents) Started() {
	e.a.mu.Lock()
	defer e.a.mu.Unlock()
	e.a.listening = true
}

func (e adapterEvents) Recognized(r Result) {
	e.a.mu.Lock()
	defer e.a.mu.Unlock()
	e.a.transcript = r.Text
	e.a.confidence = r.Confidence
	if r.Final {
		e.a.listening = false
	}
}

func (e adapterEvents) Failed(code string, message string) {
	e.a.mu.Lock()
	defer e.a.mu.Unlock()
	e.a.err = &EngineError{Code: code, Message: message}
	e.a.listening = false
	e.a.closeDoneLocked()
}

func (e adapterEvents) Ended() {
	e.a.mu.Lock()
	defer e.a.mu.Unlock()
	e.a.listening = false
	e.a.closeDoneLocked()
}
