// Package voice coordinates capture strategy selection and normalizes both
// strategies' asynchronous completion into one stop-to-text contract.
package voice

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parloapp/parlo/internal/fsm"
)

// DefaultSettleDelay bounds the wait for a late final-result callback after
// the live engine is asked to stop.
const DefaultSettleDelay = time.Second

// Options carries orchestrator tuning knobs.
type Options struct {
	SettleDelay time.Duration
}

// session is one in-progress voice-input attempt, backed by exactly one
// strategy chosen at start time.
type session struct {
	id      uuid.UUID
	kind    StrategyKind
	capture capture
}

// Orchestrator owns the single capture session and the retained error. All
// strategy selection, state transitions, and error unification happen here;
// the adapters never make session-state decisions of their own.
type Orchestrator struct {
	logger       *slog.Logger
	recognizer   SpeechRecognizer
	openRecorder RecorderOpener
	gateway      Transcriber
	settle       time.Duration

	mu      sync.Mutex
	state   fsm.State
	sess    *session
	lastErr *Error
	epoch   uint64
}

// New constructs an orchestrator around the wired adapters. Any adapter may
// be nil; the corresponding strategy is then unavailable.
func New(logger *slog.Logger, recognizer SpeechRecognizer, openRecorder RecorderOpener, gateway Transcriber, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Orchestrator{
		logger:       logger,
		recognizer:   recognizer,
		openRecorder: openRecorder,
		gateway:      gateway,
		settle:       settle,
		state:        fsm.StateIdle,
	}
}

// State returns the current lifecycle state snapshot.
func (o *Orchestrator) State() fsm.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Recording reports whether a capture session is in progress.
func (o *Orchestrator) Recording() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fsm.Recording(o.state)
}

// Processing reports whether a recorded clip is being transcribed remotely.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == fsm.StateProcessing
}

// Err returns the retained failure, or nil. An accepted Start clears it.
func (o *Orchestrator) Err() *Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Session returns the active session identity, if any.
func (o *Orchestrator) Session() (uuid.UUID, StrategyKind, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess == nil {
		return uuid.UUID{}, "", false
	}
	return o.sess.id, o.sess.kind, true
}

// Start selects a capture strategy and begins a session. A second Start while
// a session is active (including remote processing) is rejected; the current
// session and retained error stay untouched.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if fsm.Active(o.state) {
		return newError(KindSessionActive, "a capture session is already active")
	}

	o.lastErr = nil
	o.epoch++
	if err := o.transitionLocked(fsm.EventStart); err != nil {
		verr := newError(KindProcessing, err.Error())
		o.failLocked(verr)
		return verr
	}

	// The live engine is exclusive: when supported, the device path is never
	// touched, not even as a parallel warm standby.
	if o.recognizer != nil && o.recognizer.Supported() {
		if err := o.recognizer.Start(ctx); err != nil {
			verr := classifyEngine(err)
			o.failLocked(verr)
			return verr
		}
		_ = o.transitionLocked(fsm.EventListen)
		o.sess = &session{
			id:      uuid.New(),
			kind:    StrategyLive,
			capture: &liveCapture{rec: o.recognizer, settle: o.settle},
		}
		o.logger.Info("capture session started", "session", o.sess.id, "strategy", StrategyLive)
		return nil
	}

	if o.openRecorder == nil || o.gateway == nil {
		verr := newError(KindUnsupported, "no capture strategy available")
		o.failLocked(verr)
		return verr
	}

	recorder, err := o.openRecorder(ctx)
	if err != nil {
		verr := &Error{Kind: KindPermissionDenied, Message: err.Error()}
		o.failLocked(verr)
		return verr
	}
	_ = o.transitionLocked(fsm.EventCapture)
	o.sess = &session{
		id:      uuid.New(),
		kind:    StrategyUpload,
		capture: &uploadCapture{recorder: recorder, gateway: o.gateway},
	}
	o.logger.Info("capture session started", "session", o.sess.id, "strategy", StrategyUpload)
	return nil
}

// Stop ends the active session and resolves its transcript. With no active
// session it returns ("", nil) and leaves the retained error alone. A live
// session stops observing as recording immediately; an upload session moves
// through processing until the gateway round trip resolves.
func (o *Orchestrator) Stop(ctx context.Context) (string, error) {
	o.mu.Lock()
	sess := o.sess
	if sess == nil || !fsm.Active(o.state) {
		o.mu.Unlock()
		return "", nil
	}
	o.sess = nil
	epoch := o.epoch

	if err := sess.capture.halt(ctx); err != nil {
		o.logger.Warn("halt capture", "session", sess.id, "error", err.Error())
	}
	_ = o.transitionLocked(fsm.EventStop)
	o.mu.Unlock()

	text, verr := sess.capture.resolve(ctx)

	o.mu.Lock()
	if o.state == fsm.StateProcessing {
		_ = o.transitionLocked(fsm.EventResolve)
	}
	// A newer session may have started while a live resolve was settling; its
	// cleared error must not be overwritten by this one.
	if verr != nil && o.epoch == epoch {
		o.lastErr = verr
	}
	o.mu.Unlock()

	if verr != nil {
		o.logger.Info("capture session failed", "session", sess.id, "strategy", sess.kind, "kind", verr.Kind)
		return "", verr
	}
	o.logger.Info("capture session resolved", "session", sess.id, "strategy", sess.kind, "chars", len(text))
	return text, nil
}

// transitionLocked applies one FSM event while holding the state lock.
func (o *Orchestrator) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(o.state, event)
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

// failLocked retains the failure and settles state back to idle so the caller
// can retry with a fresh Start immediately.
func (o *Orchestrator) failLocked(verr *Error) {
	o.lastErr = verr
	if next, err := fsm.Transition(o.state, fsm.EventFail); err == nil {
		o.state = next
	}
	if next, err := fsm.Transition(o.state, fsm.EventReset); err == nil {
		o.state = next
	}
}
