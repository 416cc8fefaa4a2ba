package recognizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptEngine lets tests drive the engine callback surface by hand.
type scriptEngine struct {
	available bool
	startErr  error
	events    Events
	stopCalls int
}

func (e *scriptEngine) Available() bool { return e.available }

func (e *scriptEngine) Start(_ context.Context, events Events) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.events = events
	return nil
}

func (e *scriptEngine) Stop() error {
	e.stopCalls++
	return nil
}

func TestAdapterUnsupported(t *testing.T) {
	adapter := NewAdapter(nil)
	require.False(t, adapter.Supported())
	require.ErrorIs(t, adapter.Start(context.Background()), ErrUnsupported)
	require.ErrorIs(t, adapter.Stop(), ErrUnsupported)

	adapter = NewAdapter(&scriptEngine{available: false})
	require.False(t, adapter.Supported())
}

func TestAdapterListeningFollowsEngineCallbacks(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)
	require.True(t, adapter.Supported())

	require.NoError(t, adapter.Start(context.Background()))
	require.False(t, adapter.Listening(), "listening must wait for the engine start callback")

	engine.events.Started()
	require.True(t, adapter.Listening())

	engine.events.Recognized(Result{Text: "hel", Confidence: 0.2})
	require.True(t, adapter.Listening())

	engine.events.Recognized(Result{Text: "hello world", Confidence: 0.9, Final: true})
	require.False(t, adapter.Listening(), "a final result clears listening")

	text, confidence := adapter.Transcript()
	require.Equal(t, "hello world", text)
	require.InDelta(t, 0.9, confidence, 0.001)
}

func TestAdapterLastValueWins(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)
	require.NoError(t, adapter.Start(context.Background()))
	engine.events.Started()

	hypotheses := []Result{
		{Text: "one", Confidence: 0.1},
		{Text: "one two", Confidence: 0.4},
		{Text: "one two three", Confidence: 0.7},
	}
	for _, r := range hypotheses {
		engine.events.Recognized(r)
	}

	text, confidence := adapter.Transcript()
	require.Equal(t, "one two three", text)
	require.InDelta(t, 0.7, confidence, 0.001)
}

func TestAdapterEngineFailure(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)
	require.NoError(t, adapter.Start(context.Background()))
	engine.events.Started()

	engine.events.Failed("not-allowed", "microphone blocked")
	require.False(t, adapter.Listening())

	var engineErr *EngineError
	require.ErrorAs(t, adapter.Err(), &engineErr)
	require.Equal(t, "not-allowed", engineErr.ErrorCode())

	select {
	case <-adapter.Done():
	default:
		t.Fatal("done must be closed after an engine failure")
	}
}

func TestAdapterEndedClosesDone(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)
	require.NoError(t, adapter.Start(context.Background()))
	engine.events.Started()

	done := adapter.Done()
	select {
	case <-done:
		t.Fatal("done must stay open while the session is live")
	default:
	}

	engine.events.Ended()
	select {
	case <-done:
	default:
		t.Fatal("done must close on engine end")
	}
	require.False(t, adapter.Listening())
}

func TestAdapterStartResetsSessionState(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)

	require.NoError(t, adapter.Start(context.Background()))
	engine.events.Started()
	engine.events.Recognized(Result{Text: "stale", Confidence: 0.8, Final: true})
	engine.events.Failed("aborted", "user cancelled")

	require.NoError(t, adapter.Start(context.Background()))
	text, confidence := adapter.Transcript()
	require.Empty(t, text)
	require.Zero(t, confidence)
	require.NoError(t, adapter.Err())
	require.False(t, adapter.Listening())

	select {
	case <-adapter.Done():
		t.Fatal("restart must arm a fresh done channel")
	default:
	}
}

func TestAdapterStartEngineError(t *testing.T) {
	engine := &scriptEngine{available: true, startErr: errors.New("dial refused")}
	adapter := NewAdapter(engine)

	err := adapter.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "start recognition engine")

	select {
	case <-adapter.Done():
	default:
		t.Fatal("done must be closed when the session never opened")
	}
}

func TestAdapterStopDelegatesToEngine(t *testing.T) {
	engine := &scriptEngine{available: true}
	adapter := NewAdapter(engine)
	require.NoError(t, adapter.Start(context.Background()))
	require.NoError(t, adapter.Stop())
	require.Equal(t, 1, engine.stopCalls)
}
