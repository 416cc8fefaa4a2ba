package voice

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/parloapp/parlo/internal/transcript"
)

// StrategyKind tags the capture mechanism backing one session.
type StrategyKind string

const (
	// StrategyLive streams audio to a continuous recognition engine and reads
	// interim/final hypotheses back without a separate upload step.
	StrategyLive StrategyKind = "live"
	// StrategyUpload records raw audio locally, then submits one encoded clip
	// to the remote transcription gateway.
	StrategyUpload StrategyKind = "record-upload"
)

// SpeechRecognizer is the live recognition adapter consumed by the orchestrator.
type SpeechRecognizer interface {
	// Supported reports the capability probe result, computed once for the
	// adapter's lifetime.
	Supported() bool
	Start(ctx context.Context) error
	Stop() error
	// Transcript returns the latest hypothesis and its confidence.
	Transcript() (string, float64)
	Err() error
	// Done is closed when the engine session has fully ended.
	Done() <-chan struct{}
}

// Recorder owns one acquired capture device and its chunk buffer.
type Recorder interface {
	// Halt stops pulling from the device; the buffered chunks stay intact.
	Halt() error
	// Finish assembles buffered chunks into one encoded clip and releases the
	// device. The release happens on every outcome, exactly once.
	Finish(ctx context.Context) (data []byte, mimeType string, err error)
}

// RecorderOpener acquires a capture device and begins buffering chunks.
// Acquisition failures are reported as permission-denied class errors.
type RecorderOpener func(ctx context.Context) (Recorder, error)

// Transcriber is the remote transcription gateway operation.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64 string) (string, error)
}

// capture is one strategy for turning a halted session into text. The
// orchestrator drives halt and resolve separately so it can flip externally
// observed state between the two.
type capture interface {
	kind() StrategyKind
	halt(ctx context.Context) error
	resolve(ctx context.Context) (string, *Error)
}

// liveCapture resolves a session against the recognition adapter's retained
// transcript once the engine has settled.
type liveCapture struct {
	rec    SpeechRecognizer
	settle time.Duration
}

func (c *liveCapture) kind() StrategyKind { return StrategyLive }

func (c *liveCapture) halt(_ context.Context) error {
	return c.rec.Stop()
}

// resolve waits for a late final-result callback to land, bounded by the
// settle delay, then inspects the adapter. Resolution order: non-empty
// trimmed transcript, adapter error, no-speech.
func (c *liveCapture) resolve(ctx context.Context) (string, *Error) {
	timer := time.NewTimer(c.settle)
	defer timer.Stop()
	select {
	case <-c.rec.Done():
	case <-timer.C:
	case <-ctx.Done():
	}

	text, _ := c.rec.Transcript()
	if cleaned := transcript.Clean(text); cleaned != "" {
		return cleaned, nil
	}
	if err := c.rec.Err(); err != nil {
		return "", classifyEngine(err)
	}
	return "", newError(KindEmptySpeech, "no speech detected")
}

// uploadCapture resolves a session by shipping the recorded clip to the
// transcription gateway.
type uploadCapture struct {
	recorder Recorder
	gateway  Transcriber
}

func (c *uploadCapture) kind() StrategyKind { return StrategyUpload }

func (c *uploadCapture) halt(_ context.Context) error {
	return c.recorder.Halt()
}

func (c *uploadCapture) resolve(ctx context.Context) (string, *Error) {
	data, _, err := c.recorder.Finish(ctx)
	if err != nil {
		return "", newError(KindProcessing, err.Error())
	}
	if len(data) == 0 {
		return "", newError(KindEmptySpeech, "no audio captured")
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	text, err := c.gateway.Transcribe(ctx, encoded)
	if err != nil {
		return "", classifyGateway(err)
	}
	if cleaned := transcript.Clean(text); cleaned != "" {
		return cleaned, nil
	}
	return "", newError(KindEmptySpeech, "no speech detected")
}
