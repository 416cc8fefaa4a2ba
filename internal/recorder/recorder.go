// Package recorder buffers audio from an acquired capture device into an
// ordered chunk sequence and packages it as one encoded clip for upload.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushInterval is the fixed period at which buffered audio segments
// are moved into the chunk buffer.
const DefaultFlushInterval = time.Second

// Constraints are the capture parameters requested from the device. The
// processing intents are requested best-effort; devices that cannot honor
// them still capture.
type Constraints struct {
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultConstraints returns the canonical mono 16kHz capture request.
func DefaultConstraints() Constraints {
	return Constraints{
		SampleRate:       16000,
		Channels:         1,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// Source is one acquired capture device stream. Close stops the device,
// flushes any residual audio into Chunks, and closes Chunks.
type Source interface {
	Chunks() <-chan []byte
	SampleRate() int
	Channels() int
	Close() error
}

// Recorder owns one Source for exactly one capture session. Chunks accumulate
// until Finish consumes them once; the source is released on every Finish
// outcome, exactly once.
type Recorder struct {
	source  Source
	encoder Encoder
	flush   time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	pending  []byte
	chunks   [][]byte
	halted   bool
	consumed bool

	stop     chan struct{}
	loopDone chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

// Open wraps an acquired source and begins buffering immediately.
func Open(ctx context.Context, source Source, encoder Encoder, flushInterval time.Duration, logger *slog.Logger) (*Recorder, error) {
	if source == nil {
		return nil, errors.New("recorder needs a capture source")
	}
	if encoder == nil {
		encoder = WAVEncoder{}
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Recorder{
		source:   source,
		encoder:  encoder,
		flush:    flushInterval,
		logger:   logger,
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go r.loop(ctx)
	return r, nil
}

// loop accumulates source audio and emits one chunk per flush tick.
func (r *Recorder) loop(ctx context.Context) {
	defer close(r.loopDone)

	ticker := time.NewTicker(r.flush)
	defer ticker.Stop()

	for {
		select {
		case buf, ok := <-r.source.Chunks():
			if !ok {
				r.flushPending()
				return
			}
			r.append(buf)
		case <-ticker.C:
			r.flushPending()
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Recorder) append(buf []byte) {
	if len(buf) == 0 {
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, buf...)
	r.mu.Unlock()
}

// flushPending moves accumulated audio into the chunk buffer as one segment.
func (r *Recorder) flushPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return
	}
	chunk := make([]byte, len(r.pending))
	copy(chunk, r.pending)
	r.chunks = append(r.chunks, chunk)
	r.pending = r.pending[:0]
}

// Halt stops pulling from the device. Buffered chunks stay intact for Finish.
func (r *Recorder) Halt() error {
	r.mu.Lock()
	if r.halted {
		r.mu.Unlock()
		return nil
	}
	r.halted = true
	r.mu.Unlock()
	close(r.stop)
	return nil
}

// Finish assembles all buffered chunks into one encoded clip and discards the
// buffer. The device is released before this returns, success or not.
func (r *Recorder) Finish(ctx context.Context) ([]byte, string, error) {
	_ = r.Halt()

	select {
	case <-r.loopDone:
	case <-ctx.Done():
	}

	// Closing the source flushes its residual audio and closes Chunks, so the
	// drain below terminates. Release must not wait for a clean encode.
	r.release()
	r.drain(ctx)
	r.flushPending()

	r.mu.Lock()
	if r.consumed {
		r.mu.Unlock()
		return nil, r.encoder.MIMEType(), nil
	}
	r.consumed = true
	total := 0
	for _, chunk := range r.chunks {
		total += len(chunk)
	}
	pcm := make([]byte, 0, total)
	for _, chunk := range r.chunks {
		pcm = append(pcm, chunk...)
	}
	r.chunks = nil
	r.pending = nil
	r.mu.Unlock()

	if len(pcm) == 0 {
		return nil, r.encoder.MIMEType(), nil
	}

	encoded, err := r.encoder.Encode(pcm, r.source.SampleRate(), r.source.Channels())
	if err != nil {
		return nil, "", fmt.Errorf("encode clip: %w", err)
	}
	return encoded, r.encoder.MIMEType(), nil
}

// drain collects whatever the source flushed while stopping.
func (r *Recorder) drain(ctx context.Context) {
	for {
		select {
		case buf, ok := <-r.source.Chunks():
			if !ok {
				return
			}
			r.append(buf)
		case <-ctx.Done():
			return
		}
	}
}

// release closes the source exactly once.
func (r *Recorder) release() {
	r.releaseOnce.Do(func() {
		r.releaseErr = r.source.Close()
		if r.releaseErr != nil {
			r.logger.Warn("release capture source", "error", r.releaseErr.Error())
		}
	})
}
