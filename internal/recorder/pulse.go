package recorder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// SourceInfo describes one Pulse input source surfaced to diagnostics.
type SourceInfo struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// ListSources returns available Pulse input sources with default/availability
// metadata.
func ListSources(_ context.Context, appName string) ([]SourceInfo, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(appName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	sources := make([]SourceInfo, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		sources = append(sources, SourceInfo{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return sources, nil
}

// PulseSource implements Source on a PulseAudio record stream opened with the
// requested constraints. The echo-cancel / noise-suppress / auto-gain intents
// ride on the Pulse server's source configuration; they are requested, not
// enforced per stream.
type PulseSource struct {
	constraints Constraints

	client *pulse.Client
	stream *pulse.RecordStream

	chunks chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// OpenPulse acquires a capture source and starts recording. An empty
// sourceID selects the server default source.
func OpenPulse(ctx context.Context, constraints Constraints, appName string, sourceID string) (*PulseSource, error) {
	if constraints.SampleRate <= 0 {
		constraints = DefaultConstraints()
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName(appName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	var source *pulse.Source
	if sourceID != "" {
		source, err = client.SourceByID(sourceID)
	} else {
		source, err = client.DefaultSource()
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve capture source: %w", err)
	}

	pulseSource := &PulseSource{
		constraints: constraints,
		client:      client,
		chunks:      make(chan []byte, 128),
		stopCh:      make(chan struct{}),
	}

	options := []pulse.RecordOption{
		pulse.RecordSource(source),
		pulse.RecordSampleRate(constraints.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(pulseSource.fragmentBytes())),
		pulse.RecordMediaName(appName + " voice input"),
	}
	if constraints.Channels <= 1 {
		options = append(options, pulse.RecordMono)
	} else {
		options = append(options, pulse.RecordStereo)
	}

	writer := pulse.NewWriter(writerFunc(pulseSource.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(writer, options...)
	if err != nil {
		_ = pulseSource.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	pulseSource.stream = stream
	stream.Start()

	go pulseSource.watchCancel(ctx)

	return pulseSource, nil
}

// watchCancel closes the source when ctx ends while capture is still
// running. It must not outlive the source itself: the ctx may be a
// request-scoped or background context that never cancels, so closing
// the source by any path releases the watcher too.
func (s *PulseSource) watchCancel(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.Close()
	case <-s.stopCh:
	}
}

// fragmentBytes sizes one 20ms PCM16 fragment at the constrained rate.
func (s *PulseSource) fragmentBytes() int {
	channels := s.constraints.Channels
	if channels <= 0 {
		channels = 1
	}
	return s.constraints.SampleRate * channels * 2 / 50
}

// Chunks returns the PCM stream as fragment-sized byte slices.
func (s *PulseSource) Chunks() <-chan []byte { return s.chunks }

// SampleRate reports the constrained capture rate.
func (s *PulseSource) SampleRate() int { return s.constraints.SampleRate }

// Channels reports the constrained channel count.
func (s *PulseSource) Channels() int {
	if s.constraints.Channels <= 0 {
		return 1
	}
	return s.constraints.Channels
}

// BytesCaptured reports total bytes accepted from Pulse.
func (s *PulseSource) BytesCaptured() int64 {
	return s.bytes.Load()
}

// Close halts the stream, flushes residual PCM, and closes Chunks exactly once.
func (s *PulseSource) Close() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	if s.client != nil {
		s.client.Close()
	}

	s.inflight.Wait()

	s.mu.Lock()
	pending := append([]byte(nil), s.pending...)
	s.pending = nil
	s.mu.Unlock()

	if len(pending) > 0 {
		select {
		case s.chunks <- pending:
		default:
		}
	}

	close(s.chunks)
	return nil
}

// onPCM receives raw Pulse frames and emits fragment-sized slices to Chunks.
func (s *PulseSource) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-s.stopCh:
		return 0, io.EOF
	default:
	}

	fragment := s.fragmentBytes()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as s.stopped to avoid Add/Wait races.
	s.inflight.Add(1)

	s.pending = append(s.pending, buffer...)
	chunks := make([][]byte, 0, len(s.pending)/fragment)
	for len(s.pending) >= fragment {
		chunk := make([]byte, fragment)
		copy(chunk, s.pending[:fragment])
		s.pending = s.pending[fragment:]
		chunks = append(chunks, chunk)
	}
	s.mu.Unlock()
	defer s.inflight.Done()

	s.bytes.Add(int64(len(buffer)))

	for _, chunk := range chunks {
		select {
		case <-s.stopCh:
			return 0, io.EOF
		case s.chunks <- chunk:
		}
	}

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
