package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// Config fixes the engine session parameters. They are deliberately not
// tunable per session: one language, interim results on, one alternative,
// single-utterance mode.
type Config struct {
	Language        string
	InterimResults  bool
	MaxAlternatives int
	SingleUtterance bool
}

// DefaultConfig returns the canonical engine session parameters.
func DefaultConfig() Config {
	return Config{
		Language:        "en-US",
		InterimResults:  true,
		MaxAlternatives: 1,
		SingleUtterance: true,
	}
}

// StreamEngine reaches a live recognition service over a WebSocket event
// stream. The service owns its own audio ingest (the composer streams audio
// to it directly); this client controls the session lifecycle and consumes
// hypotheses.
type StreamEngine struct {
	endpoint string
	apiKey   string
	cfg      Config
	logger   *slog.Logger
	dialer   *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewStreamEngine builds an engine client for one endpoint. An empty endpoint
// means the engine is unavailable and the capability probe answers false.
func NewStreamEngine(endpoint string, apiKey string, cfg Config, logger *slog.Logger) *StreamEngine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StreamEngine{
		endpoint: endpoint,
		apiKey:   apiKey,
		cfg:      cfg,
		logger:   logger,
		dialer:   websocket.DefaultDialer,
	}
}

// Available reports whether an engine endpoint is configured.
func (e *StreamEngine) Available() bool {
	return e.endpoint != ""
}

// streamMessage is the engine's wire envelope. Results carry hypotheses,
// Error carries a coded failure, Metadata closes the session.
type streamMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type controlMessage struct {
	Type string `json:"type"`
}

// Start dials the engine and begins delivering callbacks from a read loop.
func (e *StreamEngine) Start(ctx context.Context, events Events) error {
	if !e.Available() {
		return ErrUnsupported
	}

	e.mu.Lock()
	if e.conn != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine session already open")
	}
	e.mu.Unlock()

	sessionURL, err := e.sessionURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if e.apiKey != "" {
		header.Set("Authorization", "Token "+e.apiKey)
	}

	conn, _, err := e.dialer.DialContext(ctx, sessionURL, header)
	if err != nil {
		return fmt.Errorf("dial recognition engine: %w", err)
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	go e.readLoop(conn, events)
	return nil
}

// Stop asks the engine to flush any pending final result and end the session.
// The session is over only once the read loop observes Metadata or a close.
func (e *StreamEngine) Stop() error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return nil
	}

	if err := conn.WriteJSON(controlMessage{Type: "CloseStream"}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("request engine stop: %w", err)
	}
	return nil
}

// sessionURL encodes the fixed session parameters onto the endpoint.
func (e *StreamEngine) sessionURL() (string, error) {
	parsed, err := url.Parse(e.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse engine endpoint %q: %w", e.endpoint, err)
	}

	query := parsed.Query()
	query.Set("language", e.cfg.Language)
	query.Set("interim_results", strconv.FormatBool(e.cfg.InterimResults))
	query.Set("alternatives", strconv.Itoa(e.cfg.MaxAlternatives))
	query.Set("single_utterance", strconv.FormatBool(e.cfg.SingleUtterance))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// readLoop decodes engine messages into callbacks until the session ends.
func (e *StreamEngine) readLoop(conn *websocket.Conn, events Events) {
	defer func() {
		_ = conn.Close()
		e.mu.Lock()
		if e.conn == conn {
			e.conn = nil
		}
		e.mu.Unlock()
	}()

	events.Started()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				events.Ended()
			} else {
				events.Failed("network", err.Error())
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			e.logger.Warn("engine message decode failed", "error", err.Error())
			continue
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			alt := msg.Channel.Alternatives[0]
			events.Recognized(Result{
				Text:       alt.Transcript,
				Confidence: alt.Confidence,
				Final:      msg.IsFinal,
			})
		case "Error":
			events.Failed(msg.Code, msg.Description)
			return
		case "Metadata":
			events.Ended()
			return
		default:
			e.logger.Debug("ignoring engine message", "type", msg.Type)
		}
	}
}
