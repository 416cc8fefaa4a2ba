// Package gateway calls the remote speech transcription service that turns
// one uploaded audio clip into text.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// APIError is a failure reported by the transcription service, carrying the
// transport status and the service's own error code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("transcription gateway: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("transcription gateway: %s (status %d)", e.Message, e.Status)
}

// StatusCode returns the HTTP status for taxonomy mapping.
func (e *APIError) StatusCode() int { return e.Status }

// ErrorCode returns the service error code for taxonomy mapping.
func (e *APIError) ErrorCode() string { return e.Code }

// Client holds the gateway endpoint and credentials for transcription calls.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

// New builds a gateway client for one transcription endpoint.
func New(url string, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{},
		logger: logger,
	}
}

type transcribeRequest struct {
	Audio string `json:"audio"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe submits one base64-encoded audio clip and returns the service's
// transcript. Cancellation rides on ctx; the call itself has no extra timeout.
func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	payload, err := json.Marshal(transcribeRequest{Audio: audioBase64})
	if err != nil {
		return "", fmt.Errorf("encode transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	began := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call transcription gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var parsed errorResponse
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil && parsed.Error.Message != "" {
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		}
		return "", apiErr
	}

	var result transcribeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	c.logger.Debug("transcription call resolved",
		"latency_ms", time.Since(began).Milliseconds(),
		"chars", len(result.Text),
	)
	return result.Text, nil
}
