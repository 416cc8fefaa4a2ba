// Package server exposes the voice orchestrator and chat assistant
// over an HTTP JSON API for the composer frontend.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/parloapp/parlo/internal/assistant"
	"github.com/parloapp/parlo/internal/voice"
)

// Orchestrator is the slice of the voice orchestrator the API needs.
type Orchestrator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (string, error)
	Recording() bool
	Processing() bool
	Err() *voice.Error
}

// Completer produces assistant replies for the chat endpoint.
type Completer interface {
	Complete(ctx context.Context, history []assistant.Message, prompt string) (string, error)
}

// Server wires the HTTP routes to the voice and assistant backends.
type Server struct {
	app       *fiber.App
	orch      Orchestrator
	completer Completer
	logger    *slog.Logger
}

// New builds the fiber app and registers routes. A nil completer
// disables the chat endpoint with a 503.
func New(orch Orchestrator, completer Completer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "parlo",
			DisableStartupMessage: true,
		}),
		orch:      orch,
		completer: completer,
		logger:    logger,
	}
	s.routes()
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the API on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http listening", "addr", addr)
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealth)

	api := s.app.Group("/api")
	api.Get("/voice/status", s.handleVoiceStatus)
	api.Post("/voice/start", s.handleVoiceStart)
	api.Post("/voice/stop", s.handleVoiceStop)
	api.Post("/chat", s.handleChat)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type statusResponse struct {
	Recording  bool       `json:"recording"`
	Processing bool       `json:"processing"`
	Error      *errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func toErrorBody(err *voice.Error) *errorBody {
	if err == nil {
		return nil
	}
	return &errorBody{Kind: string(err.Kind), Code: err.Code, Message: err.Message}
}

func (s *Server) handleVoiceStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		Recording:  s.orch.Recording(),
		Processing: s.orch.Processing(),
		Error:      toErrorBody(s.orch.Err()),
	})
}

func (s *Server) handleVoiceStart(c *fiber.Ctx) error {
	if err := s.orch.Start(c.UserContext()); err != nil {
		verr, ok := err.(*voice.Error)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		status := fiber.StatusServiceUnavailable
		if verr.Kind == voice.KindSessionActive {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"error": toErrorBody(verr)})
	}
	return c.JSON(fiber.Map{"recording": true})
}

type stopResponse struct {
	Text  *string    `json:"text"`
	Error *errorBody `json:"error,omitempty"`
}

func (s *Server) handleVoiceStop(c *fiber.Ctx) error {
	text, err := s.orch.Stop(c.UserContext())
	if err != nil {
		verr, ok := err.(*voice.Error)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stopResponse{Text: nil, Error: toErrorBody(verr)})
	}
	if text == "" {
		// No active session: nothing to commit.
		return c.JSON(stopResponse{Text: nil})
	}
	return c.JSON(stopResponse{Text: &text})
}

type chatRequest struct {
	Prompt  string              `json:"prompt"`
	History []assistant.Message `json:"history"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.completer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "assistant not configured")
	}
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt must not be empty")
	}
	reply, err := s.completer.Complete(c.UserContext(), req.History, req.Prompt)
	if err != nil {
		s.logger.Error("chat completion failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "assistant request failed")
	}
	return c.JSON(fiber.Map{"reply": reply})
}
