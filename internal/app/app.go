// Package app dispatches CLI commands and wires the serve runtime.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/parloapp/parlo/internal/assistant"
	"github.com/parloapp/parlo/internal/cli"
	"github.com/parloapp/parlo/internal/config"
	"github.com/parloapp/parlo/internal/doctor"
	"github.com/parloapp/parlo/internal/gateway"
	"github.com/parloapp/parlo/internal/logging"
	"github.com/parloapp/parlo/internal/recognizer"
	"github.com/parloapp/parlo/internal/recorder"
	"github.com/parloapp/parlo/internal/server"
	"github.com/parloapp/parlo/internal/version"
	"github.com/parloapp/parlo/internal/voice"
)

const shutdownGrace = 5 * time.Second

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("parlo"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("parlo"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	// Local .env files carry backend keys during development.
	_ = godotenv.Load()

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandCheck:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	sources, err := recorder.ListSources(ctx, "parlo")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintln(r.Stdout, "no audio sources found")
		return 1
	}

	for _, src := range sources {
		defaultMark := " "
		if src.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !src.Available {
			availability = "no"
		}
		muted := "no"
		if src.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			src.ID,
			src.Description,
			src.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	srv := server.New(buildOrchestrator(cfg, logger), buildCompleter(cfg, logger), logger)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.Listen(addr)
	}()

	select {
	case err := <-serveErrCh:
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			logger.Error("http server failed", "error", err.Error())
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(r.Stderr, "error: shutdown: %v\n", err)
			return 1
		}
		return 0
	}
}

// buildOrchestrator assembles the voice pipeline from configuration.
// Unconfigured backends stay nil; the orchestrator degrades per
// strategy instead of failing at startup.
func buildOrchestrator(cfg config.Config, logger *slog.Logger) *voice.Orchestrator {
	engineCfg := recognizer.Config{
		Language:        cfg.Engine.Language,
		InterimResults:  cfg.Engine.InterimResults,
		MaxAlternatives: cfg.Engine.MaxAlternatives,
		SingleUtterance: true,
	}
	engine := recognizer.NewStreamEngine(cfg.Engine.Endpoint, cfg.Engine.APIKey, engineCfg, logger)
	adapter := recognizer.NewAdapter(engine)

	constraints := recorder.Constraints{
		SampleRate:       cfg.Audio.SampleRate,
		Channels:         cfg.Audio.Channels,
		EchoCancellation: cfg.Audio.EchoCancellation,
		NoiseSuppression: cfg.Audio.NoiseSuppression,
		AutoGainControl:  cfg.Audio.AutoGainControl,
	}
	opener := func(ctx context.Context) (voice.Recorder, error) {
		source, err := recorder.OpenPulse(ctx, constraints, "parlo", cfg.Audio.Source)
		if err != nil {
			return nil, err
		}
		encoder := recorder.SelectEncoder(recorder.DefaultEncoders())
		return recorder.Open(ctx, source, encoder, cfg.Audio.FlushInterval(), logger)
	}

	var transcriber voice.Transcriber
	if cfg.Gateway.URL != "" {
		transcriber = gateway.New(cfg.Gateway.URL, cfg.Gateway.APIKey, logger)
	}

	return voice.New(logger, adapter, opener, transcriber, voice.Options{
		SettleDelay: cfg.Voice.SettleDelay(),
	})
}

// buildCompleter returns nil when no assistant key is configured,
// which disables the chat endpoint.
func buildCompleter(cfg config.Config, logger *slog.Logger) server.Completer {
	if cfg.Assistant.APIKey == "" {
		return nil
	}
	return assistant.New(
		cfg.Assistant.APIKey,
		cfg.Assistant.BaseURL,
		cfg.Assistant.Model,
		cfg.Assistant.SystemPrompt,
		logger,
	)
}
