// Package doctor runs readiness diagnostics for config, backends, and audio.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parloapp/parlo/internal/config"
	"github.com/parloapp/parlo/internal/recorder"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, checkConfig(cfg))
	checks = append(checks, checkEngine(cfg.Config.Engine))
	checks = append(checks, checkGateway(ctx, cfg.Config.Gateway))
	checks = append(checks, checkAssistant(cfg.Config.Assistant))
	checks = append(checks, checkAudioSources(ctx))

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("no file at %q, running on defaults", cfg.Path)
	}
	if n := len(cfg.Warnings); n > 0 {
		message = fmt.Sprintf("%s (%d warning(s))", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEngine validates the streaming engine endpoint without dialing:
// the engine is optional, but a set endpoint must be a WebSocket URL.
func checkEngine(cfg config.EngineConfig) Check {
	if cfg.Endpoint == "" {
		return Check{Name: "engine.endpoint", Pass: true, Message: "unset; live recognition disabled"}
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return Check{Name: "engine.endpoint", Pass: false, Message: fmt.Sprintf("expected ws:// or wss:// URL, got %q", cfg.Endpoint)}
	}
	return Check{Name: "engine.endpoint", Pass: true, Message: fmt.Sprintf("configured for %s", u.Host)}
}

// checkGateway probes the transcription gateway host. Any HTTP
// response counts as reachable; only transport failure fails the check.
func checkGateway(ctx context.Context, cfg config.GatewayConfig) Check {
	if cfg.URL == "" {
		return Check{Name: "gateway.url", Pass: false, Message: "gateway.url is empty; upload transcription unavailable"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.URL, nil)
	if err != nil {
		return Check{Name: "gateway.url", Pass: false, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "gateway.url", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	resp.Body.Close()
	return Check{Name: "gateway.url", Pass: true, Message: fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode)}
}

func checkAssistant(cfg config.AssistantConfig) Check {
	if cfg.APIKey == "" {
		return Check{Name: "assistant.api_key", Pass: false, Message: "assistant.api_key is empty; chat completion unavailable"}
	}
	return Check{Name: "assistant.api_key", Pass: true, Message: fmt.Sprintf("set (model %s)", cfg.Model)}
}

// checkAudioSources enumerates capture sources to surface device
// availability before a session needs one.
func checkAudioSources(ctx context.Context) Check {
	sources, err := recorder.ListSources(ctx, "parlo-doctor")
	if err != nil {
		return Check{Name: "audio.sources", Pass: false, Message: err.Error()}
	}
	available := 0
	for _, src := range sources {
		if src.Available {
			available++
		}
	}
	if available == 0 {
		return Check{Name: "audio.sources", Pass: false, Message: "no available capture sources"}
	}
	return Check{Name: "audio.sources", Pass: true, Message: fmt.Sprintf("%d source(s), %d available", len(sources), available)}
}
