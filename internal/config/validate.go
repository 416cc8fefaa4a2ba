package config

import (
	"fmt"
	"net/url"
)

// Validate checks cfg for fatal mistakes and returns warnings for
// conditions that degrade but do not prevent operation.
func Validate(cfg Config) ([]Warning, error) {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Engine.Language == "" {
		return nil, fmt.Errorf("engine.language must not be empty")
	}
	if cfg.Engine.MaxAlternatives < 1 {
		return nil, fmt.Errorf("engine.max_alternatives must be at least 1, got %d", cfg.Engine.MaxAlternatives)
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		return nil, fmt.Errorf("audio.channels must be 1 or 2, got %d", cfg.Audio.Channels)
	}
	if cfg.Audio.FlushIntervalMS <= 0 {
		return nil, fmt.Errorf("audio.flush_interval_ms must be positive, got %d", cfg.Audio.FlushIntervalMS)
	}
	if cfg.Voice.SettleDelayMS < 0 {
		return nil, fmt.Errorf("voice.settle_delay_ms must not be negative, got %d", cfg.Voice.SettleDelayMS)
	}
	if cfg.Gateway.URL != "" {
		u, err := url.Parse(cfg.Gateway.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("gateway.url is not a valid URL: %q", cfg.Gateway.URL)
		}
	}

	var warnings []Warning
	if cfg.Engine.Endpoint == "" {
		warnings = append(warnings, Warning{Message: "engine.endpoint is unset; live recognition disabled, sessions fall back to upload"})
	}
	if cfg.Gateway.URL == "" {
		warnings = append(warnings, Warning{Message: "gateway.url is unset; upload transcription unavailable"})
	}
	if cfg.Assistant.APIKey == "" {
		warnings = append(warnings, Warning{Message: "assistant.api_key is unset; chat completion unavailable"})
	}
	return warnings, nil
}
