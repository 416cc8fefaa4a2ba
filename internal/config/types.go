// Package config loads and validates parlo's YAML configuration.
package config

import "time"

// Config is the full parlo configuration tree.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Assistant AssistantConfig `yaml:"assistant"`
	Audio     AudioConfig     `yaml:"audio"`
	Voice     VoiceConfig     `yaml:"voice"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EngineConfig configures the streaming recognition engine. An empty
// Endpoint disables live recognition entirely; every session then
// falls back to record-and-upload.
type EngineConfig struct {
	Endpoint        string `yaml:"endpoint"`
	APIKey          string `yaml:"api_key"`
	Language        string `yaml:"language"`
	InterimResults  bool   `yaml:"interim_results"`
	MaxAlternatives int    `yaml:"max_alternatives"`
}

// GatewayConfig configures the transcription upload gateway.
type GatewayConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// AssistantConfig configures the chat completion backend.
type AssistantConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

// AudioConfig holds the capture constraints applied to the recording
// device and the interval at which buffered audio is flushed into
// clip segments.
type AudioConfig struct {
	Source           string `yaml:"source"`
	SampleRate       int    `yaml:"sample_rate"`
	Channels         int    `yaml:"channels"`
	EchoCancellation bool   `yaml:"echo_cancellation"`
	NoiseSuppression bool   `yaml:"noise_suppression"`
	AutoGainControl  bool   `yaml:"auto_gain_control"`
	FlushIntervalMS  int    `yaml:"flush_interval_ms"`
}

// FlushInterval returns the segment flush interval as a duration.
func (a AudioConfig) FlushInterval() time.Duration {
	return time.Duration(a.FlushIntervalMS) * time.Millisecond
}

// VoiceConfig tunes orchestrator behavior.
type VoiceConfig struct {
	SettleDelayMS int `yaml:"settle_delay_ms"`
}

// SettleDelay returns the live-stop settle window as a duration.
func (v VoiceConfig) SettleDelay() time.Duration {
	return time.Duration(v.SettleDelayMS) * time.Millisecond
}

// LogConfig controls runtime logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Warning is a non-fatal problem found while loading or validating
// configuration. Warnings are reported but never abort startup.
type Warning struct {
	Message string
}

// Loaded is the result of reading configuration from disk.
type Loaded struct {
	Path     string
	Exists   bool
	Config   Config
	Warnings []Warning
}
