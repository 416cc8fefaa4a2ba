package config

// Default returns the built-in configuration. Values here are the
// baseline that file and environment overlays modify.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Engine: EngineConfig{
			Language:        "en-US",
			InterimResults:  true,
			MaxAlternatives: 1,
		},
		Assistant: AssistantConfig{
			Model: "gpt-4o-mini",
		},
		Audio: AudioConfig{
			SampleRate:       16000,
			Channels:         1,
			EchoCancellation: true,
			NoiseSuppression: true,
			AutoGainControl:  true,
			FlushIntervalMS:  1000,
		},
		Voice: VoiceConfig{
			SettleDelayMS: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
