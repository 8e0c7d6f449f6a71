package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CALLGYM_CONFIG is set
//  3. env (prefix CALLGYM_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CALLGYM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Map env keys like CALLGYM_DATABASE_URL -> database_url (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("CALLGYM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "callgym_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("openai_api_key must not be empty")
	}
	if cfg.VADThreshold < 0 || cfg.VADThreshold > 1 {
		return nil, errors.New("vad_threshold must be between 0 and 1")
	}
	if cfg.AudioBackend != "miniaudio" && cfg.AudioBackend != "portaudio" {
		return nil, errors.New("audio_backend must be miniaudio or portaudio")
	}
	return &cfg, nil
}
