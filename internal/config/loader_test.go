package config

import "testing"

func TestLoadLayersEnvOverDefaults(t *testing.T) {
	t.Setenv("CALLGYM_OPENAI_API_KEY", "sk-test")
	t.Setenv("CALLGYM_ADDR", ":9999")
	t.Setenv("CALLGYM_REP_MERGE_WINDOW_MS", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env addr to win, got %q", cfg.Addr)
	}
	if cfg.RepMergeWindowMs != 3000 {
		t.Fatalf("expected env merge window to win, got %d", cfg.RepMergeWindowMs)
	}
	if cfg.Voice == "" || cfg.RealtimeModel == "" {
		t.Fatalf("expected defaults to survive layering, got %+v", cfg)
	}
	if cfg.VAD().SilenceDurationMs != 900 {
		t.Fatalf("unexpected default vad tuning: %+v", cfg.VAD())
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("CALLGYM_OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for a missing api key")
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("CALLGYM_OPENAI_API_KEY", "sk-test")
	t.Setenv("CALLGYM_VAD_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for an out-of-range threshold")
	}
}
