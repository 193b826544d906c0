package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Monitor.StatusIntervalSecs != 2 {
		t.Errorf("StatusIntervalSecs = %d, want 2", cfg.Monitor.StatusIntervalSecs)
	}
	if cfg.Monitor.MaxWaitTimeoutSecs != 300 {
		t.Errorf("MaxWaitTimeoutSecs = %d, want 300", cfg.Monitor.MaxWaitTimeoutSecs)
	}
	if cfg.StaticScreen.TimeoutSecs != 30 {
		t.Errorf("StaticScreen.TimeoutSecs = %d, want 30", cfg.StaticScreen.TimeoutSecs)
	}
	if cfg.Completion.ConfirmationDelaySecs != 3 {
		t.Errorf("ConfirmationDelaySecs = %d, want 3", cfg.Completion.ConfirmationDelaySecs)
	}
	if cfg.Questions.ContextWindow != 5 {
		t.Errorf("ContextWindow = %d, want 5", cfg.Questions.ContextWindow)
	}
	if cfg.Completion.EscInterruptPattern != "(esc to interrupt)" {
		t.Errorf("EscInterruptPattern = %q", cfg.Completion.EscInterruptPattern)
	}
	if len(cfg.Completion.TaskPatterns["test"]) == 0 {
		t.Error("expected task patterns for test tasks")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Monitor.StatusIntervalSecs != DefaultConfig().Monitor.StatusIntervalSecs {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cotb.toml")
	content := `
[monitor]
status_interval_secs = 5
completion_check_secs = 2
initial_wait_secs = 1
max_wait_timeout_secs = 600
dual_screenshot_delay_ms = 100
paused_sleep_ms = 500

[static_screen]
timeout_secs = 45
check_interval_secs = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Monitor.StatusIntervalSecs != 5 {
		t.Errorf("StatusIntervalSecs = %d, want 5", cfg.Monitor.StatusIntervalSecs)
	}
	if cfg.StaticScreen.TimeoutSecs != 45 {
		t.Errorf("StaticScreen.TimeoutSecs = %d, want 45", cfg.StaticScreen.TimeoutSecs)
	}
	// Untouched sections keep defaults.
	if cfg.LLM.Model == "" {
		t.Error("LLM.Model default lost")
	}
	if len(cfg.Completion.StrongIndicators) == 0 {
		t.Error("StrongIndicators default lost")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero check interval", "[monitor]\ncompletion_check_secs = 0\nstatus_interval_secs = 2\nmax_wait_timeout_secs = 300\n"},
		{"bad similarity threshold", "[questions]\nsimilarity_threshold = 1.5\ncontext_window = 5\n"},
		{"zero context window", "[questions]\ncontext_window = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should reject invalid config")
			}
		})
	}
}
