// Package config loads and watches the client configuration.
// All tunables live in a single TOML file with built-in defaults that
// mirror the monitoring behavior the client ships with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultConfigName is the config file looked up in the home directory.
const DefaultConfigName = ".cotb.toml"

// Config is the root configuration.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Monitor      MonitorConfig      `toml:"monitor"`
	StaticScreen StaticScreenConfig `toml:"static_screen"`
	Completion   CompletionConfig   `toml:"completion"`
	Questions    QuestionsConfig    `toml:"questions"`
	LLM          LLMConfig          `toml:"llm"`
	Recording    RecordingConfig    `toml:"recording"`
	Screenshots  ScreenshotsConfig  `toml:"screenshots"`
}

// ServerConfig configures the relay connection.
type ServerConfig struct {
	URL                string `toml:"url"`
	PairingTimeoutSecs int    `toml:"pairing_timeout_secs"`
}

// MonitorConfig holds the monitoring loop cadence.
type MonitorConfig struct {
	StatusIntervalSecs    int `toml:"status_interval_secs"`     // slower cadence for status lines
	CompletionCheckSecs   int `toml:"completion_check_secs"`    // fast cadence for completion checks
	InitialWaitSecs       int `toml:"initial_wait_secs"`        // delay before the first sample
	MaxWaitTimeoutSecs    int `toml:"max_wait_timeout_secs"`    // hard per-command cap
	DualScreenshotDelayMS int `toml:"dual_screenshot_delay_ms"` // gap between the two frames
	PausedSleepMS         int `toml:"paused_sleep_ms"`          // sleep while preempted
}

// StaticScreenConfig configures the static-screen fallback detector.
type StaticScreenConfig struct {
	TimeoutSecs       int `toml:"timeout_secs"`
	CheckIntervalSecs int `toml:"check_interval_secs"`
}

// CompletionConfig holds the completion vocabularies and the dwell delay.
type CompletionConfig struct {
	ConfirmationDelaySecs int                 `toml:"confirmation_delay_secs"`
	StrongIndicators      []string            `toml:"strong_indicators"`
	WeakIndicators        []string            `toml:"weak_indicators"`
	TaskPatterns          map[string][]string `toml:"task_patterns"`
	StatusWords           []string            `toml:"status_words"`
	RunningIndicators     []string            `toml:"running_indicators"`
	EscInterruptPattern   string              `toml:"esc_interrupt_pattern"`
	ModelSwitchPhrases    []string            `toml:"model_switch_phrases"`
}

// QuestionsConfig holds question detection and dedup tunables.
type QuestionsConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	SimilarityHigh      float64 `toml:"similarity_high"`
	SimilarityMedium    float64 `toml:"similarity_medium"`
	SimilarityLow       float64 `toml:"similarity_low"`
	ContextWindow       int     `toml:"context_window"`
	TimeoutSecs         int     `toml:"timeout_secs"`

	HighConfidence   []string `toml:"high_confidence"`
	MediumConfidence []string `toml:"medium_confidence"`
	LowConfidence    []string `toml:"low_confidence"`
	FileOperations   []string `toml:"file_operations"`
	Permissions      []string `toml:"permissions"`
	Configuration    []string `toml:"configuration"`
}

// LLMConfig configures the vision backend.
type LLMConfig struct {
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	APIKeyEnv string `toml:"api_key_env"`
}

// RecordingConfig configures the rolling video buffer.
type RecordingConfig struct {
	BufferDurationSecs int    `toml:"buffer_duration_secs"`
	FPS                int    `toml:"fps"`
	QualityCRF         int    `toml:"quality_crf"`
	MaxRate            string `toml:"maxrate"`
	BufSize            string `toml:"bufsize"`
	TempDir            string `toml:"temp_dir"`
}

// ScreenshotsConfig configures local screenshot persistence.
type ScreenshotsConfig struct {
	Folder      string `toml:"folder"`
	SaveLocally bool   `toml:"save_locally"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                "wss://claudeonthebeach-production.up.railway.app/ws",
			PairingTimeoutSecs: 60,
		},
		Monitor: MonitorConfig{
			StatusIntervalSecs:    2,
			CompletionCheckSecs:   1,
			InitialWaitSecs:       1,
			MaxWaitTimeoutSecs:    300,
			DualScreenshotDelayMS: 100,
			PausedSleepMS:         500,
		},
		StaticScreen: StaticScreenConfig{
			TimeoutSecs:       30,
			CheckIntervalSecs: 5,
		},
		Completion: CompletionConfig{
			ConfirmationDelaySecs: 3,
			StrongIndicators: []string{
				"✅", "✓", "PASSED", "SUCCESS", "COMPLETE", "DONE", "FINISHED",
				"all tests pass", "installation complete", "build successful",
				"script completed", "execution finished", "process completed",
			},
			WeakIndicators: []string{
				"ready", "available", "prepared", "configured", "set up",
				"waiting for input", "prompt", ">", "command line",
			},
			TaskPatterns: map[string][]string{
				"test":    {"all tests pass", "test passed", "pytest passed", "✓", "PASSED"},
				"script":  {"done", "finished", "complete", "script completed", "execution finished"},
				"file":    {"file created", "file saved", "write complete", "saved successfully"},
				"install": {"installation complete", "installed successfully", "setup complete"},
				"build":   {"build complete", "compilation finished", "build successful"},
				"run":     {"execution complete", "program finished", "process completed"},
			},
			StatusWords: []string{
				"grooving", "swooping", "caramelizing", "bewitching", "fermenting", "imagining",
			},
			RunningIndicators:   []string{"running", "running the tests", "+ running"},
			EscInterruptPattern: "(esc to interrupt)",
			ModelSwitchPhrases: []string{
				"claude opus limit reached", "now using sonnet", "model limit reached",
				"switching to", "falling back to", "using sonnet", "using opus",
				"model change", "limit reached",
			},
		},
		Questions: QuestionsConfig{
			SimilarityThreshold: 0.75,
			SimilarityHigh:      0.85,
			SimilarityMedium:    0.75,
			SimilarityLow:       0.60,
			ContextWindow:       5,
			TimeoutSecs:         300,
			HighConfidence: []string{
				"do you want to", "would you like to", "should i", "can i",
				"select", "choose", "pick", "option", "choice",
				"confirm", "proceed", "continue", "yes/no",
				"y/n", "r/v", "a/b", "1/2/3", "enter to", "press",
			},
			MediumConfidence: []string{
				"what", "which", "where", "when", "how", "why",
				"enter", "type", "input", "provide", "specify",
				"name", "path", "directory", "file", "folder",
				"framework", "library", "package", "version",
			},
			LowConfidence: []string{
				"please", "kindly", "could you", "would you",
				"if you", "when you", "after you", "before you",
				"ready", "waiting", "prompt", "input needed",
			},
			FileOperations: []string{
				"create file", "edit file", "modify file", "save file",
				"overwrite", "replace", "backup", "rename",
				"delete", "remove", "move", "copy",
			},
			Permissions: []string{
				"permission", "authorize", "allow", "grant",
				"sudo", "admin", "root", "privileges",
				"access", "install", "system", "global",
			},
			Configuration: []string{
				"configure", "setup", "install", "initialize",
				"settings", "preferences", "options", "parameters",
				"environment", "variables", "config", "profile",
			},
		},
		LLM: LLMConfig{
			Model:     "claude-3-5-sonnet-20241022",
			MaxTokens: 200,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Recording: RecordingConfig{
			BufferDurationSecs: 1200,
			FPS:                5,
			QualityCRF:         20,
			MaxRate:            "1000k",
			BufSize:            "2000k",
			TempDir:            "/tmp/claude_recordings",
		},
		Screenshots: ScreenshotsConfig{
			SaveLocally: false,
		},
	}
}

// DefaultPath returns the default config file path (~/.cotb.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigName
	}
	return filepath.Join(home, DefaultConfigName)
}

// Load reads the config at path, layering it over the defaults.
// An empty path means DefaultPath; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// validate rejects values the monitoring loop cannot operate with.
func (c *Config) validate() error {
	if c.Monitor.CompletionCheckSecs <= 0 {
		return fmt.Errorf("monitor.completion_check_secs must be positive")
	}
	if c.Monitor.StatusIntervalSecs <= 0 {
		return fmt.Errorf("monitor.status_interval_secs must be positive")
	}
	if c.Monitor.MaxWaitTimeoutSecs <= 0 {
		return fmt.Errorf("monitor.max_wait_timeout_secs must be positive")
	}
	if c.StaticScreen.TimeoutSecs <= 0 {
		return fmt.Errorf("static_screen.timeout_secs must be positive")
	}
	if c.Questions.ContextWindow <= 0 {
		return fmt.Errorf("questions.context_window must be positive")
	}
	if c.Questions.SimilarityThreshold <= 0 || c.Questions.SimilarityThreshold > 1 {
		return fmt.Errorf("questions.similarity_threshold must be in (0, 1]")
	}
	return nil
}
