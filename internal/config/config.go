package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// #region config

// Config holds everything the engine needs at construction time.
type Config struct {
	Tables     TablesConfig     `yaml:"tables"`
	Grammar    GrammarConfig    `yaml:"grammar"`
	SessionLog SessionLogConfig `yaml:"session_log"`
	Logging    LoggingConfig    `yaml:"logging"`
	Generative GenerativeConfig `yaml:"generative"`
}

// TablesConfig locates the rule tables. Relative paths resolve against Dir.
type TablesConfig struct {
	Dir            string `yaml:"dir" env:"DUALNARR_TABLES_DIR"`
	Transmission   string `yaml:"transmission"`
	Classification string `yaml:"classification"`
	Taxonomy       string `yaml:"taxonomy"`
	Layers         string `yaml:"layers"`
	Codex          string `yaml:"codex"`
	Drift          string `yaml:"drift"`
	Constraints    string `yaml:"constraints"`
	MLInstructions string `yaml:"ml_instructions"`
	Labels         string `yaml:"labels"`
	Watch          bool   `yaml:"watch" env:"DUALNARR_TABLES_WATCH"`
}

// GrammarConfig points at the emotional grammar map.
type GrammarConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SessionLogConfig configures the append-only audit trail. Empty paths disable a sink.
type SessionLogConfig struct {
	Enabled     bool   `yaml:"enabled" env:"DUALNARR_SESSION_LOG"`
	CSVPath     string `yaml:"csv_path" env:"DUALNARR_SESSION_CSV"`
	SQLitePath  string `yaml:"sqlite_path" env:"DUALNARR_SESSION_DB"`
	LabelPrefix string `yaml:"label_prefix"`
	LabelLayout string `yaml:"label_layout"`
}

// LoggingConfig configures the operator log.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"DUALNARR_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"DUALNARR_LOG_FORMAT"` // json, console
	File   string `yaml:"file" env:"DUALNARR_LOG_FILE"`
}

// GenerativeConfig configures the optional remote narrator.
type GenerativeConfig struct {
	Enabled               bool     `yaml:"enabled" env:"DUALNARR_GENERATIVE_ENABLED"`
	Addr                  string   `yaml:"addr" env:"DUALNARR_GENERATIVE_ADDR"`
	Model                 string   `yaml:"model"`
	SystemPrompt          string   `yaml:"system_prompt"`
	Temperature           float64  `yaml:"temperature"`
	MaxTokens             int      `yaml:"max_tokens"`
	Lines                 int      `yaml:"lines"`
	Format                string   `yaml:"format"`
	IncludeClassification bool     `yaml:"include_classification"`
	ClassificationLabels  []string `yaml:"classification_labels"`
	FallbackLabel         string   `yaml:"fallback_label"`
	Timeout               string   `yaml:"timeout"`
}

// #endregion config

// #region defaults

// DefaultConfig returns the stock rule-table layout and service defaults.
func DefaultConfig() *Config {
	return &Config{
		Tables: TablesConfig{
			Dir:            ".",
			Transmission:   "transmission/transmission_map.csv",
			Classification: "classification/archetype_classification.csv",
			Taxonomy:       "taxonomy/reflex_taxonomy.csv",
			Layers:         "geometry/wheel_layers.csv",
			Codex:          "geometry/wheel_codex.csv",
			Drift:          "geometry/polarity_drift.csv",
			Constraints:    "emotional_geometry_layers/emotional_constraint_matrix.csv",
			MLInstructions: "engine_boot/ml_instruction.csv",
			Labels:         "headers.csv",
		},
		Grammar: GrammarConfig{
			Enabled: true,
			Path:    "emotional_grammar.json",
		},
		SessionLog: SessionLogConfig{
			Enabled:     true,
			CSVPath:     "classification.csv",
			LabelPrefix: "Generated on",
			LabelLayout: "Mon Jan 02, 2006 (15:04)",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Generative: GenerativeConfig{
			Addr:                  "localhost:50051",
			Model:                 "openai-gpt4",
			SystemPrompt:          "You are a storytelling assistant.",
			Temperature:           0.7,
			MaxTokens:             800,
			Lines:                 20,
			Format:                "dual narrative",
			IncludeClassification: true,
			ClassificationLabels:  []string{"F0", "F1", "F2", "F3", "M0", "M1", "M2", "M3", "N/A"},
			FallbackLabel:         "N/A",
			Timeout:               "30s",
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML config file over the defaults, then applies DUALNARR_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads overrides from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q: want json or console", c.Logging.Format)
	}
	if c.Generative.Enabled && c.Generative.Addr == "" {
		return errors.New("generative.enabled requires generative.addr")
	}
	if _, err := c.Generative.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// #endregion load

// #region helpers

// Path resolves a table path against Dir. Empty stays empty.
func (t TablesConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || t.Dir == "" {
		return p
	}
	return filepath.Join(t.Dir, p)
}

// All returns every configured table path, resolved. Used by the watcher.
func (t TablesConfig) All() []string {
	return []string{
		t.Path(t.Transmission), t.Path(t.Classification), t.Path(t.Taxonomy),
		t.Path(t.Layers), t.Path(t.Codex), t.Path(t.Drift),
		t.Path(t.Constraints), t.Path(t.MLInstructions), t.Path(t.Labels),
	}
}

// TimeoutDuration parses Timeout, defaulting to 30s when unset.
func (g GenerativeConfig) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("generative.timeout: %w", err)
	}
	return d, nil
}

// #endregion helpers
