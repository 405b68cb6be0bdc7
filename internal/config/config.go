package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Database   DatabaseConfig             `yaml:"database"`
	Hermes     HermesConfig               `yaml:"hermes"`
	Logging    LoggingConfig              `yaml:"logging"`
	Scoring    ScoringConfig              `yaml:"scoring"`
	Report     ReportConfig               `yaml:"report"`
	Inputs     InputsConfig               `yaml:"inputs"`
	Attributes map[string]AttributeConfig `yaml:"attributes"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	MetricsPort int      `yaml:"metrics_port"`
	AdminToken  string   `yaml:"admin_token"`
	CORSOrigins []string `yaml:"cors_origins"`
	// Schedule is a cron expression for periodic runs in serve mode.
	Schedule string `yaml:"schedule"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ScoringConfig struct {
	ScorePrecision    int     `yaml:"score_precision"`
	ValuePrecision    int     `yaml:"value_precision"`
	DegenerateEpsilon float64 `yaml:"degenerate_epsilon"`
	ValidateWeights   string  `yaml:"validate_weights"`
	ParetoEnabled     bool    `yaml:"pareto_enabled"`
}

type ReportConfig struct {
	SeparatorWidth int `yaml:"separator_width"`
	TopNDisplay    int `yaml:"top_n_display"`
}

// InputsConfig locates the run inputs on disk.
type InputsConfig struct {
	Indicators    string `yaml:"indicators"`
	Values        string `yaml:"values"`
	Design        string `yaml:"design"`
	AttributesDir string `yaml:"attributes_dir"`
	ProcessedDir  string `yaml:"processed_dir"`
}

// AttributeConfig describes the layout of one attributes_<name> document.
type AttributeConfig struct {
	RecordsKey   string `yaml:"records_key"`
	ComponentKey string `yaml:"component_key"`
}

// Load reads .env if present, then the YAML file at path over the defaults,
// then ASSAY_* environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			CORSOrigins: []string{"*"},
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scoring: ScoringConfig{
			ScorePrecision:    2,
			ValuePrecision:    2,
			DegenerateEpsilon: 1e-10,
			ValidateWeights:   "off",
			ParetoEnabled:     true,
		},
		Report: ReportConfig{
			SeparatorWidth: 70,
			TopNDisplay:    5,
		},
		Inputs: InputsConfig{
			Indicators:    "data/config/config_indicators.json",
			Values:        "data/config/config_values.json",
			Design:        "data/config/doe_full_factorial_experiments.csv",
			AttributesDir: "data/attributes",
			ProcessedDir:  "data/processed",
		},
		Attributes: map[string]AttributeConfig{
			"process": {RecordsKey: "process_attributes"},
			"systems": {RecordsKey: "system_configurations"},
			"product": {RecordsKey: "components", ComponentKey: "component_name"},
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ASSAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ASSAY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("ASSAY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("ASSAY_SCHEDULE"); v != "" {
		cfg.Server.Schedule = v
	}
	if v := os.Getenv("ASSAY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ASSAY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("ASSAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ASSAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ASSAY_SCORE_PRECISION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.ScorePrecision = n
		}
	}
	if v := os.Getenv("ASSAY_VALIDATE_WEIGHTS"); v != "" {
		cfg.Scoring.ValidateWeights = v
	}
	if v := os.Getenv("ASSAY_PARETO_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.ParetoEnabled = b
		}
	}
	if v := os.Getenv("ASSAY_INDICATORS"); v != "" {
		cfg.Inputs.Indicators = v
	}
	if v := os.Getenv("ASSAY_VALUES"); v != "" {
		cfg.Inputs.Values = v
	}
	if v := os.Getenv("ASSAY_DESIGN"); v != "" {
		cfg.Inputs.Design = v
	}
	if v := os.Getenv("ASSAY_ATTRIBUTES_DIR"); v != "" {
		cfg.Inputs.AttributesDir = v
	}
	if v := os.Getenv("ASSAY_PROCESSED_DIR"); v != "" {
		cfg.Inputs.ProcessedDir = v
	}
}
