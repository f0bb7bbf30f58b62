package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Hermes    HermesConfig    `yaml:"hermes"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	MetricsPort int      `yaml:"metrics_port"`
	AdminToken  string   `yaml:"admin_token"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig selects the store backend. Driver is "postgres" or "sqlite";
// for sqlite the URL is a file path or ":memory:".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// TelemetryConfig configures OTLP trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

type AnalysisConfig struct {
	DefaultMethod        string    `yaml:"default_method"`
	ScoreScale           string    `yaml:"score_scale"`
	ConsistencyThreshold float64   `yaml:"consistency_threshold"`
	CriticalThreshold    float64   `yaml:"critical_threshold"`
	PerturbationDeltas   []float64 `yaml:"perturbation_deltas"`
	SwitchingSearch      string    `yaml:"switching_search"`
	MaxIterations        int       `yaml:"max_iterations"`
	Tolerance            float64   `yaml:"tolerance"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AnalysisOptions converts the analysis section into engine options.
func (c *Config) AnalysisOptions() analysis.Options {
	a := c.Analysis
	return analysis.Options{
		ScoreScale:           analysis.ScoreScale(a.ScoreScale),
		ConsistencyThreshold: a.ConsistencyThreshold,
		CriticalThreshold:    a.CriticalThreshold,
		PerturbationDeltas:   append([]float64(nil), a.PerturbationDeltas...),
		SwitchingSearch:      analysis.SwitchingSearch(a.SwitchingSearch),
		MaxIterations:        a.MaxIterations,
		Tolerance:            a.Tolerance,
	}
}

// DefaultMethod returns the configured default analysis method.
func (c *Config) DefaultMethod() analysis.Method {
	m, err := analysis.ParseMethod(c.Analysis.DefaultMethod)
	if err != nil {
		return analysis.MethodSimple
	}
	return m
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if _, err := analysis.ParseMethod(c.Analysis.DefaultMethod); err != nil {
		return fmt.Errorf("analysis.default_method: %w", err)
	}
	if err := c.AnalysisOptions().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

func Load(path string) (*Config, error) {
	defaults := analysis.DefaultOptions()
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "arbiter.db",
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "arbiter",
		},
		Analysis: AnalysisConfig{
			DefaultMethod:        string(analysis.MethodSimple),
			ScoreScale:           string(defaults.ScoreScale),
			ConsistencyThreshold: defaults.ConsistencyThreshold,
			CriticalThreshold:    defaults.CriticalThreshold,
			PerturbationDeltas:   defaults.PerturbationDeltas,
			SwitchingSearch:      string(defaults.SwitchingSearch),
			MaxIterations:        defaults.MaxIterations,
			Tolerance:            defaults.Tolerance,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
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
	if v := os.Getenv("ARBITER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ARBITER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("ARBITER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("ARBITER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ARBITER_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ARBITER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ARBITER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("ARBITER_OTEL_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	if v := os.Getenv("ARBITER_OTEL_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Insecure = b
		}
	}
	if v := os.Getenv("ARBITER_DEFAULT_METHOD"); v != "" {
		cfg.Analysis.DefaultMethod = v
	}
	if v := os.Getenv("ARBITER_SCORE_SCALE"); v != "" {
		cfg.Analysis.ScoreScale = v
	}
	if v := os.Getenv("ARBITER_CONSISTENCY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.ConsistencyThreshold = f
		}
	}
	if v := os.Getenv("ARBITER_CRITICAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.CriticalThreshold = f
		}
	}
	if v := os.Getenv("ARBITER_SWITCHING_SEARCH"); v != "" {
		cfg.Analysis.SwitchingSearch = v
	}
	if v := os.Getenv("ARBITER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ARBITER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
