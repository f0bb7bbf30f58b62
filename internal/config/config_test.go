package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

var envVars = []string{
	"ARBITER_PORT", "ARBITER_METRICS_PORT", "ARBITER_ADMIN_TOKEN", "ARBITER_CORS_ORIGINS",
	"ARBITER_DATABASE_DRIVER", "ARBITER_DATABASE_URL", "ARBITER_HERMES_URL",
	"ARBITER_OTEL_ENDPOINT", "ARBITER_OTEL_INSECURE", "ARBITER_DEFAULT_METHOD",
	"ARBITER_SCORE_SCALE", "ARBITER_CONSISTENCY_THRESHOLD", "ARBITER_CRITICAL_THRESHOLD",
	"ARBITER_SWITCHING_SEARCH", "ARBITER_LOG_LEVEL", "ARBITER_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS origin, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Telemetry.Endpoint != "" {
		t.Errorf("expected telemetry disabled, got endpoint %s", cfg.Telemetry.Endpoint)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.DefaultMethod() != analysis.MethodSimple {
		t.Errorf("expected default method simple, got %s", cfg.DefaultMethod())
	}

	opts := cfg.AnalysisOptions()
	def := analysis.DefaultOptions()
	if opts.ConsistencyThreshold != 0.1 {
		t.Errorf("expected consistency threshold 0.1, got %f", opts.ConsistencyThreshold)
	}
	if opts.CriticalThreshold != 0.15 {
		t.Errorf("expected critical threshold 0.15, got %f", opts.CriticalThreshold)
	}
	if len(opts.PerturbationDeltas) != len(def.PerturbationDeltas) {
		t.Errorf("expected %d deltas, got %v", len(def.PerturbationDeltas), opts.PerturbationDeltas)
	}
	if opts.MaxIterations != 100 || opts.Tolerance != 1e-10 {
		t.Errorf("expected solver defaults, got %d/%g", opts.MaxIterations, opts.Tolerance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARBITER_PORT", "9000")
	t.Setenv("ARBITER_METRICS_PORT", "9001")
	t.Setenv("ARBITER_ADMIN_TOKEN", "secret-token")
	t.Setenv("ARBITER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ARBITER_DATABASE_DRIVER", "postgres")
	t.Setenv("ARBITER_DATABASE_URL", "postgres://localhost/arbiter_test")
	t.Setenv("ARBITER_HERMES_URL", "nats://nats:4222")
	t.Setenv("ARBITER_OTEL_ENDPOINT", "otel:4318")
	t.Setenv("ARBITER_OTEL_INSECURE", "true")
	t.Setenv("ARBITER_DEFAULT_METHOD", "TOPSIS")
	t.Setenv("ARBITER_CONSISTENCY_THRESHOLD", "0.2")
	t.Setenv("ARBITER_SWITCHING_SEARCH", "bisect")
	t.Setenv("ARBITER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("expected two trimmed origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.URL != "postgres://localhost/arbiter_test" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Telemetry.Endpoint != "otel:4318" || !cfg.Telemetry.Insecure {
		t.Errorf("unexpected telemetry config %+v", cfg.Telemetry)
	}
	if cfg.DefaultMethod() != analysis.MethodTOPSIS {
		t.Errorf("expected topsis, got %s", cfg.DefaultMethod())
	}
	opts := cfg.AnalysisOptions()
	if opts.ConsistencyThreshold != 0.2 {
		t.Errorf("expected consistency threshold 0.2, got %f", opts.ConsistencyThreshold)
	}
	if opts.SwitchingSearch != analysis.SwitchingBisect {
		t.Errorf("expected bisect, got %s", opts.SwitchingSearch)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "arbiter.yaml")
	data := []byte(`
server:
  port: 8800
database:
  driver: postgres
  url: postgres://db/arbiter
analysis:
  default_method: ahp
  score_scale: signed
  perturbation_deltas: [-0.2, 0.2]
logging:
  format: text
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.DefaultMethod() != analysis.MethodAHP {
		t.Errorf("expected ahp, got %s", cfg.DefaultMethod())
	}
	opts := cfg.AnalysisOptions()
	if opts.ScoreScale != analysis.ScaleSigned {
		t.Errorf("expected signed scale, got %s", opts.ScoreScale)
	}
	if len(opts.PerturbationDeltas) != 2 || opts.PerturbationDeltas[0] != -0.2 {
		t.Errorf("expected file deltas, got %v", opts.PerturbationDeltas)
	}
	if opts.CriticalThreshold != 0.15 {
		t.Errorf("expected default critical threshold, got %f", opts.CriticalThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"unknown method", func(c *Config) { c.Analysis.DefaultMethod = "electre" }},
		{"unknown scale", func(c *Config) { c.Analysis.ScoreScale = "percent" }},
		{"zero delta", func(c *Config) { c.Analysis.PerturbationDeltas = []float64{0} }},
		{"negative threshold", func(c *Config) { c.Analysis.ConsistencyThreshold = -1 }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
