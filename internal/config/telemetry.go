package config

import (
	"log/slog"
	"time"

	"github.com/FerroO2000/ering/internal/telemetry"
)

// Telemetry is the file representation of the telemetry configuration.
type Telemetry struct {
	// Enabled states whether the results are exported to an OTLP collector.
	//
	// Default: false
	Enabled bool `toml:"enabled"`

	// Endpoint is the gRPC address of the OTLP collector.
	//
	// Default: "localhost:4317"
	Endpoint string `toml:"endpoint"`
	// LogEndpoint is the HTTP address of the OTLP collector used for logs.
	//
	// Default: "localhost:4318"
	LogEndpoint string `toml:"log_endpoint"`

	// TraceRatio is the sampling ratio of the traces, between 0 and 1.
	//
	// Default: 0.05
	TraceRatio float64 `toml:"trace_ratio"`
	// ExportInterval is the interval between two metric exports.
	//
	// Default: 1 second
	ExportInterval time.Duration `toml:"export_interval"`

	// LogLevel is the minimum level of the logs.
	//
	// Default: info
	LogLevel slog.Level `toml:"log_level"`
	// NoColor disables the colored console output.
	//
	// Default: false
	NoColor bool `toml:"no_color"`
}

// NewTelemetry returns the default telemetry configuration.
func NewTelemetry() *Telemetry {
	return &Telemetry{
		Endpoint:       telemetry.DefaultEndpoint,
		LogEndpoint:    telemetry.DefaultLogEndpoint,
		TraceRatio:     telemetry.DefaultTraceRatio,
		ExportInterval: telemetry.DefaultExportInterval,
		LogLevel:       slog.LevelInfo,
	}
}

// Validate checks the configuration.
func (t *Telemetry) Validate(ac *AnomalyCollector) {
	CheckNotEmpty(ac, "Endpoint", &t.Endpoint, telemetry.DefaultEndpoint)
	CheckNotEmpty(ac, "LogEndpoint", &t.LogEndpoint, telemetry.DefaultLogEndpoint)

	CheckNotNegative(ac, "TraceRatio", &t.TraceRatio, telemetry.DefaultTraceRatio)
	CheckNotGreaterThan(ac, "TraceRatio", "1", &t.TraceRatio, 1)

	CheckNotNegative(ac, "ExportInterval", &t.ExportInterval, telemetry.DefaultExportInterval)
	CheckNotZero(ac, "ExportInterval", &t.ExportInterval, telemetry.DefaultExportInterval)
}

// ToTelemetryConfig converts the configuration into the one
// used to set up the telemetry providers.
func (t *Telemetry) ToTelemetryConfig() *telemetry.Config {
	cfg := telemetry.DefaultConfig()

	cfg.Enabled = t.Enabled
	cfg.Endpoint = t.Endpoint
	cfg.LogEndpoint = t.LogEndpoint
	cfg.TraceRatio = t.TraceRatio
	cfg.ExportInterval = t.ExportInterval
	cfg.LogLevel = t.LogLevel
	cfg.NoColor = t.NoColor

	return cfg
}
