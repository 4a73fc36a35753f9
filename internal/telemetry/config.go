package telemetry

import (
	"log/slog"
	"time"
)

// Default values for the telemetry configuration.
const (
	DefaultServiceName    = "ering"
	DefaultServiceVersion = "0.1.0"
	DefaultEndpoint       = "localhost:4317"
	DefaultLogEndpoint    = "localhost:4318"
	DefaultTraceRatio     = 0.05
	DefaultExportInterval = time.Second
)

// Config is the configuration of the telemetry.
type Config struct {
	// Enabled states whether the OpenTelemetry providers are set up.
	//
	// Default: false
	Enabled bool

	// ServiceName is the name of the service in the exported resource.
	//
	// Default: "ering"
	ServiceName string
	// ServiceVersion is the version of the service in the exported resource.
	//
	// Default: "0.1.0"
	ServiceVersion string

	// Endpoint is the gRPC address of the OTLP collector (traces and metrics).
	//
	// Default: "localhost:4317"
	Endpoint string
	// LogEndpoint is the HTTP address of the OTLP collector used for logs.
	//
	// Default: "localhost:4318"
	LogEndpoint string

	// TraceRatio is the sampling ratio of the traces.
	//
	// Default: 0.05
	TraceRatio float64
	// ExportInterval is the interval between two metric exports.
	//
	// Default: 1 second
	ExportInterval time.Duration

	// LogLevel is the minimum level of the logs.
	//
	// Default: info
	LogLevel slog.Level
	// NoColor disables the colored console output.
	// Colors are always disabled when stderr is not a terminal.
	NoColor bool
}

// DefaultConfig returns the default configuration of the telemetry.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: DefaultServiceVersion,
		Endpoint:       DefaultEndpoint,
		LogEndpoint:    DefaultLogEndpoint,
		TraceRatio:     DefaultTraceRatio,
		ExportInterval: DefaultExportInterval,
		LogLevel:       slog.LevelInfo,
	}
}
