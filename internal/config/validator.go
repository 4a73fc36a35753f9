package config

import (
	"github.com/FerroO2000/ering/internal"
)

// Validator is an utility struct for validating a configuration.
type Validator struct {
	tel *internal.Telemetry
}

// NewValidator returns a new validator.
func NewValidator(tel *internal.Telemetry) *Validator {
	return &Validator{
		tel: tel,
	}
}

// Validate validates the given configuration. Each anomaly is logged
// as a warning and the number of anomalies is returned.
func (m *Validator) Validate(config Config) int {
	anomalyCollector := newAnomalyCollector()

	config.Validate(anomalyCollector)

	for anomaly := range anomalyCollector.iter() {
		m.handleAnomaly(anomaly)
	}

	return anomalyCollector.Len()
}

func (m *Validator) handleAnomaly(an *anomaly) {
	m.tel.LogWarn("config anomaly",
		"field", an.field, "reason", an.reason,
		"actual", an.actual, "fallback", an.fallback)
}
