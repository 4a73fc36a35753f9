package config

import (
	"slices"

	"github.com/FerroO2000/ering/internal/rb"
)

// Default configuration values for the benchmark.
const (
	DefaultBenchCapacity    = 1024
	DefaultBenchTestSize    = 100_000_000
	DefaultBenchWarmSize    = 40_000
	DefaultBenchProducerCPU = 0
	DefaultBenchConsumerCPU = 2
	DefaultBenchPin         = true
	DefaultBenchVerify      = false
	DefaultBenchRounds      = 1
)

// DefaultBenchKinds returns the default buffer kinds to benchmark (all of them).
func DefaultBenchKinds() []rb.BufferKind {
	return rb.BufferKinds()
}

// Bench is the configuration of the throughput benchmark.
type Bench struct {
	// Kinds are the buffer kinds to benchmark, in order.
	//
	// Default: all the kinds
	Kinds []rb.BufferKind `toml:"kinds"`

	// Capacity is the requested capacity of the buffers.
	//
	// Default: 1024
	Capacity uint32 `toml:"capacity"`

	// TestSize is the number of items moved during the timed phase.
	//
	// Default: 100_000_000
	TestSize int `toml:"test_size"`
	// WarmSize is the number of items moved before the timed phase.
	//
	// Default: 40_000
	WarmSize int `toml:"warm_size"`

	// Pin states whether the producer and the consumer are pinned to a CPU.
	//
	// Default: true
	Pin bool `toml:"pin"`
	// ProducerCPU is the CPU the producer is pinned to.
	//
	// Default: 0
	ProducerCPU int `toml:"producer_cpu"`
	// ConsumerCPU is the CPU the consumer is pinned to.
	//
	// Default: 2
	ConsumerCPU int `toml:"consumer_cpu"`

	// Verify states whether the consumer checks every received value.
	//
	// Default: false
	Verify bool `toml:"verify"`

	// Rounds is the number of times each kind is benchmarked.
	//
	// Default: 1
	Rounds int `toml:"rounds"`

	// Telemetry is the configuration of the logs, metrics and traces.
	Telemetry *Telemetry `toml:"telemetry"`

	// Sinks is the configuration of the result sinks.
	Sinks *Sinks `toml:"sinks"`
}

// NewBench returns the default configuration of the benchmark.
func NewBench() *Bench {
	return &Bench{
		Kinds:       DefaultBenchKinds(),
		Capacity:    DefaultBenchCapacity,
		TestSize:    DefaultBenchTestSize,
		WarmSize:    DefaultBenchWarmSize,
		Pin:         DefaultBenchPin,
		ProducerCPU: DefaultBenchProducerCPU,
		ConsumerCPU: DefaultBenchConsumerCPU,
		Verify:      DefaultBenchVerify,
		Rounds:      DefaultBenchRounds,
		Telemetry:   NewTelemetry(),
		Sinks:       NewSinks(),
	}
}

// Validate checks the configuration.
func (b *Bench) Validate(ac *AnomalyCollector) {
	CheckEach(ac, "Kinds", &b.Kinds, rb.BufferKind.IsValid, DefaultBenchKinds())
	b.Kinds = slices.Compact(b.Kinds)

	CheckNotZero(ac, "Capacity", &b.Capacity, DefaultBenchCapacity)
	CheckNotGreaterThan(ac, "Capacity", "MaxCapacity", &b.Capacity, rb.MaxCapacity)

	CheckNotNegative(ac, "TestSize", &b.TestSize, DefaultBenchTestSize)
	CheckNotZero(ac, "TestSize", &b.TestSize, DefaultBenchTestSize)
	CheckNotNegative(ac, "WarmSize", &b.WarmSize, DefaultBenchWarmSize)

	CheckNotNegative(ac, "ProducerCPU", &b.ProducerCPU, DefaultBenchProducerCPU)
	CheckNotNegative(ac, "ConsumerCPU", &b.ConsumerCPU, DefaultBenchConsumerCPU)

	CheckNotNegative(ac, "Rounds", &b.Rounds, DefaultBenchRounds)
	CheckNotZero(ac, "Rounds", &b.Rounds, DefaultBenchRounds)

	if b.Telemetry == nil {
		b.Telemetry = NewTelemetry()
	}
	b.Telemetry.Validate(ac)

	if b.Sinks == nil {
		b.Sinks = NewSinks()
	}
	b.Sinks.Validate(ac)
}
