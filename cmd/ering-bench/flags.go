package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/config"
	"github.com/FerroO2000/ering/internal/rb"
)

var errWatchWithoutConfig = errors.New("-watch requires -config")

// cliFlags are the command line flags. The flags explicitly set by the user
// override the values of the configuration file.
type cliFlags struct {
	configPath string
	watch      bool

	kinds       string
	capacity    uint
	testSize    int
	warmSize    int
	producerCPU int
	consumerCPU int
	pin         bool
	verify      bool
	rounds      int

	questDB string
	kafka   string
	sqlite  string
	otel    bool

	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("ering-bench", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.configPath, "config", "", "path of the TOML configuration file")
	fs.BoolVar(&f.watch, "watch", false, "run again every time the configuration file is written")

	fs.StringVar(&f.kinds, "kind", "", "comma separated buffer kinds (atomic, padded, cached, masked)")
	fs.UintVar(&f.capacity, "capacity", config.DefaultBenchCapacity, "requested buffer capacity")
	fs.IntVar(&f.testSize, "n", config.DefaultBenchTestSize, "number of items moved in the timed phase")
	fs.IntVar(&f.warmSize, "warm", config.DefaultBenchWarmSize, "number of items moved before the timed phase")
	fs.IntVar(&f.producerCPU, "producer-cpu", config.DefaultBenchProducerCPU, "CPU of the producer")
	fs.IntVar(&f.consumerCPU, "consumer-cpu", config.DefaultBenchConsumerCPU, "CPU of the consumer")
	fs.BoolVar(&f.pin, "pin", config.DefaultBenchPin, "pin the producer and the consumer to their CPU")
	fs.BoolVar(&f.verify, "verify", config.DefaultBenchVerify, "check every received value")
	fs.IntVar(&f.rounds, "rounds", config.DefaultBenchRounds, "number of rounds per kind")

	fs.StringVar(&f.questDB, "questdb", "", "QuestDB HTTP address")
	fs.StringVar(&f.kafka, "kafka", "", "comma separated Kafka brokers")
	fs.StringVar(&f.sqlite, "sqlite", "", "path of the SQLite results database")
	fs.BoolVar(&f.otel, "otel", false, "export logs, metrics and traces to the OTLP collector")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	if f.watch && f.configPath == "" {
		return nil, errWatchWithoutConfig
	}

	return f, nil
}

// loadConfig returns the configuration of the file, or the default one,
// with the flags set by the user applied on top. The returned configuration
// is validated: invalid fields are logged and replaced by their default.
func (f *cliFlags) loadConfig() (*config.Bench, error) {
	cfg := config.NewBench()

	if f.configPath != "" {
		fileCfg, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := f.apply(cfg); err != nil {
		return nil, err
	}

	configValidator := config.NewValidator(internal.NewTelemetry("cmd", "ering-bench"))
	configValidator.Validate(cfg)

	return cfg, nil
}

func (f *cliFlags) apply(cfg *config.Bench) error {
	if f.set["kind"] {
		kinds, err := parseKinds(f.kinds)
		if err != nil {
			return err
		}
		cfg.Kinds = kinds
	}

	if f.set["capacity"] {
		if f.capacity > rb.MaxCapacity {
			return fmt.Errorf("%w: %d", rb.ErrCapacityTooLarge, f.capacity)
		}
		cfg.Capacity = uint32(f.capacity)
	}

	if f.set["n"] {
		cfg.TestSize = f.testSize
	}
	if f.set["warm"] {
		cfg.WarmSize = f.warmSize
	}
	if f.set["producer-cpu"] {
		cfg.ProducerCPU = f.producerCPU
	}
	if f.set["consumer-cpu"] {
		cfg.ConsumerCPU = f.consumerCPU
	}
	if f.set["pin"] {
		cfg.Pin = f.pin
	}
	if f.set["verify"] {
		cfg.Verify = f.verify
	}
	if f.set["rounds"] {
		cfg.Rounds = f.rounds
	}

	if f.set["questdb"] {
		cfg.Sinks.QuestDBAddress = f.questDB
	}
	if f.set["kafka"] {
		cfg.Sinks.KafkaBrokers = splitList(f.kafka)
	}
	if f.set["sqlite"] {
		cfg.Sinks.SQLitePath = f.sqlite
	}
	if f.set["otel"] {
		cfg.Telemetry.Enabled = f.otel
		cfg.Sinks.Metrics = f.otel
	}

	return nil
}

func splitList(list string) []string {
	items := []string{}
	for item := range strings.SplitSeq(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseKinds(list string) ([]rb.BufferKind, error) {
	kinds := []rb.BufferKind{}
	for _, name := range splitList(list) {
		kind, err := rb.ParseBufferKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
