package config

import "time"

// Default configuration values for the result sinks.
const (
	DefaultSinksKafkaTopic     = "ering-bench"
	DefaultSinksQuestDBTable   = "ering_bench"
	DefaultSinksRetryMaxTries  = 5
	DefaultSinksRetryMaxElapse = 10 * time.Second
)

// Sinks is the configuration of the sinks the benchmark results are written to.
// The log sink is always enabled, the others are enabled when their address is set.
type Sinks struct {
	// Metrics states whether the results are recorded as OpenTelemetry metrics.
	//
	// Default: false
	Metrics bool `toml:"metrics"`

	// QuestDBAddress is the HTTP address of the QuestDB server.
	//
	// Default: "" (disabled)
	QuestDBAddress string `toml:"questdb_address"`
	// QuestDBTable is the table the results are inserted into.
	//
	// Default: "ering_bench"
	QuestDBTable string `toml:"questdb_table"`

	// KafkaBrokers are the Kafka brokers the results are published to.
	//
	// Default: none (disabled)
	KafkaBrokers []string `toml:"kafka_brokers"`
	// KafkaTopic is the topic the results are published to.
	//
	// Default: "ering-bench"
	KafkaTopic string `toml:"kafka_topic"`

	// SQLitePath is the path of the SQLite database that keeps the results history.
	//
	// Default: "" (disabled)
	SQLitePath string `toml:"sqlite_path"`

	// RetryMaxTries is the maximum number of attempts for writing a result to a sink.
	//
	// Default: 5
	RetryMaxTries int `toml:"retry_max_tries"`
	// RetryMaxElapsed is the maximum time spent retrying a write.
	//
	// Default: 10 seconds
	RetryMaxElapsed time.Duration `toml:"retry_max_elapsed"`
}

// NewSinks returns the default configuration of the sinks.
func NewSinks() *Sinks {
	return &Sinks{
		QuestDBTable:    DefaultSinksQuestDBTable,
		KafkaTopic:      DefaultSinksKafkaTopic,
		RetryMaxTries:   DefaultSinksRetryMaxTries,
		RetryMaxElapsed: DefaultSinksRetryMaxElapse,
	}
}

// Validate checks the configuration.
func (s *Sinks) Validate(ac *AnomalyCollector) {
	CheckNotEmpty(ac, "QuestDBTable", &s.QuestDBTable, DefaultSinksQuestDBTable)
	CheckNotEmpty(ac, "KafkaTopic", &s.KafkaTopic, DefaultSinksKafkaTopic)

	CheckNotNegative(ac, "RetryMaxTries", &s.RetryMaxTries, DefaultSinksRetryMaxTries)
	CheckNotZero(ac, "RetryMaxTries", &s.RetryMaxTries, DefaultSinksRetryMaxTries)

	CheckNotNegative(ac, "RetryMaxElapsed", &s.RetryMaxElapsed, DefaultSinksRetryMaxElapse)
	CheckNotZero(ac, "RetryMaxElapsed", &s.RetryMaxElapsed, DefaultSinksRetryMaxElapse)
}
