package report

import (
	"context"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
	"github.com/FerroO2000/ering/internal/telemetry"
	"github.com/segmentio/kafka-go"
	"github.com/sugawarayuuta/sonnet"
)

var _ Sink = (*KafkaSink)(nil)

// messageWriter is implemented by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes the results as JSON messages keyed by buffer kind.
type KafkaSink struct {
	tel *internal.Telemetry

	topic  string
	writer messageWriter
}

// NewKafkaSink returns a new Kafka sink that publishes to the given topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	return newKafkaSink(writer, topic)
}

func newKafkaSink(writer messageWriter, topic string) *KafkaSink {
	return &KafkaSink{
		tel: internal.NewTelemetry("report", "kafka"),

		topic:  topic,
		writer: writer,
	}
}

// Name returns the name of the sink.
func (*KafkaSink) Name() string {
	return "kafka"
}

// Write publishes the result.
func (ks *KafkaSink) Write(ctx context.Context, res *bench.Result) error {
	ctx, span := ks.tel.NewTrace(ctx, "publish kafka message")
	defer span.End()

	value, err := sonnet.Marshal(res)
	if err != nil {
		return err
	}

	// Carry the trace within the headers
	headerCarrier := telemetry.NewKafkaHeaderCarrier(nil)
	ks.tel.InjectTrace(ctx, headerCarrier)

	return ks.writer.WriteMessages(ctx, kafka.Message{
		Topic:   ks.topic,
		Key:     []byte(res.Kind.String()),
		Value:   value,
		Headers: headerCarrier.Headers(),
	})
}

// Close closes the writer.
func (ks *KafkaSink) Close(_ context.Context) error {
	return ks.writer.Close()
}
