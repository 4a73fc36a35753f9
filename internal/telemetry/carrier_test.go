package telemetry

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func Test_KafkaHeaderCarrier(t *testing.T) {
	assert := assert.New(t)

	carrier := NewKafkaHeaderCarrier([]kafka.Header{{Key: "kind", Value: []byte("masked")}})

	assert.Equal("masked", carrier.Get("kind"))
	assert.Empty(carrier.Get("traceparent"))

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("kind", "cached")

	assert.Equal("00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal("cached", carrier.Get("kind"))
	assert.Equal([]string{"kind", "traceparent"}, carrier.Keys())
	assert.Len(carrier.Headers(), 2)
}
