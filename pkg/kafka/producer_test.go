package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerMap(t *testing.T, w *fakeWriter) map[string]string {
	t.Helper()
	msgs := w.written()
	require.Len(t, msgs, 1)
	out := make(map[string]string)
	for _, h := range msgs[0].Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestProducer_PublishKeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("review.created", "r-42", "review", "gogo-api", nil)
	require.NoError(t, err)
	event.WithCorrelationID("corr-7")

	require.NoError(t, p.Publish(context.Background(), "gogo.review.created", event))

	msgs := w.written()
	assert.Equal(t, "gogo.review.created", msgs[0].Topic)
	assert.Equal(t, "r-42", string(msgs[0].Key))

	headers := headerMap(t, w)
	assert.Equal(t, "review.created", headers["event_type"])
	assert.Equal(t, "gogo-api", headers["source"])
	assert.Equal(t, "corr-7", headers["correlation_id"])
}

func TestProducer_PublishWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unreachable")}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("tour.created", "t-1", "tour", "gogo-api", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "gogo.tour.created", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gogo.tour.created")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
