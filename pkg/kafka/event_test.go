package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Fields(t *testing.T) {
	type reviewCreated struct {
		ReviewID string `json:"review_id"`
		TourID   string `json:"tour_id"`
	}
	data := reviewCreated{ReviewID: "r-1", TourID: "t-1"}

	event, err := NewEvent("review.created", "r-1", "review", "gogo-api", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, "r-1", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got reviewCreated
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("tour.created", "t-1", "tour", "gogo-api", make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalEvent_RoundTrip(t *testing.T) {
	original, err := NewEvent("tour.deleted", "t-9", "tour", "gogo-api", map[string]string{"slug": "ha-long"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-1").WithMetadata("actor", "admin")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, "admin", restored.Metadata["actor"])
	assert.JSONEq(t, string(original.Data), string(restored.Data))
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"e-1"}`))
	assert.Error(t, err, "envelope without event_type")
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "gogo.review.reconcile", Topic("review", "reconcile"))
	assert.Equal(t, "gogo.dlq.gogo.review.reconcile", DLQTopic(Topic("review", "reconcile")))
}
