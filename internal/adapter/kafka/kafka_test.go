package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/homefit-engine/internal/config"
	"github.com/couchcryptid/homefit-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	result := domain.ScoreResult{
		BasicScore:        85,
		PersonalizedScore: 48,
		IsPersonalized:    true,
		Recap:             "A solid home.",
		Diagnostics:       domain.Diagnostics{RequestID: "req-1"},
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"basicScore":85`)
	assert.Contains(t, string(msg.Value), `"personalizedScore":48`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "request_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("req-1"), msg.Headers[0].Value)
	assert.Equal(t, "personalized", msg.Headers[1].Key)
	assert.Equal(t, []byte("true"), msg.Headers[1].Value)

	var decoded domain.ScoreResult
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "A solid home.", decoded.Recap)
}

func TestSerializeToMessage_NotPersonalized(t *testing.T) {
	msg, err := serializeToMessage(domain.ScoreResult{BasicScore: 70, PersonalizedScore: 70})
	require.NoError(t, err)
	assert.Equal(t, []byte("false"), msg.Headers[1].Value)
}

func TestNewResultWriter(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:     []string{"localhost:9092"},
		KafkaResultTopic: "listing-assessments",
	}
	w := NewResultWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "listing-assessments", w.writer.Topic)
}
