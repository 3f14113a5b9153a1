package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := map[string]any{"phone": "5511999999999", "text": map[string]any{"message": "oi"}}

	env := NewEnvelope(EventInboundWhatsApp, payload)

	assert.NotEmpty(t, env.Meta.ID)
	assert.Equal(t, EventInboundWhatsApp, env.Meta.EventType)
	assert.WithinDuration(t, time.Now(), env.Meta.OccurredAt, time.Minute)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "meta")
	assert.Equal(t, "5511999999999", decoded["data"].(map[string]any)["phone"])
}

func TestNewEnvelope_UniqueIDs(t *testing.T) {
	a := NewEnvelope(EventInboundWhatsApp, nil)
	b := NewEnvelope(EventInboundWhatsApp, nil)

	assert.NotEqual(t, a.Meta.ID, b.Meta.ID)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, maxDialDelay, backoff(time.Second, 10))
}
