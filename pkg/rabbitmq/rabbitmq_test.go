package rabbitmq_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	body, err := rabbitmq.Encode("product.created", map[string]string{"slug": "bowl-1a2b"}, at)
	require.NoError(t, err)

	var env rabbitmq.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "product.created", env.Type)
	assert.True(t, at.Equal(env.OccurredAt))
	assert.JSONEq(t, `{"slug":"bowl-1a2b"}`, string(env.Data))
}

func TestEncode_UnsupportedPayload(t *testing.T) {
	_, err := rabbitmq.Encode("product.created", make(chan int), time.Now())
	assert.Error(t, err)
}
