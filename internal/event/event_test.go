package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	env, err := New(KindComplianceAlert, map[string]string{"rule": "pii-export"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, KindComplianceAlert, env.Type)
	assert.WithinDuration(t, time.Now(), env.Timestamp, time.Second)
	assert.JSONEq(t, `{"rule":"pii-export"}`, string(env.Payload))
	assert.Nil(t, env.Metadata)
}

func TestNew_UnmarshalablePayload(t *testing.T) {
	_, err := New(KindSystemHealth, make(chan int))
	assert.Error(t, err)
}

func TestParse_AssignsMissingID(t *testing.T) {
	env, err := Parse([]byte(`{"type":"system_health","timestamp":"2026-08-27T10:00:00Z","payload":{}}`))
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID, "envelopes without an id get one assigned")
	assert.Equal(t, KindSystemHealth, env.Type)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{broken`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"id":"x","payload":{}}`))
	assert.Error(t, err, "missing type is rejected")
}

func TestEncodeParseRoundTrip(t *testing.T) {
	env, err := New(KindInferenceResult, []int{1, 2, 3})
	require.NoError(t, err)
	env = env.WithMetadata(Metadata{
		Source:    "inference-worker-4",
		Priority:  PriorityHigh,
		TTLMillis: 5000,
	})

	data, err := env.Encode()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.Type, got.Type)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, PriorityHigh, got.Metadata.Priority)
	assert.Equal(t, int64(5000), got.Metadata.TTLMillis)
	assert.True(t, env.Timestamp.Equal(got.Timestamp))
}
