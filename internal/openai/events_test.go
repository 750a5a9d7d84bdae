package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeServerEvent(t *testing.T) {
	ev, ok := DecodeServerEvent([]byte(`{"type":"response.audio.delta","delta":"QUJD"}`))
	require.True(t, ok)
	assert.Equal(t, TypeResponseAudioDelta, ev.Type)
	assert.Equal(t, "QUJD", ev.Delta)

	ev, ok = DecodeServerEvent([]byte(`{"type":"session.created","session":{"id":"sess_1"}}`))
	require.True(t, ok)
	assert.Equal(t, "session.created", ev.Type)
	assert.Empty(t, ev.Delta)

	_, ok = DecodeServerEvent([]byte(`not json at all`))
	assert.False(t, ok)

	_, ok = DecodeServerEvent([]byte(`{"delta":"orphan"}`))
	assert.False(t, ok, "frame without a type tag must be skipped")
}

func TestEncodeAudioAppend(t *testing.T) {
	data, err := EncodeAudioAppend("c291bmQ=")
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeAudioAppend, msg["type"])
	assert.Equal(t, "c291bmQ=", msg["audio"])
}
