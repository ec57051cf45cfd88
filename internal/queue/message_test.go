package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
	}{
		{
			name: "all fields set",
			msg: Message{
				BatchID:         42,
				Chunk:           []string{"line one", "line two", ""},
				VectorDBKey:     "pc-key",
				EmbeddingAPIKey: "oa-key",
			},
		},
		{
			name: "absent keys",
			msg: Message{
				BatchID: 7,
				Chunk:   []string{"only"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := json.Marshal(tc.msg)
			require.NoError(t, err)

			var got Message
			require.NoError(t, json.Unmarshal(payload, &got))

			assert.Equal(t, tc.msg.BatchID, got.BatchID)
			assert.Equal(t, tc.msg.Chunk, got.Chunk)
			assert.Equal(t, tc.msg.VectorDBKey, got.VectorDBKey)
			assert.Equal(t, tc.msg.EmbeddingAPIKey, got.EmbeddingAPIKey)
		})
	}
}

func TestMessageWireFormat(t *testing.T) {
	msg := Message{
		BatchID:     3,
		Chunk:       []string{"a", "b"},
		VectorDBKey: "k",
	}

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `[3, ["a", "b"], "k", null]`, string(payload))
}

func TestMessageDecodesNullKeys(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`[9, ["x"], null, null]`), &msg))

	assert.Equal(t, uint(9), msg.BatchID)
	assert.Equal(t, []string{"x"}, msg.Chunk)
	assert.Empty(t, msg.VectorDBKey)
	assert.Empty(t, msg.EmbeddingAPIKey)
}

func TestMessageRejectsMalformedPayloads(t *testing.T) {
	for _, payload := range []string{
		`{"batch_id": 1}`,
		`[1, ["a"]]`,
		`[1, ["a"], null, null, "extra"]`,
		`["one", ["a"], null, null]`,
	} {
		var msg Message
		assert.Error(t, json.Unmarshal([]byte(payload), &msg), "payload %s", payload)
	}
}

func TestWithoutSecrets(t *testing.T) {
	msg := Message{BatchID: 1, Chunk: []string{"a"}, VectorDBKey: "v", EmbeddingAPIKey: "e"}
	stripped := msg.WithoutSecrets()

	assert.Empty(t, stripped.VectorDBKey)
	assert.Empty(t, stripped.EmbeddingAPIKey)
	assert.Equal(t, msg.BatchID, stripped.BatchID)
	assert.Equal(t, msg.Chunk, stripped.Chunk)
}
