// Package queue carries batch work items to the external at-least-once
// message transport.
package queue

import (
	"encoding/json"
	"fmt"
)

// Message is the unit handed to the queue, one per batch. On the wire it is
// a positional JSON array:
//
//	[batch_id, chunk_lines, vector_db_key_or_null, embedding_api_key_or_null]
//
// The two keys are pass-through secrets; they ride the message only and are
// never persisted.
type Message struct {
	BatchID         uint
	Chunk           []string
	VectorDBKey     string
	EmbeddingAPIKey string
}

// MarshalJSON encodes the message as the positional array format. Empty
// keys are encoded as JSON null.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]interface{}{
		m.BatchID,
		m.Chunk,
		nullableString(m.VectorDBKey),
		nullableString(m.EmbeddingAPIKey),
	})
}

// UnmarshalJSON decodes the positional array format. Null keys decode to
// empty strings.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("queue message is not a JSON array: %w", err)
	}
	if len(fields) != 4 {
		return fmt.Errorf("queue message has %d fields, want 4", len(fields))
	}

	if err := json.Unmarshal(fields[0], &m.BatchID); err != nil {
		return fmt.Errorf("invalid batch_id: %w", err)
	}
	if err := json.Unmarshal(fields[1], &m.Chunk); err != nil {
		return fmt.Errorf("invalid chunk: %w", err)
	}
	if err := unmarshalNullable(fields[2], &m.VectorDBKey); err != nil {
		return fmt.Errorf("invalid vector db key: %w", err)
	}
	if err := unmarshalNullable(fields[3], &m.EmbeddingAPIKey); err != nil {
		return fmt.Errorf("invalid embedding api key: %w", err)
	}
	return nil
}

// WithoutSecrets returns a copy of the message safe for durable storage.
func (m Message) WithoutSecrets() Message {
	m.VectorDBKey = ""
	m.EmbeddingAPIKey = ""
	return m
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func unmarshalNullable(raw json.RawMessage, dest *string) error {
	if string(raw) == "null" {
		*dest = ""
		return nil
	}
	return json.Unmarshal(raw, dest)
}
