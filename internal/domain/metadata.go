package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// EmbeddingsType identifies which embedding provider a downstream worker
// should use for a batch.
type EmbeddingsType string

const (
	EmbeddingsTypeOpenAI      EmbeddingsType = "open_ai"
	EmbeddingsTypeHuggingFace EmbeddingsType = "hugging_face"
)

// VectorDBType identifies which vector store a downstream worker should
// load a batch's embeddings into.
type VectorDBType string

const (
	VectorDBTypePinecone VectorDBType = "pinecone"
	VectorDBTypeWeaviate VectorDBType = "weaviate"
	VectorDBTypeMilvus   VectorDBType = "milvus"
	VectorDBTypeQdrant   VectorDBType = "qdrant"
)

// EmbeddingsMetadata is declared configuration for the downstream embedding
// step. ChunkSize and ChunkOverlap belong to the worker's own windowing and
// are distinct from the line-based lines_per_batch partitioning used here.
type EmbeddingsMetadata struct {
	EmbeddingsType EmbeddingsType `json:"embeddings_type" validate:"required,oneof=open_ai hugging_face"`
	ChunkSize      int            `json:"chunk_size" validate:"required,gt=0"`
	ChunkOverlap   int            `json:"chunk_overlap" validate:"gte=0"`
}

// VectorDBMetadata is declared configuration for the downstream vector
// store load.
type VectorDBMetadata struct {
	VectorDBType VectorDBType `json:"vector_db_type" validate:"required,oneof=pinecone weaviate milvus qdrant"`
	IndexName    string       `json:"index_name" validate:"required"`
	Environment  string       `json:"environment" validate:"required"`
}

// Value implements driver.Valuer so EmbeddingsMetadata is stored as a JSON
// text column.
func (m EmbeddingsMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for EmbeddingsMetadata.
func (m *EmbeddingsMetadata) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Value implements driver.Valuer so VectorDBMetadata is stored as a JSON
// text column.
func (m VectorDBMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for VectorDBMetadata.
func (m *VectorDBMetadata) Scan(value interface{}) error {
	return scanJSON(value, m)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSON column")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, dest)
}
