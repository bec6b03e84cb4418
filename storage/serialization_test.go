package storage

import (
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "minimal document",
			doc: &core.Document{
				Id:         core.ID(1),
				Filename:   "notes.txt",
				CreatedAt:  now,
				InsertedAt: now,
			},
		},
		{
			name: "document with everything",
			doc: &core.Document{
				Id:         core.ID(2),
				Filename:   "architecture.md",
				Title:      "Architecture Overview",
				Author:     "platform team",
				Type:       "md",
				Category:   "tech-docs",
				Tags:       []string{"design", "reference"},
				CreatedAt:  now.Add(-24 * time.Hour),
				InsertedAt: now,
				Indexed:    true,
				ChunkCount: 12,
			},
		},
		{
			name: "unicode metadata",
			doc: &core.Document{
				Id:         core.ID(3),
				Filename:   "日誌.txt",
				Title:      "résumé ✓",
				CreatedAt:  now,
				InsertedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			assert.Equal(t, tt.doc, decoded)
		})
	}
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	chunk := &core.Chunk{
		Id:         core.ChunkIdentity(7, "hybrid search combines vector and keyword retrieval"),
		DocumentId: core.ID(7),
		Seq:        3,
		Text:       "hybrid search combines vector and keyword retrieval",
		Vector:     []float32{0.1, -0.2, 0.3, 0.4},
		Metadata:   map[string]string{"section": "overview", "page": "2"},
		CreatedAt:  now,
	}

	data := MarshalChunk(chunk)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestMarshalChunk_Deterministic(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := &core.Chunk{
		Id:         1,
		DocumentId: 2,
		Text:       "same bytes every time",
		Metadata:   map[string]string{"b": "2", "a": "1", "c": "3"},
		CreatedAt:  now,
	}

	// Map encoding is key-sorted, so repeated marshals are byte-identical.
	first := MarshalChunk(chunk)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, MarshalChunk(chunk))
	}
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	chunk := &core.Chunk{
		Id:         1,
		DocumentId: 2,
		Text:       "will be cut short",
		Vector:     []float32{0.5, 0.6},
		CreatedAt:  time.Now().UTC(),
	}

	data := MarshalChunk(chunk)
	_, err := UnmarshalChunk(data[:len(data)/2])
	assert.Error(t, err)
}
