package indexsync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChunkIDs(t *testing.T) {
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
	}

	chunks := chunkIDs(ids, 2)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	var flattened []uuid.UUID
	for _, c := range chunks {
		flattened = append(flattened, c...)
	}
	assert.Equal(t, ids, flattened)
}

func TestChunkIDsEmpty(t *testing.T) {
	assert.Nil(t, chunkIDs(nil, 10))
}

func TestChunkIDsSingleChunk(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	chunks := chunkIDs(ids, 10)
	assert.Len(t, chunks, 1)
	assert.Equal(t, ids, chunks[0])
}
