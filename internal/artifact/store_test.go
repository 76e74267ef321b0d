package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutModelCollapsesIdenticalUploads(t *testing.T) {
	s := NewStore()
	data := []byte("same bytes")
	id1 := s.PutModel(data, "m1", "first", nil, nil)
	id2 := s.PutModel(data, "m2", "second", nil, nil)

	assert.Equal(t, id1, id2)
	assert.Equal(t, Identifier(data), id1)

	a, ok := s.GetModel(id1)
	require.True(t, ok)
	assert.Equal(t, "m1", a.Name, "first upload wins the display name")
}

func TestDeleteModelIsIdempotent(t *testing.T) {
	s := NewStore()
	s.DeleteModel("unknown-id")
	_, ok := s.GetModel("unknown-id")
	assert.False(t, ok)
}

func TestCheckpointHistoryResetAndResume(t *testing.T) {
	s := NewStore()
	a := s.ResetCheckpointHistory("model-1")
	a.Payload().Append(Checkpoint{Epoch: 0, Bytes: []byte("v0")})

	existing, ok := s.ExistingCheckpointHistory("model-1")
	require.True(t, ok)
	last, ok := existing.Payload().Last()
	require.True(t, ok)
	assert.Equal(t, 0, last.Epoch)

	_, ok = s.ExistingCheckpointHistory("model-unknown")
	assert.False(t, ok)
}
