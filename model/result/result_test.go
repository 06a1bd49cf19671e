package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBufferPrefillsUnset(t *testing.T) {
	b := NewBuffer(2)
	rec, written := b.At(1)
	assert.False(t, written)
	assert.Equal(t, Unset, rec.Outcome)
	assert.Equal(t, Unset, rec.Basis)
	assert.Equal(t, int64(Unset), rec.GoodnessUS)
	assert.Equal(t, Unset, rec.BellLabel)
}

func TestWriteOnce(t *testing.T) {
	b := NewBuffer(3)
	rec := New(1)
	rec.Success = true
	rec.BellLabel = 0
	assert.NoError(t, b.Write(rec))

	_, written := b.At(1)
	assert.True(t, written)
	assert.ErrorIs(t, b.Write(rec), ErrRewrite)
}

func TestWriteOutOfRange(t *testing.T) {
	b := NewBuffer(1)
	assert.ErrorIs(t, b.Write(New(1)), ErrOutOfRange)
	assert.ErrorIs(t, b.Write(New(-1)), ErrOutOfRange)
}

func TestComplete(t *testing.T) {
	b := NewBuffer(3)
	assert.False(t, b.Complete(0, 1))
	assert.NoError(t, b.Write(New(0)))
	assert.NoError(t, b.Write(New(2)))

	assert.True(t, b.Complete(0, 1))
	assert.False(t, b.Complete(0, 3), "gap at pair 1")
	assert.False(t, b.CompleteAll())

	assert.NoError(t, b.Write(New(1)))
	assert.True(t, b.CompleteAll())
	assert.Equal(t, 3, b.WrittenCount())
}

func TestCompleteRejectsBadRange(t *testing.T) {
	b := NewBuffer(2)
	assert.False(t, b.Complete(-1, 1))
	assert.False(t, b.Complete(0, 3))
	assert.False(t, b.Complete(2, 1))
}
