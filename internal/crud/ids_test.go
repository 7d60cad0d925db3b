package crud

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	first := gen.Generate()
	second := gen.Generate()
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("rec")
	assert.Equal(t, "rec-1", gen.Generate())
	assert.Equal(t, "rec-2", gen.Generate())
	assert.Equal(t, "rec-3", gen.Generate())
}
