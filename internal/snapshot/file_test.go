// internal/snapshot/file_test.go
package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStoreRoundtrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("cart", payload{Name: "ada", Count: 3}))

	var got payload
	ok, err := s.Load("cart", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "ada", Count: 3}, got)
}

func TestFileStoreAbsentKey(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var got payload
	ok, err := s.Load("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("cart", payload{Count: 1}))
	require.NoError(t, s.Save("cart", payload{Count: 2}))

	var got payload
	ok, err := s.Load("cart", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Count)
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("cart", payload{Count: 1}))
	require.NoError(t, s.Delete("cart"))
	require.NoError(t, s.Delete("cart"))

	var got payload
	ok, err := s.Load("cart", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
