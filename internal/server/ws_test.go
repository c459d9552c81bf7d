package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	require.Equal(t, []string{"abc", "de"}, chunks("abcde", 3))
	require.Equal(t, []string{"ab"}, chunks("ab", 3))
	require.Nil(t, chunks("", 3))
}
