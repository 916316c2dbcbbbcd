package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCandidateIndexZeroSkips(t *testing.T) {
	idx, skip, err := resolveCandidateIndex(0, 5)
	require.NoError(t, err)
	assert.True(t, skip)
	assert.Equal(t, 0, idx)
}

func TestResolveCandidateIndexOneIsFirstCluster(t *testing.T) {
	idx, skip, err := resolveCandidateIndex(1, 5)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, 0, idx)
}

func TestResolveCandidateIndexOutOfRange(t *testing.T) {
	_, _, err := resolveCandidateIndex(6, 5)
	assert.Error(t, err)

	_, _, err = resolveCandidateIndex(-1, 5)
	assert.Error(t, err)
}
