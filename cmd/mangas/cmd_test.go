package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	tokens, err := parseTokens([]string{"alice=s3cret", " bob = hunter2 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s3cret": "alice", "hunter2": "bob"}, tokens)

	for _, bad := range []string{"alice", "=s3cret", "alice=", ""} {
		_, err := parseTokens([]string{bad})
		assert.Error(t, err, bad)
	}

	_, err = parseTokens([]string{"alice=same", "bob=same"})
	assert.ErrorContains(t, err, "also used by alice")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "Boku no...", truncateString("Boku no Hero Academia", 10))
	// two cells per rune
	assert.Equal(t, "ワンピース", truncateString("ワンピース", 10))
	assert.Equal(t, "ワ...", truncateString("ワンピースの本", 6))
}
