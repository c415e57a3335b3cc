package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallerIdentity(t *testing.T) {
	t.Run("explicit flag wins", func(t *testing.T) {
		t.Setenv("USER", "alice")
		assert.Equal(t, "scripted", callerIdentity("scripted"))
	})

	t.Run("falls back to USER", func(t *testing.T) {
		t.Setenv("USER", "alice")
		assert.Equal(t, "alice", callerIdentity(""))
	})

	t.Run("falls back to cli when USER unset", func(t *testing.T) {
		t.Setenv("USER", "")
		assert.Equal(t, "cli", callerIdentity(""))
	})
}

func TestParseCharacterID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		id, err := parseCharacterID("42")
		assert.NoError(t, err)
		assert.Equal(t, uint64(42), id)
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := parseCharacterID("-1")
		assert.Error(t, err)
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := parseCharacterID("alice")
		assert.Error(t, err)
	})
}

func TestFormatCharacterCount(t *testing.T) {
	assert.Equal(t, "1 peer", formatCharacterCount(1))
	assert.Equal(t, "2 peers", formatCharacterCount(2))
	assert.Equal(t, "0 peers", formatCharacterCount(0))
}
