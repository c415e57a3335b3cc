package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/pkg/ledger"
)

func setupClient(t *testing.T) *ledger.Client {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := ledger.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func journalEventWithID(t *testing.T, client *ledger.Client, id string) {
	t.Helper()
	ctx := context.Background()

	evt := &ledger.Event{
		ID:          id,
		Kind:        ledger.EventQuantumInitialized,
		CharacterID: 1,
		Caller:      "cli",
		EmittedAtMs: time.Now().UnixMilli(),
	}
	err := client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		return client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.DigestKey(client.InstanceName()))
	require.NoError(t, err)
}

func TestResolveEventID(t *testing.T) {
	ctx := context.Background()

	t.Run("full UUID resolves to itself", func(t *testing.T) {
		client := setupClient(t)
		journalEventWithID(t, client, "550e8400-e29b-41d4-a716-446655440000")

		id, err := ResolveEventID(ctx, client, "550e8400-e29b-41d4-a716-446655440000")
		require.NoError(t, err)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id)
	})

	t.Run("full UUID that does not exist", func(t *testing.T) {
		client := setupClient(t)

		_, err := ResolveEventID(ctx, client, "550e8400-e29b-41d4-a716-446655440000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event not found")
	})

	t.Run("short prefix resolves unique match", func(t *testing.T) {
		client := setupClient(t)
		journalEventWithID(t, client, "550e8400-e29b-41d4-a716-446655440000")
		journalEventWithID(t, client, "661f9511-f3ac-52e5-b827-557766551111")

		id, err := ResolveEventID(ctx, client, "550e84")
		require.NoError(t, err)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id)
	})

	t.Run("prefix below minimum length", func(t *testing.T) {
		client := setupClient(t)

		_, err := ResolveEventID(ctx, client, "550e8")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "short ID must be at least 6 characters (got 5)")
	})

	t.Run("prefix with no matches", func(t *testing.T) {
		client := setupClient(t)
		journalEventWithID(t, client, "550e8400-e29b-41d4-a716-446655440000")

		_, err := ResolveEventID(ctx, client, "999999")
		require.Error(t, err)
		assert.True(t, IsNotFoundError(err))
		assert.Contains(t, err.Error(), "no events found matching '999999'")
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		client := setupClient(t)
		journalEventWithID(t, client, "550e8400-e29b-41d4-a716-446655440000")
		journalEventWithID(t, client, "550e8400-aaaa-bbbb-cccc-446655442222")

		_, err := ResolveEventID(ctx, client, "550e84")
		require.Error(t, err)
		assert.True(t, IsAmbiguousError(err))

		var ambiguous *AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		assert.Len(t, ambiguous.Matches, 2)
	})
}

func TestFormatAmbiguousError(t *testing.T) {
	t.Run("lists all matches when few", func(t *testing.T) {
		err := &AmbiguousError{
			ShortID: "550e84",
			Matches: []string{"550e8400-1111", "550e8400-2222"},
		}

		msg := FormatAmbiguousError(err)
		assert.Contains(t, msg, "ambiguous short ID '550e84' matches 2 events")
		assert.Contains(t, msg, "550e8400-1111")
		assert.Contains(t, msg, "550e8400-2222")
		assert.Contains(t, msg, "Use a longer prefix to uniquely identify the event.")
		assert.NotContains(t, msg, "more")
	})

	t.Run("caps listing at ten matches", func(t *testing.T) {
		matches := make([]string, 13)
		for i := range matches {
			matches[i] = "550e8400-match"
		}
		err := &AmbiguousError{ShortID: "550e84", Matches: matches}

		msg := FormatAmbiguousError(err)
		assert.Contains(t, msg, "matches 13 events")
		assert.Contains(t, msg, "...and 3 more")
	})
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(&NotFoundError{ShortID: "x"}))
	assert.False(t, IsNotFoundError(assert.AnError))
	assert.False(t, IsNotFoundError(nil))
}
