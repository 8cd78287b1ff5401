package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	store, err := NewStore(time.Minute)
	require.NoError(t, err)

	token, err := store.Issue("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, ok := store.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)

	// Resolve does not consume.
	userID, ok = store.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestConsume(t *testing.T) {
	store, err := NewStore(time.Minute)
	require.NoError(t, err)

	token, err := store.Issue("user-2")
	require.NoError(t, err)

	userID, ok := store.Consume(token)
	assert.True(t, ok)
	assert.Equal(t, "user-2", userID)

	_, ok = store.Consume(token)
	assert.False(t, ok, "token must be single-use")
}

func TestUnknownToken(t *testing.T) {
	store, err := NewStore(time.Minute)
	require.NoError(t, err)

	_, ok := store.Resolve("no-such-token")
	assert.False(t, ok)

	_, ok = store.Consume("no-such-token")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	store, err := NewStore(50 * time.Millisecond)
	require.NoError(t, err)

	token, err := store.Issue("user-3")
	require.NoError(t, err)

	_, ok := store.Resolve(token)
	assert.True(t, ok)

	time.Sleep(150 * time.Millisecond)

	_, ok = store.Resolve(token)
	assert.False(t, ok, "token must expire after its TTL")
}

func TestDefaultTTL(t *testing.T) {
	store, err := NewStore(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, store.TTL())
}

func TestTokensAreUnique(t *testing.T) {
	store, err := NewStore(time.Minute)
	require.NoError(t, err)

	a, err := store.Issue("user-4")
	require.NoError(t, err)
	b, err := store.Issue("user-4")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
