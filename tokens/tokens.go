// Package tokens provides short-lived opaque tokens for email verification.
// Tokens live in an in-process ristretto cache with an explicit TTL and are
// handed to callers as an injected dependency, never a package-level global.
package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// DefaultTTL is the verification-token lifetime when none is configured.
const DefaultTTL = time.Minute

// Store issues and resolves verification tokens.
type Store struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewStore builds a token store. ttl <= 0 falls back to DefaultTTL.
func NewStore(ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cache: %w", err)
	}

	return &Store{cache: cache, ttl: ttl}, nil
}

// Issue creates a new token bound to userID.
func (s *Store) Issue(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.cache.SetWithTTL(token, userID, 1, s.ttl)
	// Wait makes the token immediately resolvable; ristretto applies sets
	// asynchronously otherwise.
	s.cache.Wait()

	return token, nil
}

// Resolve returns the user id bound to token, without consuming it.
func (s *Store) Resolve(token string) (string, bool) {
	v, ok := s.cache.Get(token)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok
}

// Consume resolves and invalidates token in one step.
func (s *Store) Consume(token string) (string, bool) {
	userID, ok := s.Resolve(token)
	if !ok {
		return "", false
	}
	s.cache.Del(token)
	return userID, true
}

// TTL reports the configured token lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
