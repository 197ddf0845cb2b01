package mem

import (
	"context"
	"sync"
	"time"
)

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	Set(ctx context.Context, token string, accountID string, ttl time.Duration) error

	// Consume returns the account id for token if it has not expired and
	// removes the token. It returns "" for a missing or expired token.
	Consume(ctx context.Context, token string) (string, error)
}

type entry struct {
	accountID string
	expiresAt time.Time
}

// ResetTokens is the in-process store used when no Redis address is
// configured. Tokens do not survive a restart.
type ResetTokens struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewResetTokens() *ResetTokens {
	return &ResetTokens{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *ResetTokens) Set(_ context.Context, token string, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.data[token] = entry{
		accountID: accountID,
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *ResetTokens) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return "", nil
	}
	delete(s.data, token)
	if s.now().After(e.expiresAt) {
		return "", nil
	}
	return e.accountID, nil
}

// sweep drops expired tokens. Callers hold mu.
func (s *ResetTokens) sweep(now time.Time) {
	for token, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, token)
		}
	}
}
