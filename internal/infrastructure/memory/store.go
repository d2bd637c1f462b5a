package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auth-api-nosql/internal/domain"
)

// Store is the in-memory reference credential store. It backs local
// development (STORE_BACKEND=memory) and the engine's flow tests. A single
// RWMutex covers both maps; Insert is atomic with respect to the email
// uniqueness check, which is the only multi-step invariant the store owns.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]domain.Account      // keyed by normalized email
	verifications map[string]domain.Verification // keyed by accountID+"/"+channel
}

func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]domain.Account),
		verifications: make(map[string]domain.Verification),
	}
}

func (s *Store) Insert(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.Email]; exists {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	s.accounts[a.Email] = *a
	return nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) GetByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.AccountID == accountID {
			a := a
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
}

// Update applies a partial field map to the account stored under email.
// Only the fields the engine actually updates are recognised.
func (s *Store) Update(_ context.Context, email string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case "verified":
			a.Verified = v.(bool)
		case "secret_digest":
			a.SecretDigest = v.(string)
		case "phone":
			phone := v.(string)
			a.Phone = &phone
		case "updated_at":
			// set below for every update
		default:
			return fmt.Errorf("unknown field %q: %w", k, domain.ErrBadRequest)
		}
	}
	a.UpdatedAt = time.Now().UTC()
	s.accounts[email] = a
	return nil
}

func (s *Store) Put(_ context.Context, v *domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[verKey(v.AccountID, v.Channel)] = *v
	return nil
}

func (s *Store) Get(_ context.Context, accountID, channel string) (*domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[verKey(accountID, channel)]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	// Expired records are logically absent, matching the DynamoDB TTL store.
	if v.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("verification expired: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (s *Store) Delete(_ context.Context, accountID, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verifications, verKey(accountID, channel))
	return nil
}

func verKey(accountID, channel string) string {
	return accountID + "/" + channel
}
