package entitlement

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// memoryStore is a mutex-guarded in-memory Store for tests and local
// development. Every operation that touches shared counters runs under a
// single lock, which makes the atomicity contract trivial to honor.
type memoryStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*User
	transactions map[string]*Transaction
	settings     map[string]AppSetting
	seatCapacity int64
	seatConsumed int64
}

// NewMemoryStore returns an in-memory Store with the given lifetime seat
// capacity.
func NewMemoryStore(seatCapacity int64) Store {
	return &memoryStore{
		users:        make(map[uuid.UUID]*User),
		transactions: make(map[string]*Transaction),
		settings:     make(map[string]AppSetting),
		seatCapacity: seatCapacity,
	}
}

func (s *memoryStore) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *memoryStore) SaveUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *memoryStore) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *memoryStore) CreateTransaction(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		return ErrTransactionExists
	}
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func (s *memoryStore) SetTransactionStatus(_ context.Context, id string, from, to TransactionStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	if tx.Status != from || !CanTransition(from, to) {
		return ErrInvalidTransactionState
	}
	tx.Status = to
	tx.UpdatedAt = now.UTC()
	return nil
}

func (s *memoryStore) ApplyTransaction(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}

	// Idempotent: a retried confirmation of an applied transaction is a
	// success, not an error.
	if tx.Status == TxApplied {
		return nil
	}
	if tx.Status != TxVerified {
		return ErrInvalidTransactionState
	}

	u, ok := s.users[tx.UserID]
	if !ok {
		return ErrUserNotFound
	}

	// Seat check-and-increment is decided under the same lock that flips
	// the transaction, so the pool can never oversell.
	if tx.Tier == plans.TierLifetime {
		if s.seatConsumed >= s.seatCapacity {
			return ErrSeatsExhausted
		}
		s.seatConsumed++
	}

	if tx.Tier.Outranks(u.Plan) {
		u.Plan = tx.Tier
		u.UpdatedAt = now.UTC()
	}

	tx.Status = TxApplied
	tx.UpdatedAt = now.UTC()
	return nil
}

func (s *memoryStore) SyncUsage(_ context.Context, userID uuid.UUID, now time.Time) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	s.rollover(u, now)
	return cloneUser(u), nil
}

func (s *memoryStore) IncrementUsage(_ context.Context, userID uuid.UUID, f plans.Feature, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	s.rollover(u, now)
	u.Usage[f]++
	u.UpdatedAt = now.UTC()
	return nil
}

func (s *memoryStore) rollover(u *User, now time.Time) {
	anchor, rolled := rolloverUsage(u.CycleAnchor, now)
	if rolled {
		u.CycleAnchor = anchor
		u.Usage = make(map[plans.Feature]int64)
		u.UpdatedAt = now.UTC()
	}
}

func (s *memoryStore) RemainingSeats(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.seatCapacity - s.seatConsumed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *memoryStore) Setting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting, ok := s.settings[key]
	if !ok {
		return "", ErrSettingNotFound
	}
	return setting.Value, nil
}

func (s *memoryStore) SetSetting(_ context.Context, key, value string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = AppSetting{Key: key, Value: value, UpdatedAt: now.UTC()}
	return nil
}

func cloneUser(u *User) *User {
	cp := *u
	cp.Usage = maps.Clone(u.Usage)
	if cp.Usage == nil {
		cp.Usage = make(map[plans.Feature]int64)
	}
	return &cp
}
