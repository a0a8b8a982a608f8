package users

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics, including the unique
// phone index. Entities round-trip through bson for listing so filters see
// the stored document shape.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

func (s *InMemoryStore) Insert(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.PhoneNumber == user.PhoneNumber {
			return sentinel.NewDuplicate("phoneNumber")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID.Hex()] = *user
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByPhone(_ context.Context, phoneNumber string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.PhoneNumber == phoneNumber {
			return &user, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ResetPasswordToken == tokenHash && user.ResetPasswordExpire.After(now) {
			return &user, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := user.ID.Hex()
	if _, ok := s.users[key]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.users {
		if id != key && existing.PhoneNumber == user.PhoneNumber {
			return sentinel.NewDuplicate("phoneNumber")
		}
	}
	user.UpdatedAt = requestcontext.Now(ctx)
	s.users[key] = *user
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[User](docs, p)
}

func (s *InMemoryStore) Count(_ context.Context, f query.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), f)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *InMemoryStore) all() []User {
	out := make([]User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out
}
