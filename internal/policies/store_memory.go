package policies

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics including the unique
// policy number index.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[string]Policy)}
}

func (s *InMemoryStore) Insert(ctx context.Context, policy *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(policy, ""); err != nil {
		return err
	}
	if policy.ID.IsZero() {
		policy.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	policy.CreatedAt = now
	policy.UpdatedAt = now
	s.policies[policy.ID.Hex()] = *policy
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Policy, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if policy, ok := s.policies[id]; ok {
		return &policy, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, policy *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := policy.ID.Hex()
	if _, ok := s.policies[key]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkUnique(policy, key); err != nil {
		return err
	}
	policy.UpdatedAt = requestcontext.Now(ctx)
	s.policies[key] = *policy
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.policies, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Policy](docs, p)
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

func (s *InMemoryStore) checkUnique(policy *Policy, selfKey string) error {
	for id, existing := range s.policies {
		if id == selfKey {
			continue
		}
		if policy.PolicyNumber != "" && existing.PolicyNumber == policy.PolicyNumber {
			return sentinel.NewDuplicate("policyNumber")
		}
	}
	return nil
}

func (s *InMemoryStore) all() []Policy {
	out := make([]Policy, 0, len(s.policies))
	for _, policy := range s.policies {
		out = append(out, policy)
	}
	return out
}
