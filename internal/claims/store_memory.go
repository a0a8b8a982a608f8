package claims

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics including the unique
// claim number index.
type InMemoryStore struct {
	mu     sync.RWMutex
	claims map[string]Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{claims: make(map[string]Claim)}
}

func (s *InMemoryStore) Insert(ctx context.Context, claim *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(claim, ""); err != nil {
		return err
	}
	if claim.ID.IsZero() {
		claim.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	claim.CreatedAt = now
	claim.UpdatedAt = now
	s.claims[claim.ID.Hex()] = *claim
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Claim, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if claim, ok := s.claims[id]; ok {
		return &claim, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, claim *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claim.ID.Hex()
	if _, ok := s.claims[key]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkUnique(claim, key); err != nil {
		return err
	}
	claim.UpdatedAt = requestcontext.Now(ctx)
	s.claims[key] = *claim
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.claims, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Claim](docs, p)
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

func (s *InMemoryStore) LastClaimNumber(_ context.Context, prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last := ""
	for _, claim := range s.claims {
		if strings.HasPrefix(claim.ClaimNumber, prefix) && claim.ClaimNumber > last {
			last = claim.ClaimNumber
		}
	}
	return last, nil
}

func (s *InMemoryStore) checkUnique(claim *Claim, selfKey string) error {
	for id, existing := range s.claims {
		if id == selfKey {
			continue
		}
		if claim.ClaimNumber != "" && existing.ClaimNumber == claim.ClaimNumber {
			return sentinel.NewDuplicate("claimNumber")
		}
	}
	return nil
}

func (s *InMemoryStore) all() []Claim {
	out := make([]Claim, 0, len(s.claims))
	for _, claim := range s.claims {
		out = append(out, claim)
	}
	return out
}
