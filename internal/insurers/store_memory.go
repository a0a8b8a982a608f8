package insurers

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics including the unique and
// sparse unique indexes.
type InMemoryStore struct {
	mu        sync.RWMutex
	companies map[string]Company
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{companies: make(map[string]Company)}
}

func (s *InMemoryStore) Insert(ctx context.Context, company *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(company, ""); err != nil {
		return err
	}
	if company.ID.IsZero() {
		company.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	company.CreatedAt = now
	company.UpdatedAt = now
	s.companies[company.ID.Hex()] = *company
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Company, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if company, ok := s.companies[id]; ok {
		return &company, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByName(_ context.Context, companyName string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, company := range s.companies {
		if company.CompanyName == companyName {
			return &company, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, company *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := company.ID.Hex()
	if _, ok := s.companies[key]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkUnique(company, key); err != nil {
		return err
	}
	company.UpdatedAt = requestcontext.Now(ctx)
	s.companies[key] = *company
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Company](docs, p)
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

func (s *InMemoryStore) checkUnique(company *Company, selfKey string) error {
	for id, existing := range s.companies {
		if id == selfKey {
			continue
		}
		if company.Code != "" && existing.Code == company.Code {
			return sentinel.NewDuplicate("code")
		}
		if existing.CompanyName == company.CompanyName {
			return sentinel.NewDuplicate("companyName")
		}
		if company.PhoneNumber != "" && existing.PhoneNumber == company.PhoneNumber {
			return sentinel.NewDuplicate("phoneNumber")
		}
		if company.Email != "" && existing.Email == company.Email {
			return sentinel.NewDuplicate("email")
		}
	}
	return nil
}

func (s *InMemoryStore) all() []Company {
	out := make([]Company, 0, len(s.companies))
	for _, company := range s.companies {
		out = append(out, company)
	}
	return out
}
