package groups

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics.
type InMemoryStore struct {
	mu     sync.RWMutex
	groups map[string]Group
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{groups: make(map[string]Group)}
}

func (s *InMemoryStore) Insert(ctx context.Context, group *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if group.GroupCode != "" && existing.GroupCode == group.GroupCode {
			return sentinel.NewDuplicate("groupCode")
		}
	}
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	if group.Members == nil {
		group.Members = []Member{}
	}
	now := requestcontext.Now(ctx)
	group.CreatedAt = now
	group.UpdatedAt = now
	s.groups[group.ID.Hex()] = *group
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Group, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if group, ok := s.groups[id]; ok {
		return &group, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, group *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := group.ID.Hex()
	if _, ok := s.groups[key]; !ok {
		return sentinel.ErrNotFound
	}
	group.UpdatedAt = requestcontext.Now(ctx)
	s.groups[key] = *group
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Group](docs, p)
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

func (s *InMemoryStore) ForClient(_ context.Context, clientID string) ([]Group, error) {
	if _, err := primitive.ObjectIDFromHex(clientID); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := []Group{}
	for _, group := range s.groups {
		if group.HasMember(clientID) {
			matches = append(matches, group)
		}
	}
	return matches, nil
}

func (s *InMemoryStore) all() []Group {
	out := make([]Group, 0, len(s.groups))
	for _, group := range s.groups {
		out = append(out, group)
	}
	return out
}
