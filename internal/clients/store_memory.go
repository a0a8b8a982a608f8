package clients

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// InMemoryStore mirrors the Mongo store's semantics including both unique
// indexes.
type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{clients: make(map[string]Client)}
}

func (s *InMemoryStore) Insert(ctx context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(client, ""); err != nil {
		return err
	}
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	client.CreatedAt = now
	client.UpdatedAt = now
	s.clients[client.ID.Hex()] = *client
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Client, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if client, ok := s.clients[id]; ok {
		return &client, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := client.ID.Hex()
	if _, ok := s.clients[key]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkUnique(client, key); err != nil {
		return err
	}
	client.UpdatedAt = requestcontext.Now(ctx)
	s.clients[key] = *client
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Client](docs, p)
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

func (s *InMemoryStore) checkUnique(client *Client, selfKey string) error {
	for id, existing := range s.clients {
		if id == selfKey {
			continue
		}
		if client.ClientCode != "" && existing.ClientCode == client.ClientCode {
			return sentinel.NewDuplicate("clientCode")
		}
		if client.PhoneNumber != "" && existing.PhoneNumber == client.PhoneNumber {
			return sentinel.NewDuplicate("phoneNumber")
		}
	}
	return nil
}

func (s *InMemoryStore) all() []Client {
	out := make([]Client, 0, len(s.clients))
	for _, client := range s.clients {
		out = append(out, client)
	}
	return out
}
