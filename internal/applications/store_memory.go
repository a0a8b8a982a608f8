package applications

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
	mu   sync.RWMutex
	apps map[string]Application
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[string]Application)}
}

func (s *InMemoryStore) Insert(ctx context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	app.CreatedAt = now
	app.UpdatedAt = now
	s.apps[app.ID.Hex()] = *app
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Application, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.apps[id]; ok {
		return &app, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := app.ID.Hex()
	if _, ok := s.apps[key]; !ok {
		return sentinel.ErrNotFound
	}
	app.UpdatedAt = requestcontext.Now(ctx)
	s.apps[key] = *app
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.apps, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[Application](docs, p)
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

func (s *InMemoryStore) all() []Application {
	out := make([]Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	return out
}
