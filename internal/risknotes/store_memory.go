package risknotes

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
// policy number index.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[string]RiskNote
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notes: make(map[string]RiskNote)}
}

func (s *InMemoryStore) Insert(ctx context.Context, note *RiskNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(note, ""); err != nil {
		return err
	}
	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	note.CreatedAt = now
	note.UpdatedAt = now
	s.notes[note.ID.Hex()] = *note
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*RiskNote, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if note, ok := s.notes[id]; ok {
		return &note, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Replace(ctx context.Context, note *RiskNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := note.ID.Hex()
	if _, ok := s.notes[key]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkUnique(note, key); err != nil {
		return err
	}
	note.UpdatedAt = requestcontext.Now(ctx)
	s.notes[key] = *note
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return sentinel.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, p query.Params) ([]RiskNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, err := query.MatchingDocs(s.all(), p.Filter)
	if err != nil {
		return nil, err
	}
	return query.DecodePage[RiskNote](docs, p)
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

func (s *InMemoryStore) ForClient(_ context.Context, clientID string) ([]RiskNote, error) {
	oid, err := primitive.ObjectIDFromHex(clientID)
	if err != nil {
		return nil, sentinel.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []RiskNote{}
	for _, note := range s.notes {
		if note.ClientID == oid {
			out = append(out, note)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DistinctClientsByCategory(_ context.Context, category string) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, note := range s.notes {
		if note.PolicyCategory == category && !seen[note.ClientID] {
			seen[note.ClientID] = true
			ids = append(ids, note.ClientID)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) IDsByPolicyNumber(_ context.Context, term string) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term = strings.ToLower(term)
	ids := []primitive.ObjectID{}
	for _, note := range s.notes {
		if strings.Contains(strings.ToLower(note.PolicyNumber), term) {
			ids = append(ids, note.ID)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) checkUnique(note *RiskNote, selfKey string) error {
	for id, existing := range s.notes {
		if id == selfKey {
			continue
		}
		if note.PolicyNumber != "" && existing.PolicyNumber == note.PolicyNumber {
			return sentinel.NewDuplicate("policyNumber")
		}
	}
	return nil
}

func (s *InMemoryStore) all() []RiskNote {
	out := make([]RiskNote, 0, len(s.notes))
	for _, note := range s.notes {
		out = append(out, note)
	}
	return out
}
