package risknotes

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brokerage/internal/query"
)

// Store persists risk notes. policyNumber is unique.
type Store interface {
	Insert(ctx context.Context, note *RiskNote) error
	FindByID(ctx context.Context, id string) (*RiskNote, error)
	Replace(ctx context.Context, note *RiskNote) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]RiskNote, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	// ForClient returns every risk note held by one client, unpaginated;
	// it backs client enrichment.
	ForClient(ctx context.Context, clientID string) ([]RiskNote, error)
	// DistinctClientsByCategory backs the cross-entity policyType filter on
	// client lists.
	DistinctClientsByCategory(ctx context.Context, category string) ([]primitive.ObjectID, error)
	// IDsByPolicyNumber returns the ids of every note whose PN number
	// contains the term, case-insensitively and unpaginated; it backs the
	// policyNumber filter on claim lists.
	IDsByPolicyNumber(ctx context.Context, term string) ([]primitive.ObjectID, error)
}
