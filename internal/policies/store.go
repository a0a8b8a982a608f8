package policies

import (
	"context"

	"brokerage/internal/query"
)

// Store persists policies. policyNumber is unique.
type Store interface {
	Insert(ctx context.Context, policy *Policy) error
	FindByID(ctx context.Context, id string) (*Policy, error)
	Replace(ctx context.Context, policy *Policy) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Policy, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
}
