package claims

import (
	"context"

	"brokerage/internal/query"
)

// Store persists claims. claimNumber is unique.
type Store interface {
	Insert(ctx context.Context, claim *Claim) error
	FindByID(ctx context.Context, id string) (*Claim, error)
	Replace(ctx context.Context, claim *Claim) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Claim, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	// LastClaimNumber returns the lexicographically greatest claim number
	// starting with prefix, or "" when none exists. It feeds the monthly
	// sequence generator.
	LastClaimNumber(ctx context.Context, prefix string) (string, error)
}
