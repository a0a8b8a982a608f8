package insurers

import (
	"context"

	"brokerage/internal/query"
)

// Store persists insurance companies. code, companyName and the sparse
// phone/email indexes are unique.
type Store interface {
	Insert(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id string) (*Company, error)
	FindByName(ctx context.Context, companyName string) (*Company, error)
	Replace(ctx context.Context, company *Company) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Company, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
}
