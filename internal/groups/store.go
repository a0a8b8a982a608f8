package groups

import (
	"context"

	"brokerage/internal/query"
)

// Store persists groups. ForClient backs both the client-side enrichment and
// the group membership reverse lookup.
type Store interface {
	Insert(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id string) (*Group, error)
	Replace(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Group, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
	ForClient(ctx context.Context, clientID string) ([]Group, error)
}
