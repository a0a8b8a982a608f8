package clients

import (
	"context"

	"brokerage/internal/query"
)

// Store persists client records. The clientCode and phoneNumber unique
// indexes surface as sentinel duplicates carrying the violated field.
type Store interface {
	Insert(ctx context.Context, client *Client) error
	FindByID(ctx context.Context, id string) (*Client, error)
	Replace(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Client, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
}
