package applications

import (
	"context"

	"brokerage/internal/query"
)

// Store persists applications.
type Store interface {
	Insert(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	Replace(ctx context.Context, app *Application) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]Application, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
}
