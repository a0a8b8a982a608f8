package users

import (
	"context"
	"time"

	"brokerage/internal/query"
)

// Store persists accounts. Implementations return sentinel errors for
// not-found, duplicate-phone and malformed-id conditions; the service
// translates them into domain errors.
type Store interface {
	Insert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*User, error)
	// FindByResetToken matches a hashed reset token whose expiry is after now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	Replace(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p query.Params) ([]User, error)
	Count(ctx context.Context, f query.Filter) (int64, error)
}
