package testutil

import (
	"net/http"

	"brokerage/pkg/requestcontext"
)

// Authenticated attaches a subject to the request context, simulating what
// the auth middleware does after validating a bearer token.
func Authenticated(req *http.Request, userID, role string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithUserRole(ctx, role)
	return req.WithContext(ctx)
}
