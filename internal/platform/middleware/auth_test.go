package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"brokerage/pkg/requestcontext"
	"brokerage/pkg/testutil"
)

type fakeValidator struct {
	claims *TokenClaims
	err    error
}

func (f fakeValidator) ValidateToken(string) (*TokenClaims, error) {
	return f.claims, f.err
}

type fakeSubjects struct {
	role string
	err  error
}

func (f fakeSubjects) LoadSubject(context.Context, string) (string, error) {
	return f.role, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAuth(t *testing.T) {
	okValidator := fakeValidator{claims: &TokenClaims{UserID: "u1", Role: "Agent"}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", requestcontext.UserID(r.Context()))
		w.Header().Set("X-Role", requestcontext.UserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing bearer token is rejected", func(t *testing.T) {
		handler := RequireAuth(okValidator, fakeSubjects{role: "Agent"}, discard())(next)
		rr := testutil.DoRequest(handler, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		handler := RequireAuth(fakeValidator{err: errors.New("expired")}, fakeSubjects{}, discard())(next)
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("deleted subject is rejected even with a live token", func(t *testing.T) {
		handler := RequireAuth(okValidator, fakeSubjects{err: errors.New("not found")}, discard())(next)
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("the stored role wins over the token role", func(t *testing.T) {
		handler := RequireAuth(okValidator, fakeSubjects{role: "Manager"}, discard())(next)
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "u1", rr.Header().Get("X-User"))
		assert.Equal(t, "Manager", rr.Header().Get("X-Role"))
	})
}

func TestRequireRoles(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRoles("Admin", "Manager")(next)

	t.Run("allowed role passes", func(t *testing.T) {
		req := testutil.Authenticated(httptest.NewRequest(http.MethodGet, "/api/users", nil), "u1", "Manager")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("any other role is forbidden", func(t *testing.T) {
		req := testutil.Authenticated(httptest.NewRequest(http.MethodGet, "/api/users", nil), "u2", "Agent")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no role at all is forbidden", func(t *testing.T) {
		rr := testutil.DoRequest(handler, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
