package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brokerage/internal/applications"
	"brokerage/internal/claims"
	"brokerage/internal/clients"
	"brokerage/internal/groups"
	"brokerage/internal/insurers"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/platform/middleware"
	"brokerage/internal/policies"
	"brokerage/internal/risknotes"
	"brokerage/internal/users"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handlers collects the per-entity HTTP handlers the router mounts.
type Handlers struct {
	Users        *users.Handler
	Clients      *clients.Handler
	Groups       *groups.Handler
	Insurers     *insurers.Handler
	Policies     *policies.Handler
	RiskNotes    *risknotes.Handler
	Claims       *claims.Handler
	Applications *applications.Handler
}

// RouterConfig carries everything the router needs beyond the handlers.
type RouterConfig struct {
	Handlers Handlers
	Tokens   middleware.TokenValidator
	Subjects middleware.SubjectLoader
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Timeout  time.Duration
	// Health reports backend liveness for /healthz.
	Health func(ctx context.Context) error
}

// route is one protected route declaration. A nil role set admits any
// authenticated role; a non-empty set narrows further. There is no "public"
// marker here: routes outside the explicit public block simply do not exist
// without a valid token.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
	roles   []string
}

// NewRouter assembles the full HTTP surface. All access control is declared
// in one table below rather than sprinkled through handler registration, so
// a route missing from the table is a route nobody can reach.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req.Context()); err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "datastore unreachable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := cfg.Handlers
	r.Route("/api", func(api chi.Router) {
		// Public authentication surface. Everything else requires a token.
		api.Post("/auth/login", h.Users.Login)
		api.Post("/auth/registeradmin", h.Users.RegisterAdmin)
		api.Post("/auth/forgotpassword", h.Users.ForgotPassword)
		api.Put("/auth/resetpassword/{resettoken}", h.Users.ResetPassword)

		api.Group(func(private chi.Router) {
			private.Use(middleware.RequireAuth(cfg.Tokens, cfg.Subjects, cfg.Logger))
			for _, rt := range protectedRoutes(h) {
				var handler http.Handler = rt.handler
				if len(rt.roles) > 0 {
					handler = middleware.RequireRoles(rt.roles...)(handler)
				}
				private.Method(rt.method, rt.pattern, handler)
			}
		})
	})

	return r
}

func protectedRoutes(h Handlers) []route {
	staff := []string{string(users.RoleAdmin), string(users.RoleManager)}

	return []route{
		// Account self-service and staff-managed accounts.
		{http.MethodGet, "/auth/me", h.Users.Me, nil},
		{http.MethodPut, "/auth/updateprofile", h.Users.UpdateProfile, nil},
		{http.MethodPost, "/auth/register", h.Users.Register, staff},
		{http.MethodGet, "/users", h.Users.List, staff},
		{http.MethodGet, "/users/{id}", h.Users.Get, staff},
		{http.MethodPut, "/users/{id}", h.Users.Update, staff},
		{http.MethodDelete, "/users/{id}", h.Users.Delete, staff},

		// Clients.
		{http.MethodPost, "/clients", h.Clients.Create, nil},
		{http.MethodGet, "/clients", h.Clients.List, nil},
		{http.MethodGet, "/clients/type/{type}", h.Clients.ByType, nil},
		{http.MethodGet, "/clients/{id}", h.Clients.Get, nil},
		{http.MethodPut, "/clients/{id}", h.Clients.Update, nil},
		{http.MethodDelete, "/clients/{id}", h.Clients.Delete, nil},
		{http.MethodPost, "/clients/{id}/kyc", h.Clients.UploadKYC, nil},
		{http.MethodGet, "/clients/{id}/policies", h.Policies.ByClient, nil},

		// Groups.
		{http.MethodPost, "/groups", h.Groups.Create, nil},
		{http.MethodGet, "/groups", h.Groups.List, nil},
		{http.MethodGet, "/groups/{id}", h.Groups.Get, nil},
		{http.MethodPut, "/groups/{id}", h.Groups.Update, nil},
		{http.MethodDelete, "/groups/{id}", h.Groups.Delete, nil},
		{http.MethodPost, "/groups/{id}/members", h.Groups.AddMember, nil},
		{http.MethodDelete, "/groups/{id}/members/{clientId}", h.Groups.RemoveMember, nil},
		{http.MethodGet, "/groups/{id}/policies", h.Policies.ByGroup, nil},

		// Insurance companies.
		{http.MethodPost, "/insurance-companies", h.Insurers.Create, nil},
		{http.MethodGet, "/insurance-companies", h.Insurers.List, nil},
		{http.MethodGet, "/insurance-companies/{id}", h.Insurers.Get, nil},
		{http.MethodPut, "/insurance-companies/{id}", h.Insurers.Update, nil},
		{http.MethodDelete, "/insurance-companies/{id}", h.Insurers.Delete, nil},
		{http.MethodPost, "/insurance-companies/{id}/kyc", h.Insurers.UploadKYC, nil},

		// Policies.
		{http.MethodPost, "/policies", h.Policies.Create, nil},
		{http.MethodGet, "/policies", h.Policies.List, nil},
		{http.MethodGet, "/policies/{id}", h.Policies.Get, nil},
		{http.MethodPut, "/policies/{id}", h.Policies.Update, nil},
		{http.MethodDelete, "/policies/{id}", h.Policies.Delete, nil},
		{http.MethodPut, "/policies/{id}/renew", h.Policies.Renew, nil},

		// Risk notes.
		{http.MethodPost, "/risk-notes", h.RiskNotes.Create, nil},
		{http.MethodGet, "/risk-notes", h.RiskNotes.List, nil},
		{http.MethodGet, "/risk-notes/client/{clientId}", h.RiskNotes.ByClient, nil},
		{http.MethodGet, "/risk-notes/insurance-company/{id}", h.RiskNotes.ByCompany, nil},
		{http.MethodGet, "/risk-notes/{id}", h.RiskNotes.Get, nil},
		{http.MethodPut, "/risk-notes/{id}", h.RiskNotes.Update, nil},
		{http.MethodDelete, "/risk-notes/{id}", h.RiskNotes.Delete, nil},

		// Claim policies.
		{http.MethodPost, "/claim-policies", h.Claims.Create, nil},
		{http.MethodGet, "/claim-policies", h.Claims.List, nil},
		{http.MethodGet, "/claim-policies/{id}", h.Claims.Get, nil},
		{http.MethodPut, "/claim-policies/{id}", h.Claims.Update, nil},
		{http.MethodPatch, "/claim-policies/{id}/status", h.Claims.UpdateStatus, nil},
		{http.MethodDelete, "/claim-policies/{id}", h.Claims.Delete, nil},

		// Applications.
		{http.MethodPost, "/applications", h.Applications.Create, nil},
		{http.MethodGet, "/applications", h.Applications.List, nil},
		{http.MethodGet, "/applications/{id}", h.Applications.Get, nil},
		{http.MethodPut, "/applications/{id}", h.Applications.Update, nil},
		{http.MethodDelete, "/applications/{id}", h.Applications.Delete, nil},
	}
}
