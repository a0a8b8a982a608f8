package applications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// Service orchestrates application CRUD.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, metrics: m, logger: logger}
}

// Create validates and inserts an application. The email is lowercased and
// the application date defaults to now.
func (s *Service) Create(ctx context.Context, app *Application) (*Application, error) {
	app.applyDefaults(requestcontext.Now(ctx))
	if err := app.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}
	s.metrics.IncrementCreated("application")
	s.logger.InfoContext(ctx, "application created",
		"application_id", app.ID.Hex(),
		"client_email", app.ClientEmail,
		"request_id", requestcontext.RequestID(ctx))
	return app, nil
}

// Page is one page of applications plus the inputs needed to render
// pagination.
type Page struct {
	Applications []Application
	Total        int64
	Params       query.Params
}

// List returns applications matching the raw query string.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: []string{"clientName", "clientEmail"},
		DateRanges: map[string]string{
			"created": "createdAt",
			"applied": "applicationDate",
		},
	})
	apps, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count applications")
	}
	return &Page{Applications: apps, Total: total, Params: p}, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}
	return app, nil
}

// Update merges the patch into the stored application.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Application, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}
	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.applyDefaults(requestcontext.Now(ctx))
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, wrapApplicationErr(err)
	}
	s.logger.InfoContext(ctx, "application updated",
		"application_id", updated.ID.Hex(),
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// Delete removes an application.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapApplicationErr(err)
	}
	s.logger.InfoContext(ctx, "application deleted",
		"application_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

func wrapApplicationErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid application id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
	}
}
