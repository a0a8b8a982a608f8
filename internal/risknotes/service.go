package risknotes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"brokerage/internal/codegen"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// ClientDirectory verifies and summarizes the clients risk notes are written
// for. Implemented by the clients service via an adapter at the composition
// root.
type ClientDirectory interface {
	Exists(ctx context.Context, clientID string) (bool, error)
	Summarize(ctx context.Context, clientID string) (*ClientSummary, error)
}

// CompanyDirectory is the underwriter-side counterpart of ClientDirectory.
type CompanyDirectory interface {
	Exists(ctx context.Context, companyID string) (bool, error)
	Summarize(ctx context.Context, companyID string) (*CompanySummary, error)
}

// searchFields are the text fields the search term is matched across.
var searchFields = []string{
	"motorDetails.registrationNumber", "motorDetails.make", "motorDetails.model",
	"policyCategory", "subCategory", "policyNumber",
}

// Service orchestrates risk note CRUD, listing and enrichment.
type Service struct {
	store     Store
	clients   ClientDirectory
	companies CompanyDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, clients ClientDirectory, companies CompanyDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, clients: clients, companies: companies, metrics: m, logger: logger}
}

// Create validates and inserts a risk note, generating its PN number when
// absent. Client and company references must resolve first.
func (s *Service) Create(ctx context.Context, note *RiskNote) (*RiskNote, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, note); err != nil {
		return nil, err
	}

	var err error
	if note.PolicyNumber == "" {
		err = codegen.InsertWithRetry(ctx, "policyNumber",
			codegen.RiskNoteNumber,
			func(code string) { note.PolicyNumber = code },
			func(ctx context.Context) error { return s.store.Insert(ctx, note) })
	} else {
		err = s.store.Insert(ctx, note)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "policy number must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create risk note")
	}

	s.metrics.IncrementCreated("risk_note")
	s.logger.InfoContext(ctx, "risk note created",
		"policy_number", note.PolicyNumber,
		"policy_category", note.PolicyCategory,
		"request_id", requestcontext.RequestID(ctx))
	return note, nil
}

// Page is one page of risk notes plus the inputs needed to render pagination.
type Page struct {
	Notes  []RiskNote
	Total  int64
	Params query.Params
}

// List returns an enriched page of risk notes. minPremium/maxPremium and
// minSumInsured/maxSumInsured bound the breakdown totals.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	return s.list(ctx, values, nil)
}

// ByClient lists the risk notes held by one client.
func (s *Service) ByClient(ctx context.Context, clientID string, values url.Values) (*Page, error) {
	if _, err := primitive.ObjectIDFromHex(clientID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid client id")
	}
	return s.list(ctx, values, func(f *query.Filter) {
		f.Where("client", query.OpEq, clientID)
	})
}

// ByCompany lists the risk notes placed with one insurance company.
func (s *Service) ByCompany(ctx context.Context, companyID string, values url.Values) (*Page, error) {
	if _, err := primitive.ObjectIDFromHex(companyID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid insurance company id")
	}
	return s.list(ctx, values, func(f *query.Filter) {
		f.Where("insuranceCompany", query.OpEq, companyID)
	})
}

func (s *Service) list(ctx context.Context, values url.Values, narrow func(*query.Filter)) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: searchFields,
		DateRanges:   map[string]string{"created": "createdAt", "updated": "updatedAt"},
		NumberRanges: map[string]string{
			"Premium":    "premiumBreakdown.totalPremium",
			"SumInsured": "premiumBreakdown.sumInsured",
		},
	})
	if narrow != nil {
		narrow(&p.Filter)
	}
	notes, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list risk notes")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count risk notes")
	}
	if err := s.enrich(ctx, notes); err != nil {
		return nil, err
	}
	return &Page{Notes: notes, Total: total, Params: p}, nil
}

// Get returns one enriched risk note.
func (s *Service) Get(ctx context.Context, id string) (*RiskNote, error) {
	note, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNoteErr(err)
	}
	page := []RiskNote{*note}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// Update merges the patch into the stored note and re-runs the shared
// validation, so switching the category to Motor demands the motor fields.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*RiskNote, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNoteErr(err)
	}

	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.PolicyNumber = existing.PolicyNumber
	updated.CreatedAt = existing.CreatedAt
	updated.ClientDetail, updated.CompanyDetail = nil, nil

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if updated.ClientID != existing.ClientID || updated.CompanyID != existing.CompanyID {
		if err := s.checkRefs(ctx, &updated); err != nil {
			return nil, err
		}
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, wrapNoteErr(err)
	}
	s.logger.InfoContext(ctx, "risk note updated",
		"policy_number", updated.PolicyNumber,
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// Delete removes a risk note.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapNoteErr(err)
	}
	s.logger.InfoContext(ctx, "risk note deleted",
		"risk_note_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

// Exists reports whether a risk note id resolves; it backs claim validation.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.store.FindByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidID):
		return false, nil
	default:
		return false, err
	}
}

// ForClient returns all risk notes held by a client; it backs client
// enrichment. An unknown or malformed id yields an empty slice.
func (s *Service) ForClient(ctx context.Context, clientID string) ([]RiskNote, error) {
	notes, err := s.store.ForClient(ctx, clientID)
	if errors.Is(err, sentinel.ErrInvalidID) {
		return nil, nil
	}
	return notes, err
}

// ClientIDsByCategory returns the distinct clients holding a risk note of the
// given category; it backs the policyType filter on client lists.
func (s *Service) ClientIDsByCategory(ctx context.Context, category string) ([]primitive.ObjectID, error) {
	return s.store.DistinctClientsByCategory(ctx, category)
}

// IDsByPolicyNumber returns the ids of every risk note whose PN number
// contains the term, case-insensitively. It backs the policyNumber filter on
// claim lists, so the lookup is unpaginated.
func (s *Service) IDsByPolicyNumber(ctx context.Context, term string) ([]primitive.ObjectID, error) {
	return s.store.IDsByPolicyNumber(ctx, term)
}

func (s *Service) checkRefs(ctx context.Context, note *RiskNote) error {
	if s.clients != nil {
		ok, err := s.clients.Exists(ctx, note.ClientID.Hex())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve client")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "client not found")
		}
	}
	if s.companies != nil {
		ok, err := s.companies.Exists(ctx, note.CompanyID.Hex())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve insurance company")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "insurance company not found")
		}
	}
	return nil
}

// enrich attaches client and company summaries to every note in the page.
// Dangling references yield no summary rather than an error.
func (s *Service) enrich(ctx context.Context, page []RiskNote) error {
	if s.clients == nil && s.companies == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range page {
		note := &page[i]
		if s.clients != nil {
			clientID := note.ClientID.Hex()
			g.Go(func() error {
				summary, err := s.clients.Summarize(gctx, clientID)
				if err != nil {
					return err
				}
				note.ClientDetail = summary
				return nil
			})
		}
		if s.companies != nil {
			companyID := note.CompanyID.Hex()
			g.Go(func() error {
				summary, err := s.companies.Summarize(gctx, companyID)
				if err != nil {
					return err
				}
				note.CompanyDetail = summary
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enrich risk notes")
	}
	return nil
}

func wrapNoteErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid risk note id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "risk note not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "risk note store failure")
	}
}
