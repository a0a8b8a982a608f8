package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"brokerage/internal/codegen"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// RiskNoteDirectory resolves the risk notes claims are lodged against.
// Implemented by the risk note service via an adapter at the composition
// root.
type RiskNoteDirectory interface {
	Exists(ctx context.Context, riskNoteID string) (bool, error)
	Summarize(ctx context.Context, riskNoteID string) (*RiskNoteSummary, error)
	// IDsByPolicyNumber returns the risk notes whose PN number contains the
	// term, case-insensitively. It backs the policyNumber cross filter.
	IDsByPolicyNumber(ctx context.Context, term string) ([]primitive.ObjectID, error)
}

// searchFields are the text fields the search term is matched across.
var searchFields = []string{
	"claimNumber", "vehicle.registrationNumber", "vehicle.makeModel", "driver.fullName",
}

// Service orchestrates claim CRUD, numbering and enrichment.
type Service struct {
	store     Store
	riskNotes RiskNoteDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, riskNotes RiskNoteDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, riskNotes: riskNotes, metrics: m, logger: logger}
}

// Create validates and inserts a claim, numbering it from the monthly
// sequence. A concurrent create can race to the same number; the losing
// insert hits the unique index, re-scans the window and retries.
func (s *Service) Create(ctx context.Context, claim *Claim) (*Claim, error) {
	claim.applyDefaults()
	if err := claim.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRiskNote(ctx, claim.PolicyID); err != nil {
		return nil, err
	}

	var err error
	if claim.ClaimNumber == "" {
		err = s.insertNumbered(ctx, claim)
	} else {
		err = s.store.Insert(ctx, claim)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "claim number must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create claim")
	}

	s.metrics.IncrementCreated("claim")
	s.logger.InfoContext(ctx, "claim created",
		"claim_number", claim.ClaimNumber,
		"request_id", requestcontext.RequestID(ctx))
	return claim, nil
}

// insertNumbered assigns the next number in the month window and inserts,
// re-scanning the window on a claim-number collision.
func (s *Service) insertNumbered(ctx context.Context, claim *Claim) error {
	now := requestcontext.Now(ctx)
	var err error
	for attempt := 0; attempt < codegen.MaxAttempts; attempt++ {
		last, scanErr := s.store.LastClaimNumber(ctx, codegen.ClaimPrefix(now))
		if scanErr != nil {
			return scanErr
		}
		number, genErr := codegen.NextClaimNumber(now, last)
		if genErr != nil {
			return genErr
		}
		claim.ClaimNumber = number
		err = s.store.Insert(ctx, claim)
		if err == nil || !errors.Is(err, sentinel.ErrDuplicate) {
			return err
		}
		if violated := sentinel.DuplicateField(err); violated != "" && violated != "claimNumber" {
			return err
		}
	}
	return err
}

// Page is one page of claims plus the inputs needed to render pagination.
type Page struct {
	Claims []Claim
	Total  int64
	Params query.Params
}

// List returns an enriched page of claims. policyNumber narrows via a risk
// note lookup; registrationNumber and driverName are substring filters.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	p := query.Parse(values, query.Options{
		Exclude:      []string{"policyNumber", "registrationNumber", "driverName"},
		SearchFields: searchFields,
		DateRanges:   map[string]string{"created": "createdAt", "updated": "updatedAt"},
	})

	if term := values.Get("policyNumber"); term != "" {
		if err := s.applyPolicyNumberFilter(ctx, &p.Filter, term); err != nil {
			return nil, err
		}
	}
	if term := values.Get("registrationNumber"); term != "" {
		p.Filter.Where("vehicle.registrationNumber", query.OpContains, term)
	}
	if term := values.Get("driverName"); term != "" {
		p.Filter.Where("driver.fullName", query.OpContains, term)
	}

	claims, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count claims")
	}
	if err := s.enrich(ctx, claims); err != nil {
		return nil, err
	}
	return &Page{Claims: claims, Total: total, Params: p}, nil
}

// applyPolicyNumberFilter narrows to claims whose risk note matches the PN
// term. No matching notes means no matching claims.
func (s *Service) applyPolicyNumberFilter(ctx context.Context, f *query.Filter, term string) error {
	if s.riskNotes == nil {
		f.MatchNone()
		return nil
	}
	ids, err := s.riskNotes.IDsByPolicyNumber(ctx, term)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve policy number filter")
	}
	if len(ids) == 0 {
		f.MatchNone()
		return nil
	}
	f.Where("policyId", query.OpIn, ids)
	return nil
}

// Get returns one enriched claim.
func (s *Service) Get(ctx context.Context, id string) (*Claim, error) {
	claim, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	page := []Claim{*claim}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// Update merges the patch into the stored claim. A changed risk note
// reference must resolve; number and creation time are immutable.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Claim, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClaimErr(err)
	}

	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.ClaimNumber = existing.ClaimNumber
	updated.CreatedAt = existing.CreatedAt
	updated.PolicyDetail = nil

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if updated.PolicyID != existing.PolicyID {
		if err := s.checkRiskNote(ctx, updated.PolicyID); err != nil {
			return nil, err
		}
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, wrapClaimErr(err)
	}
	s.logger.InfoContext(ctx, "claim updated",
		"claim_number", updated.ClaimNumber,
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// UpdateStatus moves the claim to a new review state.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*Claim, error) {
	if !Status(status).Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf(
			"status must be one of: %s", strings.Join([]string{
				string(StatusDraft), string(StatusSubmitted), string(StatusProcessing),
				string(StatusApproved), string(StatusRejected),
			}, ", ")))
	}
	claim, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	claim.Status = Status(status)
	if err := s.store.Replace(ctx, claim); err != nil {
		return nil, wrapClaimErr(err)
	}
	s.logger.InfoContext(ctx, "claim status updated",
		"claim_number", claim.ClaimNumber,
		"status", claim.Status,
		"request_id", requestcontext.RequestID(ctx))
	return claim, nil
}

// Delete removes a claim.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapClaimErr(err)
	}
	s.logger.InfoContext(ctx, "claim deleted",
		"claim_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

func (s *Service) checkRiskNote(ctx context.Context, policyID primitive.ObjectID) error {
	if s.riskNotes == nil {
		return nil
	}
	ok, err := s.riskNotes.Exists(ctx, policyID.Hex())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve risk note")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "the referenced risk note does not exist")
	}
	return nil
}

// enrich attaches the risk note summary to every claim in the page. Dangling
// references yield no summary rather than an error.
func (s *Service) enrich(ctx context.Context, page []Claim) error {
	if s.riskNotes == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range page {
		claim := &page[i]
		policyID := claim.PolicyID.Hex()
		g.Go(func() error {
			summary, err := s.riskNotes.Summarize(gctx, policyID)
			if err != nil {
				return err
			}
			claim.PolicyDetail = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enrich claims")
	}
	return nil
}

func wrapClaimErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid claim id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "claim policy not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "claim store failure")
	}
}
