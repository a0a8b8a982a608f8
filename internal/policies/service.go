package policies

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"brokerage/internal/codegen"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// ClientDirectory verifies policy holders and summarizes them for reads.
// Implemented by the clients service via an adapter at the composition root.
type ClientDirectory interface {
	Exists(ctx context.Context, clientID string) (bool, error)
	Summarize(ctx context.Context, clientID string) (*ClientSummary, error)
}

// GroupDirectory is the group-side counterpart of ClientDirectory.
type GroupDirectory interface {
	Exists(ctx context.Context, groupID string) (bool, error)
	Summarize(ctx context.Context, groupID string) (*GroupSummary, error)
}

// Service orchestrates policy CRUD, renewal and holder enrichment.
type Service struct {
	store   Store
	clients ClientDirectory
	groups  GroupDirectory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, clients ClientDirectory, groups GroupDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, clients: clients, groups: groups, metrics: m, logger: logger}
}

// Create validates and inserts a policy. The holder reference must resolve
// to an existing client or group before anything is written.
func (s *Service) Create(ctx context.Context, policy *Policy) (*Policy, error) {
	policy.applyDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkHolder(ctx, policy); err != nil {
		return nil, err
	}

	var err error
	if policy.PolicyNumber == "" {
		err = codegen.InsertWithRetry(ctx, "policyNumber",
			func() string { return codegen.PolicyNumber(string(policy.PolicyType)) },
			func(code string) { policy.PolicyNumber = code },
			func(ctx context.Context) error { return s.store.Insert(ctx, policy) })
	} else {
		err = s.store.Insert(ctx, policy)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "policy number must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy")
	}

	s.metrics.IncrementCreated("policy")
	s.logger.InfoContext(ctx, "policy created",
		"policy_number", policy.PolicyNumber,
		"request_id", requestcontext.RequestID(ctx))
	return policy, nil
}

// Page is one page of policies plus the inputs needed to render pagination.
type Page struct {
	Policies []Policy
	Total    int64
	Params   query.Params
}

// List returns an enriched page of policies.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	return s.list(ctx, values, nil)
}

// ByClient lists the policies held by one client; the client must exist.
func (s *Service) ByClient(ctx context.Context, clientID string, values url.Values) (*Page, error) {
	if s.clients != nil {
		ok, err := s.clients.Exists(ctx, clientID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve client")
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
	}
	return s.list(ctx, values, func(f *query.Filter) {
		f.Where("client", query.OpEq, clientID)
	})
}

// ByGroup lists the policies held by one group; the group must exist.
func (s *Service) ByGroup(ctx context.Context, groupID string, values url.Values) (*Page, error) {
	if s.groups != nil {
		ok, err := s.groups.Exists(ctx, groupID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve group")
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
	}
	return s.list(ctx, values, func(f *query.Filter) {
		f.Where("group", query.OpEq, groupID)
	})
}

func (s *Service) list(ctx context.Context, values url.Values, narrow func(*query.Filter)) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: []string{"policyNumber", "insuredItem", "description"},
		DateRanges: map[string]string{
			"startDate": "startDate",
			"endDate":   "endDate",
			"created":   "createdAt",
			"updated":   "updatedAt",
		},
	})
	if narrow != nil {
		narrow(&p.Filter)
	}
	policies, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count policies")
	}
	if err := s.enrich(ctx, policies); err != nil {
		return nil, err
	}
	return &Page{Policies: policies, Total: total, Params: p}, nil
}

// Get returns one enriched policy.
func (s *Service) Get(ctx context.Context, id string) (*Policy, error) {
	policy, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	page := []Policy{*policy}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// Update merges the patch into the stored policy. A changed holder reference
// must resolve before the write goes through; number and creation time are
// immutable.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Policy, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}

	updated := *existing
	// The struct copy shares the holder pointers with existing, so a patched
	// id would write through both and defeat the changed-holder check below.
	// The copy gets its own pointers before the patch is applied.
	if existing.ClientID != nil {
		id := *existing.ClientID
		updated.ClientID = &id
	}
	if existing.GroupID != nil {
		id := *existing.GroupID
		updated.GroupID = &id
	}
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.PolicyNumber = existing.PolicyNumber
	updated.CreatedAt = existing.CreatedAt
	updated.ClientDetail, updated.GroupDetail = nil, nil

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if holderChanged(existing.ClientID, updated.ClientID) || holderChanged(existing.GroupID, updated.GroupID) {
		if err := s.checkHolder(ctx, &updated); err != nil {
			return nil, err
		}
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, wrapPolicyErr(err)
	}
	s.logger.InfoContext(ctx, "policy updated",
		"policy_number", updated.PolicyNumber,
		"request_id", requestcontext.RequestID(ctx))
	page := []Policy{updated}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// Delete removes a policy.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapPolicyErr(err)
	}
	s.logger.InfoContext(ctx, "policy deleted",
		"policy_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

// RenewRequest carries the optional overrides for a renewal.
type RenewRequest struct {
	NewStartDate *time.Time `json:"newStartDate,omitempty"`
	NewEndDate   *time.Time `json:"newEndDate,omitempty"`
	NewPremium   float64    `json:"newPremium,omitempty"`
}

// Renew rolls the policy into its next term: the new term starts the day
// after the old one ends unless a start is given, runs one year unless an end
// is given, and the policy comes back Active.
func (s *Service) Renew(ctx context.Context, id string, req RenewRequest) (*Policy, error) {
	policy, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}

	start := policy.EndDate.Add(24 * time.Hour)
	if req.NewStartDate != nil {
		start = *req.NewStartDate
	}
	end := start.AddDate(1, 0, 0)
	if req.NewEndDate != nil {
		end = *req.NewEndDate
	}

	policy.StartDate = start
	policy.EndDate = end
	policy.Status = StatusActive
	if req.NewPremium > 0 {
		policy.Premium = req.NewPremium
	}

	if err := s.store.Replace(ctx, policy); err != nil {
		return nil, wrapPolicyErr(err)
	}
	s.logger.InfoContext(ctx, "policy renewed",
		"policy_number", policy.PolicyNumber,
		"new_end_date", policy.EndDate,
		"request_id", requestcontext.RequestID(ctx))
	page := []Policy{*policy}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// checkHolder resolves the policy's holder reference against the directories.
func (s *Service) checkHolder(ctx context.Context, policy *Policy) error {
	if policy.ClientID != nil && s.clients != nil {
		ok, err := s.clients.Exists(ctx, policy.ClientID.Hex())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve client")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "client not found")
		}
	}
	if policy.GroupID != nil && s.groups != nil {
		ok, err := s.groups.Exists(ctx, policy.GroupID.Hex())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve group")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "group not found")
		}
	}
	return nil
}

// enrich attaches holder summaries to every policy in the page. Dangling
// references yield no summary rather than an error.
func (s *Service) enrich(ctx context.Context, page []Policy) error {
	if s.clients == nil && s.groups == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range page {
		policy := &page[i]
		if policy.ClientID != nil && s.clients != nil {
			clientID := policy.ClientID.Hex()
			g.Go(func() error {
				summary, err := s.clients.Summarize(gctx, clientID)
				if err != nil {
					return err
				}
				policy.ClientDetail = summary
				return nil
			})
		}
		if policy.GroupID != nil && s.groups != nil {
			groupID := policy.GroupID.Hex()
			g.Go(func() error {
				summary, err := s.groups.Summarize(gctx, groupID)
				if err != nil {
					return err
				}
				policy.GroupDetail = summary
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enrich policies")
	}
	return nil
}

func holderChanged(was, is *primitive.ObjectID) bool {
	switch {
	case was == nil && is == nil:
		return false
	case was == nil || is == nil:
		return true
	default:
		return *was != *is
	}
}

func wrapPolicyErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid policy id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "policy not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "policy store failure")
	}
}
