package clients

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"brokerage/internal/codegen"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	pstrings "brokerage/pkg/platform/strings"
	"brokerage/pkg/requestcontext"
)

// GroupDirectory resolves the groups a client belongs to. Implemented by the
// groups service via an adapter at the composition root.
type GroupDirectory interface {
	GroupsForClient(ctx context.Context, clientID string) ([]GroupRef, error)
}

// RiskNoteDirectory resolves the risk notes written against a client and
// backs the cross-entity policyType filter.
type RiskNoteDirectory interface {
	PoliciesForClient(ctx context.Context, clientID string) ([]PolicyRef, error)
	ClientIDsByCategory(ctx context.Context, category string) ([]primitive.ObjectID, error)
}

// searchFields are the text fields the search term is matched across.
var searchFields = []string{
	"firstName", "middleName", "lastName", "companyName",
	"clientCode", "email", "phoneNumber", "occupation",
}

// Service orchestrates client CRUD, listing and enrichment.
type Service struct {
	store     Store
	groups    GroupDirectory
	riskNotes RiskNoteDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, groups GroupDirectory, riskNotes RiskNoteDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, groups: groups, riskNotes: riskNotes, metrics: m, logger: logger}
}

// Create validates and inserts a new client, generating its code when the
// caller didn't supply one. A code collision retries with a fresh code; a
// phone collision is a conflict reported to the caller.
func (s *Service) Create(ctx context.Context, client *Client) (*Client, error) {
	client.applyDefaults()
	if err := client.Validate(); err != nil {
		return nil, err
	}

	var err error
	if client.ClientCode == "" {
		err = codegen.InsertWithRetry(ctx, "clientCode",
			func() string { return codegen.ClientCode(string(client.ClientType)) },
			func(code string) { client.ClientCode = code },
			func(ctx context.Context) error { return s.store.Insert(ctx, client) })
	} else {
		err = s.store.Insert(ctx, client)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, duplicateClientErr(err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}

	s.metrics.IncrementCreated("client")
	s.logger.InfoContext(ctx, "client created",
		"client_code", client.ClientCode,
		"request_id", requestcontext.RequestID(ctx))
	return client, nil
}

// Page is one page of clients plus the inputs needed to render pagination.
type Page struct {
	Clients []Client
	Total   int64
	Params  query.Params
}

// List returns an enriched page of clients. The policyType key filters by a
// secondary lookup against risk notes; the virtual sort keys name and group
// are applied after enrichment.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	return s.list(ctx, values, "")
}

// ByType lists clients of one type through the same pipeline, with the type
// constraint joining the conjunctive filter list.
func (s *Service) ByType(ctx context.Context, clientType string, values url.Values) (*Page, error) {
	if !Type(clientType).Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid client type")
	}
	return s.list(ctx, values, clientType)
}

func (s *Service) list(ctx context.Context, values url.Values, clientType string) (*Page, error) {
	p := query.Parse(values, query.Options{
		Exclude:      []string{"policyType"},
		SearchFields: searchFields,
		DateRanges: map[string]string{
			"created": "createdAt",
			"updated": "updatedAt",
			"dob":     "dateOfBirth",
		},
	})
	if clientType != "" {
		p.Filter.Where("clientType", query.OpEq, clientType)
	}

	if policyType := values.Get("policyType"); policyType != "" {
		if err := s.applyPolicyTypeFilter(ctx, &p.Filter, policyType); err != nil {
			return nil, err
		}
	}

	// Virtual keys depend on enriched or type-dependent data; pull them out
	// so the store sorts by what it can and the rest happens after
	// enrichment.
	virtual, storeSort := splitVirtualSort(p.Sort)
	p.Sort = storeSort

	clients, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count clients")
	}
	if err := s.enrich(ctx, clients); err != nil {
		return nil, err
	}
	applyVirtualSort(clients, virtual)
	return &Page{Clients: clients, Total: total, Params: p}, nil
}

// applyPolicyTypeFilter narrows the client filter to those holding a risk
// note of the given category. No matching risk notes means no matching
// clients, never an unconstrained list.
func (s *Service) applyPolicyTypeFilter(ctx context.Context, f *query.Filter, policyType string) error {
	if s.riskNotes == nil {
		f.MatchNone()
		return nil
	}
	ids, err := s.riskNotes.ClientIDsByCategory(ctx, policyType)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve policy type filter")
	}
	if len(ids) == 0 {
		f.MatchNone()
		return nil
	}
	f.Where("_id", query.OpIn, ids)
	return nil
}

// Get returns one enriched client.
func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	client, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClientErr(err)
	}
	page := []Client{*client}
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// Update merges the patch into the stored record. Identity fields (id, code,
// creation time) are immutable; changing the client type re-runs the
// type-discriminated validation against the merged record.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Client, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClientErr(err)
	}

	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.ClientCode = existing.ClientCode
	updated.CreatedAt = existing.CreatedAt
	updated.Groups, updated.Policies = nil, nil

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, duplicateClientErr(err)
		}
		return nil, wrapClientErr(err)
	}
	s.logger.InfoContext(ctx, "client updated",
		"client_code", updated.ClientCode,
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// Delete removes a client. References from groups and risk notes are left
// dangling; enrichment tolerates them.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapClientErr(err)
	}
	s.logger.InfoContext(ctx, "client deleted",
		"client_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

// UploadKYC appends document references to the client's KYC list.
func (s *Service) UploadKYC(ctx context.Context, id string, documents []string) (*Client, error) {
	if len(documents) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no files were uploaded")
	}
	client, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapClientErr(err)
	}
	// Re-uploading the same document URL must not duplicate the entry.
	client.KycDocuments = pstrings.DedupeAndTrim(append(client.KycDocuments, documents...))
	if err := s.store.Replace(ctx, client); err != nil {
		return nil, wrapClientErr(err)
	}
	s.logger.InfoContext(ctx, "kyc documents uploaded",
		"client_code", client.ClientCode,
		"count", len(documents),
		"request_id", requestcontext.RequestID(ctx))
	return client, nil
}

// enrich attaches group and policy summaries to every client in the page.
// Lookups fan out per record and the page fails as a whole if any lookup
// fails; cost is bounded by the page size.
func (s *Service) enrich(ctx context.Context, page []Client) error {
	if s.groups == nil && s.riskNotes == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range page {
		client := &page[i]
		clientID := client.ID.Hex()
		if s.groups != nil {
			g.Go(func() error {
				refs, err := s.groups.GroupsForClient(gctx, clientID)
				if err != nil {
					return err
				}
				client.Groups = refs
				return nil
			})
		}
		if s.riskNotes != nil {
			g.Go(func() error {
				refs, err := s.riskNotes.PoliciesForClient(gctx, clientID)
				if err != nil {
					return err
				}
				client.Policies = refs
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enrich clients")
	}
	return nil
}

// virtualSortKeys cannot be pushed down to the store.
var virtualSortKeys = map[string]bool{"name": true, "group": true}

func splitVirtualSort(keys []query.SortKey) (virtual, store []query.SortKey) {
	for _, key := range keys {
		if virtualSortKeys[key.Field] {
			virtual = append(virtual, key)
		} else {
			store = append(store, key)
		}
	}
	return virtual, store
}

// applyVirtualSort stable-sorts the enriched page. Individuals sort by
// first+last name, corporates by company name; mixed lists place individuals
// before corporates regardless of direction.
func applyVirtualSort(page []Client, keys []query.SortKey) {
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		sort.SliceStable(page, func(a, b int) bool {
			ca, cb := &page[a], &page[b]
			if key.Field == "name" {
				if (ca.ClientType == TypeIndividual) != (cb.ClientType == TypeIndividual) {
					return ca.ClientType == TypeIndividual
				}
			}
			less := strings.Compare(virtualKeyValue(ca, key.Field), virtualKeyValue(cb, key.Field)) < 0
			if key.Desc {
				return !less && virtualKeyValue(ca, key.Field) != virtualKeyValue(cb, key.Field)
			}
			return less
		})
	}
}

func virtualKeyValue(c *Client, field string) string {
	switch field {
	case "name":
		return strings.ToLower(c.DisplayName())
	case "group":
		if len(c.Groups) > 0 {
			return strings.ToLower(c.Groups[0].GroupName)
		}
		return ""
	default:
		return ""
	}
}

func duplicateClientErr(err error) error {
	if sentinel.DuplicateField(err) == "phoneNumber" {
		return dErrors.New(dErrors.CodeConflict, "phone number must be unique")
	}
	return dErrors.New(dErrors.CodeConflict, "client code must be unique")
}

func wrapClientErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid client id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "client store failure")
	}
}
