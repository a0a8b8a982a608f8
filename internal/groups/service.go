package groups

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

// ClientDirectory resolves member references against the client records.
// Summarize returns nil without error for a dangling reference so detail
// reads tolerate deleted clients.
type ClientDirectory interface {
	Exists(ctx context.Context, clientID string) (bool, error)
	Summarize(ctx context.Context, clientID string) (*MemberClient, error)
}

// Service orchestrates group CRUD and membership.
type Service struct {
	store   Store
	clients ClientDirectory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, clients ClientDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, clients: clients, metrics: m, logger: logger}
}

// Create validates and inserts a group, generating its code when absent.
func (s *Service) Create(ctx context.Context, group *Group) (*Group, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	var err error
	if group.GroupCode == "" {
		err = codegen.InsertWithRetry(ctx, "groupCode",
			codegen.GroupCode,
			func(code string) { group.GroupCode = code },
			func(ctx context.Context) error { return s.store.Insert(ctx, group) })
	} else {
		err = s.store.Insert(ctx, group)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "group code must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create group")
	}
	s.metrics.IncrementCreated("group")
	s.logger.InfoContext(ctx, "group created",
		"group_code", group.GroupCode,
		"request_id", requestcontext.RequestID(ctx))
	return group, nil
}

// Page is one page of groups plus the inputs needed to render pagination.
type Page struct {
	Groups []Group
	Total  int64
	Params query.Params
}

// List returns groups matching the raw query string.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: []string{"groupName", "description", "groupCode"},
		DateRanges:   map[string]string{"created": "createdAt", "updated": "updatedAt"},
	})
	groups, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count groups")
	}
	return &Page{Groups: groups, Total: total, Params: p}, nil
}

// Get returns one group with member client summaries attached.
func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	group, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	if err := s.enrichMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Update merges the patch into the stored group; code and creation time are
// immutable.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Group, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.GroupCode = existing.GroupCode
	updated.CreatedAt = existing.CreatedAt
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		return nil, wrapGroupErr(err)
	}
	s.logger.InfoContext(ctx, "group updated",
		"group_code", updated.GroupCode,
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// Delete removes a group.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapGroupErr(err)
	}
	s.logger.InfoContext(ctx, "group deleted",
		"group_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

// AddMember appends a client to the member list. The client must exist and
// must not already be a member.
func (s *Service) AddMember(ctx context.Context, groupID, clientID, clientType string) (*Group, error) {
	if clientID == "" || clientType == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "client id and type are required")
	}
	if clientType != MemberIndividual && clientType != MemberCorporate {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid member client type %q", clientType)
	}
	oid, err := primitive.ObjectIDFromHex(clientID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid client id")
	}
	exists, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up client")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
	}

	group, err := s.store.FindByID(ctx, groupID)
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	if group.HasMember(clientID) {
		return nil, dErrors.New(dErrors.CodeConflict, "client is already a member of this group")
	}
	group.Members = append(group.Members, Member{ClientID: oid, ClientType: clientType})
	if err := s.store.Replace(ctx, group); err != nil {
		return nil, wrapGroupErr(err)
	}
	s.logger.InfoContext(ctx, "group member added",
		"group_code", group.GroupCode,
		"client_id", clientID,
		"request_id", requestcontext.RequestID(ctx))
	return group, nil
}

// RemoveMember drops a client from the member list; removing a non-member is
// an error.
func (s *Service) RemoveMember(ctx context.Context, groupID, clientID string) (*Group, error) {
	group, err := s.store.FindByID(ctx, groupID)
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	idx := -1
	for i, member := range group.Members {
		if member.ClientID.Hex() == clientID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "client is not a member of this group")
	}
	group.Members = append(group.Members[:idx], group.Members[idx+1:]...)
	if err := s.store.Replace(ctx, group); err != nil {
		return nil, wrapGroupErr(err)
	}
	s.logger.InfoContext(ctx, "group member removed",
		"group_code", group.GroupCode,
		"client_id", clientID,
		"request_id", requestcontext.RequestID(ctx))
	return group, nil
}

// ForClient returns the groups containing the client. Backs the client-side
// enrichment adapter.
func (s *Service) ForClient(ctx context.Context, clientID string) ([]Group, error) {
	groups, err := s.store.ForClient(ctx, clientID)
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	return groups, nil
}

// enrichMembers fans out one summary lookup per member; dangling references
// yield members without a client block.
func (s *Service) enrichMembers(ctx context.Context, group *Group) error {
	if s.clients == nil || len(group.Members) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range group.Members {
		member := &group.Members[i]
		g.Go(func() error {
			summary, err := s.clients.Summarize(gctx, member.ClientID.Hex())
			if err != nil {
				return err
			}
			member.Client = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enrich group members")
	}
	return nil
}

func wrapGroupErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid group id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "group not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "group store failure")
	}
}
