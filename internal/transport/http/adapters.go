package httptransport

import (
	"context"
	"errors"

	"brokerage/internal/claims"
	"brokerage/internal/clients"
	"brokerage/internal/groups"
	"brokerage/internal/insurers"
	"brokerage/internal/policies"
	"brokerage/internal/risknotes"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The entity packages declare narrow consumer-side directory interfaces so
// none of them imports another. The adapters below satisfy those interfaces
// at the composition root. Summaries come straight from the stores; the
// service layers would re-enter enrichment and drag their own directories
// along.

// found translates the store sentinel outcomes into an existence answer. An
// unparseable id is simply "not found" so a caller holding a stale reference
// gets the same behavior as one holding a deleted reference.
func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidID):
		return false, nil
	default:
		return false, err
	}
}

// groupsClientDirectory backs group membership checks with client records.
type groupsClientDirectory struct {
	store clients.Store
}

func NewGroupsClientDirectory(store clients.Store) groups.ClientDirectory {
	return &groupsClientDirectory{store: store}
}

func (d *groupsClientDirectory) Exists(ctx context.Context, clientID string) (bool, error) {
	_, err := d.store.FindByID(ctx, clientID)
	return found(err)
}

func (d *groupsClientDirectory) Summarize(ctx context.Context, clientID string) (*groups.MemberClient, error) {
	c, err := d.store.FindByID(ctx, clientID)
	if err != nil {
		if ok, ferr := found(err); !ok && ferr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &groups.MemberClient{
		ClientCode:  c.ClientCode,
		Name:        c.DisplayName(),
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
	}, nil
}

// clientsGroupDirectory lets client reads list the groups a client joined.
type clientsGroupDirectory struct {
	groups *groups.Service
}

func NewClientsGroupDirectory(service *groups.Service) clients.GroupDirectory {
	return &clientsGroupDirectory{groups: service}
}

func (d *clientsGroupDirectory) GroupsForClient(ctx context.Context, clientID string) ([]clients.GroupRef, error) {
	memberships, err := d.groups.ForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	refs := make([]clients.GroupRef, 0, len(memberships))
	for _, g := range memberships {
		refs = append(refs, clients.GroupRef{
			GroupID:   g.ID.Hex(),
			GroupName: g.GroupName,
			GroupCode: g.GroupCode,
		})
	}
	return refs, nil
}

// clientsRiskNoteDirectory lets client reads list held cover and backs the
// policyType cross filter.
type clientsRiskNoteDirectory struct {
	notes *risknotes.Service
}

func NewClientsRiskNoteDirectory(service *risknotes.Service) clients.RiskNoteDirectory {
	return &clientsRiskNoteDirectory{notes: service}
}

func (d *clientsRiskNoteDirectory) PoliciesForClient(ctx context.Context, clientID string) ([]clients.PolicyRef, error) {
	notes, err := d.notes.ForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	refs := make([]clients.PolicyRef, 0, len(notes))
	for _, n := range notes {
		refs = append(refs, clients.PolicyRef{
			PolicyID:     n.ID.Hex(),
			PolicyNumber: n.PolicyNumber,
			PolicyType:   n.PolicyCategory,
			SubCategory:  n.SubCategory,
			// Risk notes carry no lifecycle status field.
			Status: "Active",
		})
	}
	return refs, nil
}

func (d *clientsRiskNoteDirectory) ClientIDsByCategory(ctx context.Context, category string) ([]primitive.ObjectID, error) {
	return d.notes.ClientIDsByCategory(ctx, category)
}

// policiesClientDirectory resolves policy holders against client records.
type policiesClientDirectory struct {
	store clients.Store
}

func NewPoliciesClientDirectory(store clients.Store) policies.ClientDirectory {
	return &policiesClientDirectory{store: store}
}

func (d *policiesClientDirectory) Exists(ctx context.Context, clientID string) (bool, error) {
	_, err := d.store.FindByID(ctx, clientID)
	return found(err)
}

func (d *policiesClientDirectory) Summarize(ctx context.Context, clientID string) (*policies.ClientSummary, error) {
	c, err := d.store.FindByID(ctx, clientID)
	if err != nil {
		if ok, ferr := found(err); !ok && ferr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &policies.ClientSummary{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		CompanyName: c.CompanyName,
		ClientCode:  c.ClientCode,
		ClientType:  string(c.ClientType),
	}, nil
}

// policiesGroupDirectory resolves group-held policies against group records.
type policiesGroupDirectory struct {
	store groups.Store
}

func NewPoliciesGroupDirectory(store groups.Store) policies.GroupDirectory {
	return &policiesGroupDirectory{store: store}
}

func (d *policiesGroupDirectory) Exists(ctx context.Context, groupID string) (bool, error) {
	_, err := d.store.FindByID(ctx, groupID)
	return found(err)
}

func (d *policiesGroupDirectory) Summarize(ctx context.Context, groupID string) (*policies.GroupSummary, error) {
	g, err := d.store.FindByID(ctx, groupID)
	if err != nil {
		if ok, ferr := found(err); !ok && ferr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &policies.GroupSummary{
		ID:        g.ID,
		GroupName: g.GroupName,
		GroupCode: g.GroupCode,
	}, nil
}

// riskNotesClientDirectory resolves risk note holders.
type riskNotesClientDirectory struct {
	store clients.Store
}

func NewRiskNotesClientDirectory(store clients.Store) risknotes.ClientDirectory {
	return &riskNotesClientDirectory{store: store}
}

func (d *riskNotesClientDirectory) Exists(ctx context.Context, clientID string) (bool, error) {
	_, err := d.store.FindByID(ctx, clientID)
	return found(err)
}

func (d *riskNotesClientDirectory) Summarize(ctx context.Context, clientID string) (*risknotes.ClientSummary, error) {
	c, err := d.store.FindByID(ctx, clientID)
	if err != nil {
		if ok, ferr := found(err); !ok && ferr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &risknotes.ClientSummary{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.PhoneNumber,
	}, nil
}

// riskNotesCompanyDirectory resolves underwriters.
type riskNotesCompanyDirectory struct {
	store insurers.Store
}

func NewRiskNotesCompanyDirectory(store insurers.Store) risknotes.CompanyDirectory {
	return &riskNotesCompanyDirectory{store: store}
}

func (d *riskNotesCompanyDirectory) Exists(ctx context.Context, companyID string) (bool, error) {
	_, err := d.store.FindByID(ctx, companyID)
	return found(err)
}

func (d *riskNotesCompanyDirectory) Summarize(ctx context.Context, companyID string) (*risknotes.CompanySummary, error) {
	c, err := d.store.FindByID(ctx, companyID)
	if err != nil {
		if ok, ferr := found(err); !ok && ferr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &risknotes.CompanySummary{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.PhoneNumber,
	}, nil
}

// claimsRiskNoteDirectory resolves the risk note a claim is lodged against.
// It goes through the risk note service so the attached summary carries the
// enriched client and underwriter slices.
type claimsRiskNoteDirectory struct {
	notes *risknotes.Service
}

func NewClaimsRiskNoteDirectory(service *risknotes.Service) claims.RiskNoteDirectory {
	return &claimsRiskNoteDirectory{notes: service}
}

func (d *claimsRiskNoteDirectory) Exists(ctx context.Context, riskNoteID string) (bool, error) {
	return d.notes.Exists(ctx, riskNoteID)
}

func (d *claimsRiskNoteDirectory) Summarize(ctx context.Context, riskNoteID string) (*claims.RiskNoteSummary, error) {
	note, err := d.notes.Get(ctx, riskNoteID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
			return nil, nil
		}
		return nil, err
	}
	summary := &claims.RiskNoteSummary{
		ID:           note.ID,
		PolicyNumber: note.PolicyNumber,
		StartDate:    note.StartDate,
		EndDate:      note.EndDate,
	}
	if c := note.ClientDetail; c != nil {
		summary.Client = &claims.NoteClient{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		}
	}
	if c := note.CompanyDetail; c != nil {
		summary.Company = &claims.NoteCompany{
			ID:          c.ID,
			CompanyName: c.CompanyName,
			Email:       c.Email,
			Phone:       c.Phone,
		}
	}
	return summary, nil
}

func (d *claimsRiskNoteDirectory) IDsByPolicyNumber(ctx context.Context, term string) ([]primitive.ObjectID, error) {
	return d.notes.IDsByPolicyNumber(ctx, term)
}
