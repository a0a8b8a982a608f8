package policies

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

type fakeClientDirectory struct {
	known map[string]*ClientSummary
}

func (f *fakeClientDirectory) Exists(_ context.Context, clientID string) (bool, error) {
	_, ok := f.known[clientID]
	return ok, nil
}

func (f *fakeClientDirectory) Summarize(_ context.Context, clientID string) (*ClientSummary, error) {
	return f.known[clientID], nil
}

type fakeGroupDirectory struct {
	known map[string]*GroupSummary
}

func (f *fakeGroupDirectory) Exists(_ context.Context, groupID string) (bool, error) {
	_, ok := f.known[groupID]
	return ok, nil
}

func (f *fakeGroupDirectory) Summarize(_ context.Context, groupID string) (*GroupSummary, error) {
	return f.known[groupID], nil
}

type PolicyServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	clients *fakeClientDirectory
	groups  *fakeGroupDirectory
	svc     *Service
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.clients = &fakeClientDirectory{known: map[string]*ClientSummary{}}
	s.groups = &fakeGroupDirectory{known: map[string]*GroupSummary{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.clients, s.groups, nil, logger)
}

func (s *PolicyServiceSuite) knownClient(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	s.clients.known[id.Hex()] = &ClientSummary{
		ID: id, FirstName: name, LastName: "Doe",
		ClientCode: "CLT-I-123456", ClientType: "Individual",
	}
	return id
}

func (s *PolicyServiceSuite) knownGroup(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	s.groups.known[id.Hex()] = &GroupSummary{ID: id, GroupName: name, GroupCode: "GRP-123456"}
	return id
}

func (s *PolicyServiceSuite) validPolicy(holder primitive.ObjectID) *Policy {
	return &Policy{
		PolicyType:     TypeAuto,
		ClientID:       &holder,
		InsuredItem:    "Toyota Hilux",
		CoverageAmount: 2_000_000,
		Premium:        45_000,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PolicyServiceSuite) TestCreate() {
	clientID := s.knownClient("Jane")

	s.Run("generates a typed policy number and applies defaults", func() {
		policy, err := s.svc.Create(context.Background(), s.validPolicy(clientID))
		s.Require().NoError(err)
		s.Regexp(regexp.MustCompile(`^POL-A-\d{6}$`), policy.PolicyNumber)
		s.Equal(PayMonthly, policy.PaymentFrequency)
		s.Equal(StatusPending, policy.Status)
	})

	s.Run("requires a holder", func() {
		policy := s.validPolicy(clientID)
		policy.ClientID = nil
		_, err := s.svc.Create(context.Background(), policy)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects both client and group", func() {
		groupID := s.knownGroup("Sacco")
		policy := s.validPolicy(clientID)
		policy.GroupID = &groupID
		_, err := s.svc.Create(context.Background(), policy)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown client is not found", func() {
		unknown := primitive.NewObjectID()
		_, err := s.svc.Create(context.Background(), s.validPolicy(unknown))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects an unknown payment frequency", func() {
		policy := s.validPolicy(clientID)
		policy.PaymentFrequency = "Weekly"
		_, err := s.svc.Create(context.Background(), policy)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PolicyServiceSuite) TestRenew() {
	clientID := s.knownClient("Jane")
	policy, err := s.svc.Create(context.Background(), s.validPolicy(clientID))
	s.Require().NoError(err)

	s.Run("defaults roll the term forward a year", func() {
		renewed, err := s.svc.Renew(context.Background(), policy.ID.Hex(), RenewRequest{})
		s.Require().NoError(err)
		wantStart := policy.EndDate.Add(24 * time.Hour)
		s.Equal(wantStart, renewed.StartDate)
		s.Equal(wantStart.AddDate(1, 0, 0), renewed.EndDate)
		s.Equal(StatusActive, renewed.Status)
		s.Equal(policy.Premium, renewed.Premium)
	})

	s.Run("explicit dates and premium win", func() {
		start := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC)
		renewed, err := s.svc.Renew(context.Background(), policy.ID.Hex(), RenewRequest{
			NewStartDate: &start,
			NewEndDate:   &end,
			NewPremium:   50_000,
		})
		s.Require().NoError(err)
		s.Equal(start, renewed.StartDate)
		s.Equal(end, renewed.EndDate)
		s.EqualValues(50_000, renewed.Premium)
	})

	s.Run("unknown policy is not found", func() {
		_, err := s.svc.Renew(context.Background(), primitive.NewObjectID().Hex(), RenewRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PolicyServiceSuite) TestHolderListings() {
	clientID := s.knownClient("Jane")
	groupID := s.knownGroup("Boda Sacco")

	_, err := s.svc.Create(context.Background(), s.validPolicy(clientID))
	s.Require().NoError(err)
	groupPolicy := s.validPolicy(clientID)
	groupPolicy.ClientID = nil
	groupPolicy.GroupID = &groupID
	groupPolicy.PolicyType = TypeBusiness
	_, err = s.svc.Create(context.Background(), groupPolicy)
	s.Require().NoError(err)

	s.Run("by client returns only that client's policies", func() {
		page, err := s.svc.ByClient(context.Background(), clientID.Hex(), url.Values{})
		s.Require().NoError(err)
		s.Require().Len(page.Policies, 1)
		s.Require().NotNil(page.Policies[0].ClientDetail)
		s.Equal("Jane", page.Policies[0].ClientDetail.FirstName)
	})

	s.Run("by unknown client is not found", func() {
		_, err := s.svc.ByClient(context.Background(), primitive.NewObjectID().Hex(), url.Values{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("by group enriches the group summary", func() {
		page, err := s.svc.ByGroup(context.Background(), groupID.Hex(), url.Values{})
		s.Require().NoError(err)
		s.Require().Len(page.Policies, 1)
		s.Require().NotNil(page.Policies[0].GroupDetail)
		s.Equal("Boda Sacco", page.Policies[0].GroupDetail.GroupName)
	})

	s.Run("policyType equality narrows the full list", func() {
		page, err := s.svc.List(context.Background(), url.Values{"policyType": {"Business"}})
		s.Require().NoError(err)
		s.Require().Len(page.Policies, 1)
		s.Equal(TypeBusiness, page.Policies[0].PolicyType)
	})

	s.Run("start date range filters", func() {
		page, err := s.svc.List(context.Background(), url.Values{"startDateFrom": {"2027-01-01"}})
		s.Require().NoError(err)
		s.Empty(page.Policies)
	})
}

func (s *PolicyServiceSuite) TestUpdate() {
	clientID := s.knownClient("Jane")
	policy, err := s.svc.Create(context.Background(), s.validPolicy(clientID))
	s.Require().NoError(err)

	s.Run("merges the patch and keeps the number", func() {
		got, err := s.svc.Update(context.Background(), policy.ID.Hex(),
			[]byte(`{"premium":60000,"policyNumber":"POL-X-000000"}`))
		s.Require().NoError(err)
		s.EqualValues(60_000, got.Premium)
		s.Equal(policy.PolicyNumber, got.PolicyNumber)
	})

	s.Run("changing to an unknown client fails and leaves the holder alone", func() {
		unknown := primitive.NewObjectID()
		_, err := s.svc.Update(context.Background(), policy.ID.Hex(),
			[]byte(`{"client":"`+unknown.Hex()+`"}`))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		stored, err := s.store.FindByID(context.Background(), policy.ID.Hex())
		s.Require().NoError(err)
		s.Require().NotNil(stored.ClientID)
		s.Equal(clientID, *stored.ClientID)
	})

	s.Run("changing to a known client goes through", func() {
		other := s.knownClient("Janet")
		got, err := s.svc.Update(context.Background(), policy.ID.Hex(),
			[]byte(`{"client":"`+other.Hex()+`"}`))
		s.Require().NoError(err)
		s.Require().NotNil(got.ClientID)
		s.Equal(other, *got.ClientID)
	})

	s.Run("delete removes the policy", func() {
		s.Require().NoError(s.svc.Delete(context.Background(), policy.ID.Hex()))
		_, err := s.svc.Get(context.Background(), policy.ID.Hex())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
