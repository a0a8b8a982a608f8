package clients

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

type fakeGroupDirectory struct {
	byClient map[string][]GroupRef
}

func (f *fakeGroupDirectory) GroupsForClient(_ context.Context, clientID string) ([]GroupRef, error) {
	return f.byClient[clientID], nil
}

type fakeRiskNoteDirectory struct {
	byClient   map[string][]PolicyRef
	byCategory map[string][]primitive.ObjectID
}

func (f *fakeRiskNoteDirectory) PoliciesForClient(_ context.Context, clientID string) ([]PolicyRef, error) {
	return f.byClient[clientID], nil
}

func (f *fakeRiskNoteDirectory) ClientIDsByCategory(_ context.Context, category string) ([]primitive.ObjectID, error) {
	return f.byCategory[category], nil
}

type ClientServiceSuite struct {
	suite.Suite
	store     *InMemoryStore
	groups    *fakeGroupDirectory
	riskNotes *fakeRiskNoteDirectory
	svc       *Service
}

func TestClientServiceSuite(t *testing.T) {
	suite.Run(t, new(ClientServiceSuite))
}

func (s *ClientServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.groups = &fakeGroupDirectory{byClient: map[string][]GroupRef{}}
	s.riskNotes = &fakeRiskNoteDirectory{
		byClient:   map[string][]PolicyRef{},
		byCategory: map[string][]primitive.ObjectID{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.groups, s.riskNotes, nil, logger)
}

func (s *ClientServiceSuite) createIndividual(first, last, phone string) *Client {
	client, err := s.svc.Create(context.Background(), &Client{
		ClientType:  TypeIndividual,
		FirstName:   first,
		LastName:    last,
		PhoneNumber: phone,
	})
	s.Require().NoError(err)
	return client
}

func (s *ClientServiceSuite) TestCreate() {
	s.Run("generates a typed client code", func() {
		client := s.createIndividual("Jane", "Doe", "+254700000000")
		s.Regexp(regexp.MustCompile(`^CLT-I-\d{6}$`), client.ClientCode)
		s.Equal(KycIncomplete, client.KycStatus)
		s.Equal(AccountPending, client.AccountStatus)
	})

	s.Run("rejects a duplicate phone number", func() {
		_, err := s.svc.Create(context.Background(), &Client{
			ClientType:  TypeIndividual,
			FirstName:   "John",
			LastName:    "Doe",
			PhoneNumber: "+254700000000",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("requires names for individuals", func() {
		_, err := s.svc.Create(context.Background(), &Client{ClientType: TypeIndividual, FirstName: "Only"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires company name for corporates", func() {
		_, err := s.svc.Create(context.Background(), &Client{ClientType: TypeCorporate})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("keeps a caller-supplied code", func() {
		client, err := s.svc.Create(context.Background(), &Client{
			ClientType:  TypeCorporate,
			CompanyName: "Acme Ltd",
			ClientCode:  "CLT-C-000001",
		})
		s.Require().NoError(err)
		s.Equal("CLT-C-000001", client.ClientCode)
	})
}

func (s *ClientServiceSuite) TestListFilters() {
	jane := s.createIndividual("Jane", "Doe", "+254700000001")
	s.createIndividual("John", "Smith", "+254700000002")
	acme, err := s.svc.Create(context.Background(), &Client{ClientType: TypeCorporate, CompanyName: "Acme Ltd"})
	s.Require().NoError(err)

	s.Run("search matches across text fields", func() {
		page, err := s.svc.List(context.Background(), url.Values{"search": {"jane"}})
		s.Require().NoError(err)
		s.Require().Len(page.Clients, 1)
		s.Equal(jane.ID, page.Clients[0].ID)
	})

	s.Run("search is conjunctive with other filters", func() {
		page, err := s.svc.List(context.Background(), url.Values{
			"search":     {"doe"},
			"clientType": {"Corporate"},
		})
		s.Require().NoError(err)
		s.Empty(page.Clients)
		s.Zero(page.Total)
	})

	s.Run("unparseable date bound matches nothing", func() {
		page, err := s.svc.List(context.Background(), url.Values{"createdFrom": {"not-a-date"}})
		s.Require().NoError(err)
		s.Empty(page.Clients)
	})

	s.Run("policyType filter narrows to holders", func() {
		s.riskNotes.byCategory["Motor"] = []primitive.ObjectID{jane.ID}
		page, err := s.svc.List(context.Background(), url.Values{"policyType": {"Motor"}})
		s.Require().NoError(err)
		s.Require().Len(page.Clients, 1)
		s.Equal(jane.ID, page.Clients[0].ID)
	})

	s.Run("policyType with no holders matches nothing", func() {
		page, err := s.svc.List(context.Background(), url.Values{"policyType": {"Marine"}})
		s.Require().NoError(err)
		s.Empty(page.Clients)
		s.Zero(page.Total)
	})

	s.Run("by type filters and validates", func() {
		page, err := s.svc.ByType(context.Background(), "Corporate", url.Values{})
		s.Require().NoError(err)
		s.Require().Len(page.Clients, 1)
		s.Equal(acme.ID, page.Clients[0].ID)

		_, err = s.svc.ByType(context.Background(), "Alien", url.Values{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("pagination invariants hold", func() {
		page, err := s.svc.List(context.Background(), url.Values{"limit": {"2"}, "page": {"2"}})
		s.Require().NoError(err)
		s.LessOrEqual(len(page.Clients), 2)
		s.EqualValues(3, page.Total)
	})
}

func (s *ClientServiceSuite) TestEnrichmentAndVirtualSort() {
	zed := s.createIndividual("Zed", "Adams", "+254700000010")
	ann := s.createIndividual("Ann", "Walker", "+254700000011")
	acme, err := s.svc.Create(context.Background(), &Client{ClientType: TypeCorporate, CompanyName: "Acme Ltd"})
	s.Require().NoError(err)

	s.groups.byClient[zed.ID.Hex()] = []GroupRef{{GroupID: "g1", GroupName: "Matatu Sacco", GroupCode: "GRP-000001"}}
	s.riskNotes.byClient[zed.ID.Hex()] = []PolicyRef{{PolicyNumber: "PN0001", PolicyType: "Motor", Status: "Active"}}

	s.Run("detail read is enriched", func() {
		got, err := s.svc.Get(context.Background(), zed.ID.Hex())
		s.Require().NoError(err)
		s.Require().Len(got.Groups, 1)
		s.Equal("Matatu Sacco", got.Groups[0].GroupName)
		s.Require().Len(got.Policies, 1)
		s.Equal("Active", got.Policies[0].Status)
	})

	s.Run("name sort places individuals before corporates", func() {
		page, err := s.svc.List(context.Background(), url.Values{"sort": {"name"}})
		s.Require().NoError(err)
		s.Require().Len(page.Clients, 3)
		s.Equal(ann.ID, page.Clients[0].ID)
		s.Equal(zed.ID, page.Clients[1].ID)
		s.Equal(acme.ID, page.Clients[2].ID)
	})

	s.Run("group sort orders by first group name", func() {
		page, err := s.svc.List(context.Background(), url.Values{"sort": {"-group"}})
		s.Require().NoError(err)
		s.Require().Len(page.Clients, 3)
		s.Equal(zed.ID, page.Clients[0].ID)
	})
}

func (s *ClientServiceSuite) TestUpdate() {
	client := s.createIndividual("Jane", "Doe", "+254700000020")

	s.Run("merges provided fields only", func() {
		updated, err := s.svc.Update(context.Background(), client.ID.Hex(),
			json.RawMessage(`{"occupation":"Engineer"}`))
		s.Require().NoError(err)
		s.Equal("Engineer", updated.Occupation)
		s.Equal("Jane", updated.FirstName)
		s.Equal(client.ClientCode, updated.ClientCode)
	})

	s.Run("type change revalidates requirements", func() {
		_, err := s.svc.Update(context.Background(), client.ID.Hex(),
			json.RawMessage(`{"clientType":"Corporate"}`))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.svc.Update(context.Background(), primitive.NewObjectID().Hex(), json.RawMessage(`{}`))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("malformed id is a bad request", func() {
		_, err := s.svc.Get(context.Background(), "not-an-id")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ClientServiceSuite) TestUploadKYC() {
	client := s.createIndividual("Kyc", "Holder", "+254700000030")

	s.Run("rejects an empty upload", func() {
		_, err := s.svc.UploadKYC(context.Background(), client.ID.Hex(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("appends documents", func() {
		updated, err := s.svc.UploadKYC(context.Background(), client.ID.Hex(), []string{"id.pdf", "photo.jpg"})
		s.Require().NoError(err)
		s.Equal([]string{"id.pdf", "photo.jpg"}, updated.KycDocuments)

		again, err := s.svc.UploadKYC(context.Background(), client.ID.Hex(), []string{"pin.pdf"})
		s.Require().NoError(err)
		s.Len(again.KycDocuments, 3)
	})

	s.Run("re-uploading the same document does not duplicate it", func() {
		updated, err := s.svc.UploadKYC(context.Background(), client.ID.Hex(), []string{" id.pdf "})
		s.Require().NoError(err)
		s.Equal([]string{"id.pdf", "photo.jpg", "pin.pdf"}, updated.KycDocuments)
	})
}
