package risknotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"testing"

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

type fakeCompanyDirectory struct {
	known map[string]*CompanySummary
}

func (f *fakeCompanyDirectory) Exists(_ context.Context, companyID string) (bool, error) {
	_, ok := f.known[companyID]
	return ok, nil
}

func (f *fakeCompanyDirectory) Summarize(_ context.Context, companyID string) (*CompanySummary, error) {
	return f.known[companyID], nil
}

type RiskNoteServiceSuite struct {
	suite.Suite
	store     *InMemoryStore
	clients   *fakeClientDirectory
	companies *fakeCompanyDirectory
	svc       *Service
}

func TestRiskNoteServiceSuite(t *testing.T) {
	suite.Run(t, new(RiskNoteServiceSuite))
}

func (s *RiskNoteServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.clients = &fakeClientDirectory{known: map[string]*ClientSummary{}}
	s.companies = &fakeCompanyDirectory{known: map[string]*CompanySummary{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.clients, s.companies, nil, logger)
}

func (s *RiskNoteServiceSuite) knownClient(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	s.clients.known[id.Hex()] = &ClientSummary{ID: id, FirstName: name, LastName: "Doe"}
	return id
}

func (s *RiskNoteServiceSuite) knownCompany(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	s.companies.known[id.Hex()] = &CompanySummary{ID: id, CompanyName: name}
	return id
}

func (s *RiskNoteServiceSuite) motorNote(client, company primitive.ObjectID) *RiskNote {
	return &RiskNote{
		ClientID:       client,
		CompanyID:      company,
		PolicyCategory: CategoryMotor,
		SubCategory:    "Private",
		MotorDetails: &MotorDetails{
			RegistrationNumber: "KDA 123X",
			Make:               "Toyota",
			Model:              "Hilux",
			Year:               "2021",
		},
		PremiumBreakdown: PremiumBreakdown{
			PolicyCategory: CategoryMotor,
			SelectedPolicy: "Comprehensive",
			SumInsured:     2_000_000,
			Rate:           3.5,
			BasePremium:    70_000,
			TotalPremium:   74_500,
		},
	}
}

func (s *RiskNoteServiceSuite) TestMotorValidation() {
	clientID := s.knownClient("Jane")
	companyID := s.knownCompany("Jubilee")

	s.Run("valid motor note passes and gets a PN number", func() {
		note, err := s.svc.Create(context.Background(), s.motorNote(clientID, companyID))
		s.Require().NoError(err)
		s.Regexp(regexp.MustCompile(`^PN[0-9a-z]{13}$`), note.PolicyNumber)
	})

	s.Run("motor without subcategory fails", func() {
		note := s.motorNote(clientID, companyID)
		note.SubCategory = ""
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "subcategory is required")
	})

	s.Run("motor with unknown subcategory fails", func() {
		note := s.motorNote(clientID, companyID)
		note.SubCategory = "Racing"
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "invalid subcategory")
	})

	s.Run("motor with incomplete details fails", func() {
		note := s.motorNote(clientID, companyID)
		note.MotorDetails.Year = ""
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "complete motor details")
	})

	s.Run("non-motor note needs no motor fields", func() {
		note := s.motorNote(clientID, companyID)
		note.PolicyCategory = "Home"
		note.SubCategory = ""
		note.MotorDetails = nil
		note.PremiumBreakdown.PolicyCategory = "Home"
		_, err := s.svc.Create(context.Background(), note)
		s.NoError(err)
	})

	s.Run("update re-runs the same motor rules", func() {
		note := s.motorNote(clientID, companyID)
		note.PolicyCategory = "Home"
		note.SubCategory = ""
		note.MotorDetails = nil
		note.PremiumBreakdown.PolicyCategory = "Home"
		created, err := s.svc.Create(context.Background(), note)
		s.Require().NoError(err)

		_, err = s.svc.Update(context.Background(), created.ID.Hex(),
			[]byte(`{"policyCategory":"Motor"}`))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RiskNoteServiceSuite) TestReferenceChecks() {
	clientID := s.knownClient("Jane")
	companyID := s.knownCompany("Jubilee")

	s.Run("unknown client is not found", func() {
		note := s.motorNote(primitive.NewObjectID(), companyID)
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown company is not found", func() {
		note := s.motorNote(clientID, primitive.NewObjectID())
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing premium totals fail validation", func() {
		note := s.motorNote(clientID, companyID)
		note.PremiumBreakdown.TotalPremium = 0
		_, err := s.svc.Create(context.Background(), note)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RiskNoteServiceSuite) TestIDsByPolicyNumberIsUnpaginated() {
	for i := 0; i < 550; i++ {
		note := &RiskNote{
			ClientID:       primitive.NewObjectID(),
			CompanyID:      primitive.NewObjectID(),
			PolicyCategory: "Home",
			PolicyNumber:   fmt.Sprintf("PN%013d", i),
		}
		s.Require().NoError(s.store.Insert(context.Background(), note))
	}

	ids, err := s.svc.IDsByPolicyNumber(context.Background(), "pn")
	s.Require().NoError(err)
	s.Len(ids, 550)
}

func (s *RiskNoteServiceSuite) TestListingAndFilters() {
	clientID := s.knownClient("Jane")
	companyID := s.knownCompany("Jubilee")
	note, err := s.svc.Create(context.Background(), s.motorNote(clientID, companyID))
	s.Require().NoError(err)

	cheap := s.motorNote(s.knownClient("Bob"), companyID)
	cheap.MotorDetails.RegistrationNumber = "KBZ 987Q"
	cheap.PremiumBreakdown.TotalPremium = 12_000
	cheap.PremiumBreakdown.SumInsured = 400_000
	_, err = s.svc.Create(context.Background(), cheap)
	s.Require().NoError(err)

	s.Run("search matches the registration number", func() {
		page, err := s.svc.List(context.Background(), url.Values{"search": {"kbz"}})
		s.Require().NoError(err)
		s.Require().Len(page.Notes, 1)
		s.Equal("KBZ 987Q", page.Notes[0].MotorDetails.RegistrationNumber)
	})

	s.Run("premium range bounds the breakdown total", func() {
		page, err := s.svc.List(context.Background(), url.Values{"minPremium": {"50000"}})
		s.Require().NoError(err)
		s.Require().Len(page.Notes, 1)
		s.Equal(note.ID, page.Notes[0].ID)
	})

	s.Run("unparseable bound yields no results", func() {
		page, err := s.svc.List(context.Background(), url.Values{"maxSumInsured": {"lots"}})
		s.Require().NoError(err)
		s.Empty(page.Notes)
	})

	s.Run("by client narrows and enriches", func() {
		page, err := s.svc.ByClient(context.Background(), clientID.Hex(), url.Values{})
		s.Require().NoError(err)
		s.Require().Len(page.Notes, 1)
		s.Require().NotNil(page.Notes[0].ClientDetail)
		s.Equal("Jane", page.Notes[0].ClientDetail.FirstName)
		s.Require().NotNil(page.Notes[0].CompanyDetail)
		s.Equal("Jubilee", page.Notes[0].CompanyDetail.CompanyName)
	})

	s.Run("by company returns both notes", func() {
		page, err := s.svc.ByCompany(context.Background(), companyID.Hex(), url.Values{})
		s.Require().NoError(err)
		s.Len(page.Notes, 2)
	})

	s.Run("policy number lookup matches case-insensitively", func() {
		ids, err := s.svc.IDsByPolicyNumber(context.Background(), strings.ToUpper(note.PolicyNumber))
		s.Require().NoError(err)
		s.Require().Len(ids, 1)
		s.Equal(note.ID, ids[0])
	})

	s.Run("distinct clients by category backs the policy type filter", func() {
		ids, err := s.svc.ClientIDsByCategory(context.Background(), CategoryMotor)
		s.Require().NoError(err)
		s.Len(ids, 2)
		ids, err = s.svc.ClientIDsByCategory(context.Background(), "Marine")
		s.Require().NoError(err)
		s.Empty(ids)
	})
}
