package insurers

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "brokerage/pkg/domainerrors"
)

type CompanyServiceSuite struct {
	suite.Suite
	store *InMemoryStore
	svc   *Service
}

func TestCompanyServiceSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceSuite))
}

func (s *CompanyServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, nil, logger)
}

func (s *CompanyServiceSuite) create(name string) *Company {
	company, err := s.svc.Create(context.Background(), &Company{CompanyName: name})
	s.Require().NoError(err)
	return company
}

func (s *CompanyServiceSuite) TestCreate() {
	s.Run("derives the code from the company name", func() {
		company := s.create("Jubilee Insurance")
		s.Regexp(regexp.MustCompile(`^INS-JUB-\d{4}$`), company.Code)
		s.Equal(KycIncomplete, company.KycStatus)
	})

	s.Run("keeps a supplied code", func() {
		company, err := s.svc.Create(context.Background(), &Company{
			CompanyName: "Britam General",
			Code:        "INS-BRI-0001",
		})
		s.Require().NoError(err)
		s.Equal("INS-BRI-0001", company.Code)
	})

	s.Run("duplicate name is a conflict", func() {
		s.create("CIC Group")
		_, err := s.svc.Create(context.Background(), &Company{CompanyName: "CIC Group"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "a company with this name already exists")
	})

	s.Run("duplicate phone is a conflict", func() {
		_, err := s.svc.Create(context.Background(), &Company{
			CompanyName: "First Underwriter",
			PhoneNumber: "+254712345678",
		})
		s.Require().NoError(err)
		_, err = s.svc.Create(context.Background(), &Company{
			CompanyName: "Second Underwriter",
			PhoneNumber: "+254712345678",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "phone number must be unique")
	})

	s.Run("requires a country code on the phone", func() {
		_, err := s.svc.Create(context.Background(), &Company{
			CompanyName: "Local Phone Ltd",
			PhoneNumber: "0712345678",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("validates contact persons", func() {
		_, err := s.svc.Create(context.Background(), &Company{
			CompanyName:   "Contactless Ltd",
			ContactPeople: []ContactPerson{{PhoneNumber: "+254700000001"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CompanyServiceSuite) TestKycUpload() {
	company := s.create("Heritage Insurance")

	s.Run("empty upload is a bad request", func() {
		_, err := s.svc.UploadKYC(context.Background(), company.ID.Hex(), KycDocuments{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("partial bundle stays incomplete", func() {
		got, err := s.svc.UploadKYC(context.Background(), company.ID.Hex(), KycDocuments{
			License: "uploads/license.pdf",
		})
		s.Require().NoError(err)
		s.Equal(KycIncomplete, got.KycStatus)
		s.Equal("uploads/license.pdf", got.KycDocuments.License)
	})

	s.Run("completing the bundle moves status to pending", func() {
		got, err := s.svc.UploadKYC(context.Background(), company.ID.Hex(), KycDocuments{
			Registration: "uploads/registration.pdf",
			TaxClearance: "uploads/tax.pdf",
		})
		s.Require().NoError(err)
		s.Equal(KycPending, got.KycStatus)
		s.Equal("uploads/license.pdf", got.KycDocuments.License)
	})
}

func (s *CompanyServiceSuite) TestListAndFilter() {
	s.create("Jubilee Insurance")
	second := s.create("Madison General")
	second.KycStatus = KycPending
	s.Require().NoError(s.store.Replace(context.Background(), second))

	s.Run("search matches the company name", func() {
		page, err := s.svc.List(context.Background(), url.Values{"search": {"madison"}})
		s.Require().NoError(err)
		s.Require().Len(page.Companies, 1)
		s.Equal("Madison General", page.Companies[0].CompanyName)
	})

	s.Run("kycStatus filters via passthrough", func() {
		page, err := s.svc.List(context.Background(), url.Values{"kycStatus": {"Pending"}})
		s.Require().NoError(err)
		s.Require().Len(page.Companies, 1)
		s.Equal("Madison General", page.Companies[0].CompanyName)
	})

	s.Run("unfiltered list returns everything", func() {
		page, err := s.svc.List(context.Background(), url.Values{})
		s.Require().NoError(err)
		s.Len(page.Companies, 2)
		s.EqualValues(2, page.Total)
	})
}

func (s *CompanyServiceSuite) TestUpdate() {
	company := s.create("Old Mutual")

	s.Run("merges the patch and keeps the code", func() {
		got, err := s.svc.Update(context.Background(), company.ID.Hex(),
			[]byte(`{"email":"info@oldmutual.co.ke","code":"INS-HAX-9999"}`))
		s.Require().NoError(err)
		s.Equal("info@oldmutual.co.ke", got.Email)
		s.Equal(company.Code, got.Code)
	})

	s.Run("rejects an invalid patched phone", func() {
		_, err := s.svc.Update(context.Background(), company.ID.Hex(),
			[]byte(`{"phoneNumber":"12345"}`))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.svc.Get(context.Background(), "64b0c8f2a4e5d6c7b8a90000")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delete removes the company", func() {
		s.Require().NoError(s.svc.Delete(context.Background(), company.ID.Hex()))
		_, err := s.svc.Get(context.Background(), company.ID.Hex())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
