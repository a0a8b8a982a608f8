package insurers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"brokerage/internal/codegen"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// Service orchestrates insurance company CRUD and KYC vetting.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, metrics: m, logger: logger}
}

// Create validates and inserts a company, generating its code from the
// company name when absent.
func (s *Service) Create(ctx context.Context, company *Company) (*Company, error) {
	company.applyDefaults()
	if err := company.Validate(); err != nil {
		return nil, err
	}
	var err error
	if company.Code == "" {
		err = codegen.InsertWithRetry(ctx, "code",
			func() string { return codegen.CompanyCode(company.CompanyName) },
			func(code string) { company.Code = code },
			func(ctx context.Context) error { return s.store.Insert(ctx, company) })
	} else {
		err = s.store.Insert(ctx, company)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, duplicateCompanyErr(err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create insurance company")
	}
	s.metrics.IncrementCreated("insurance_company")
	s.logger.InfoContext(ctx, "insurance company created",
		"company_code", company.Code,
		"request_id", requestcontext.RequestID(ctx))
	return company, nil
}

// Page is one page of companies plus the inputs needed to render pagination.
type Page struct {
	Companies []Company
	Total     int64
	Params    query.Params
}

// List returns companies matching the raw query string. kycStatus filters
// via the equality passthrough.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: []string{
			"companyName", "code", "phoneNumber", "email",
			"contactPersons.name", "branches.name",
		},
		DateRanges: map[string]string{"created": "createdAt", "updated": "updatedAt"},
	})
	companies, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list insurance companies")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count insurance companies")
	}
	return &Page{Companies: companies, Total: total, Params: p}, nil
}

// Get returns one company.
func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	company, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapCompanyErr(err)
	}
	return company, nil
}

// Update merges the patch into the stored company; code and creation time
// are immutable.
func (s *Service) Update(ctx context.Context, id string, patch json.RawMessage) (*Company, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapCompanyErr(err)
	}
	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	updated.ID = existing.ID
	updated.Code = existing.Code
	updated.CreatedAt = existing.CreatedAt
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, &updated); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, duplicateCompanyErr(err)
		}
		return nil, wrapCompanyErr(err)
	}
	s.logger.InfoContext(ctx, "insurance company updated",
		"company_code", updated.Code,
		"request_id", requestcontext.RequestID(ctx))
	return &updated, nil
}

// Delete removes a company.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapCompanyErr(err)
	}
	s.logger.InfoContext(ctx, "insurance company deleted",
		"company_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

// UploadKYC merges uploaded document references into the bundle. Once all
// three documents are on file the status moves to Pending for review.
func (s *Service) UploadKYC(ctx context.Context, id string, docs KycDocuments) (*Company, error) {
	if docs.License == "" && docs.Registration == "" && docs.TaxClearance == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no files were uploaded")
	}
	company, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapCompanyErr(err)
	}
	if docs.License != "" {
		company.KycDocuments.License = docs.License
	}
	if docs.Registration != "" {
		company.KycDocuments.Registration = docs.Registration
	}
	if docs.TaxClearance != "" {
		company.KycDocuments.TaxClearance = docs.TaxClearance
	}
	if company.KycDocuments.Complete() {
		company.KycStatus = KycPending
	}
	if err := s.store.Replace(ctx, company); err != nil {
		return nil, wrapCompanyErr(err)
	}
	s.logger.InfoContext(ctx, "kyc documents uploaded",
		"company_code", company.Code,
		"kyc_status", company.KycStatus,
		"request_id", requestcontext.RequestID(ctx))
	return company, nil
}

func duplicateCompanyErr(err error) error {
	switch sentinel.DuplicateField(err) {
	case "companyName":
		return dErrors.New(dErrors.CodeConflict, "a company with this name already exists")
	case "phoneNumber":
		return dErrors.New(dErrors.CodeConflict, "phone number must be unique")
	case "email":
		return dErrors.New(dErrors.CodeConflict, "email must be unique")
	default:
		return dErrors.New(dErrors.CodeConflict, "company code must be unique")
	}
}

func wrapCompanyErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid insurance company id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "insurance company not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "insurance company store failure")
	}
}
