// Package insurers owns the insurance company (underwriter) records,
// including the KYC document bundle whose completeness drives the derived
// kycStatus.
package insurers

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/validate"
)

// KycStatus tracks compliance vetting of the underwriter's documents.
type KycStatus string

const (
	KycComplete   KycStatus = "Complete"
	KycIncomplete KycStatus = "Incomplete"
	KycPending    KycStatus = "Pending"
	KycRejected   KycStatus = "Rejected"
)

// ContactPerson is an embedded contact within a company record.
type ContactPerson struct {
	Name          string `bson:"name" json:"name"`
	PhoneNumber   string `bson:"phoneNumber" json:"phoneNumber"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Department    string `bson:"department,omitempty" json:"department,omitempty"`
	IsMainContact bool   `bson:"isMainContact" json:"isMainContact"`
}

// Branch is a physical office of the company.
type Branch struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// KycDocuments is the fixed three-document compliance bundle.
type KycDocuments struct {
	License      string `bson:"license,omitempty" json:"license,omitempty"`
	Registration string `bson:"registration,omitempty" json:"registration,omitempty"`
	TaxClearance string `bson:"taxClearance,omitempty" json:"taxClearance,omitempty"`
}

// Complete reports whether all three documents are on file.
func (d KycDocuments) Complete() bool {
	return d.License != "" && d.Registration != "" && d.TaxClearance != ""
}

// Company is an underwriter the brokerage places cover with.
type Company struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Code          string             `bson:"code,omitempty" json:"code,omitempty"`
	CompanyName   string             `bson:"companyName" json:"companyName"`
	PostalAddress string             `bson:"postalAddress,omitempty" json:"postalAddress,omitempty"`
	PhysicalAddr  string             `bson:"physicalAddress,omitempty" json:"physicalAddress,omitempty"`
	Coordinates   string             `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	PhoneNumber   string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	ContactPeople []ContactPerson    `bson:"contactPersons,omitempty" json:"contactPersons,omitempty"`
	Branches      []Branch           `bson:"branches,omitempty" json:"branches,omitempty"`
	KycDocuments  KycDocuments       `bson:"kycDocuments,omitempty" json:"kycDocuments,omitempty"`
	KycStatus     KycStatus          `bson:"kycStatus" json:"kycStatus"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the company invariants. Company phone numbers must carry
// a country code.
func (c *Company) Validate() error {
	if c.CompanyName == "" {
		return dErrors.New(dErrors.CodeValidation, "company name is required")
	}
	if c.PhoneNumber != "" && !validate.IntlPhone(c.PhoneNumber) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid phone number with country code")
	}
	if c.Email != "" && !validate.Email(c.Email) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid email")
	}
	for _, person := range c.ContactPeople {
		if person.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "please provide contact person name")
		}
		if !validate.IntlPhone(person.PhoneNumber) {
			return dErrors.New(dErrors.CodeValidation, "please provide a valid contact person phone number with country code")
		}
		if person.Email != "" && !validate.Email(person.Email) {
			return dErrors.New(dErrors.CodeValidation, "please provide a valid contact person email")
		}
	}
	return nil
}

func (c *Company) applyDefaults() {
	if c.KycStatus == "" {
		c.KycStatus = KycIncomplete
	}
}
