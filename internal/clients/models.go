// Package clients owns client records: individuals, corporates and the
// umbrella records that represent groups of either. List and detail reads
// are enriched with the groups a client belongs to and the risk notes
// written against it.
package clients

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/validate"
)

// Type discriminates the client record shape.
type Type string

const (
	TypeIndividual Type = "Individual"
	TypeCorporate  Type = "Corporate"
	TypeGroup      Type = "Group"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIndividual, TypeCorporate, TypeGroup:
		return true
	}
	return false
}

// KycStatus tracks compliance vetting of the client's documents.
type KycStatus string

const (
	KycComplete   KycStatus = "Complete"
	KycIncomplete KycStatus = "Incomplete"
	KycPending    KycStatus = "Pending"
	KycRejected   KycStatus = "Rejected"
)

// AccountStatus is the client's standing with the brokerage.
type AccountStatus string

const (
	AccountActive    AccountStatus = "Active"
	AccountInactive  AccountStatus = "Inactive"
	AccountPending   AccountStatus = "Pending"
	AccountSuspended AccountStatus = "Suspended"
)

// Department classifies a contact person within a corporate client.
type Department string

const (
	DeptSales           Department = "Sales"
	DeptFinance         Department = "Finance"
	DeptOperations      Department = "Operations"
	DeptMarketing       Department = "Marketing"
	DeptHumanResources  Department = "Human Resources"
	DeptCustomerService Department = "Customer Service"
	DeptLegal           Department = "Legal"
	DeptIT              Department = "IT"
	DeptOther           Department = "Other"
)

// ContactPerson is an embedded contact within a client record.
type ContactPerson struct {
	Name          string     `bson:"name" json:"name"`
	PhoneNumber   string     `bson:"phoneNumber" json:"phoneNumber"`
	Email         string     `bson:"email,omitempty" json:"email,omitempty"`
	Department    Department `bson:"department,omitempty" json:"department,omitempty"`
	IsMainContact bool       `bson:"isMainContact" json:"isMainContact"`
}

// GroupRef is the denormalized group summary attached on enrichment.
type GroupRef struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	GroupCode string `json:"groupCode"`
}

// PolicyRef is the denormalized risk-note summary attached on enrichment.
type PolicyRef struct {
	PolicyID     string `json:"policyId"`
	PolicyNumber string `json:"policyNumber"`
	PolicyType   string `json:"policyType"`
	SubCategory  string `json:"subCategory,omitempty"`
	Status       string `json:"status"`
}

// Client is the identity record for anyone who can hold cover.
// Individual-specific and corporate-specific fields coexist; Validate
// enforces the ones the clientType requires. Groups and Policies are
// enrichment outputs, never persisted.
type Client struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ClientCode    string             `bson:"clientCode,omitempty" json:"clientCode,omitempty"`
	ClientType    Type               `bson:"clientType" json:"clientType"`
	FirstName     string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	MiddleName    string             `bson:"middleName,omitempty" json:"middleName,omitempty"`
	LastName      string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	DateOfBirth   *time.Time         `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Occupation    string             `bson:"occupation,omitempty" json:"occupation,omitempty"`
	CompanyName   string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	PostalAddress string             `bson:"postalAddress,omitempty" json:"postalAddress,omitempty"`
	PhysicalAddr  string             `bson:"physicalAddress,omitempty" json:"physicalAddress,omitempty"`
	Coordinates   string             `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	PhoneNumber   string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	ContactPeople []ContactPerson    `bson:"contactPersons,omitempty" json:"contactPersons,omitempty"`
	ReferredBy    string             `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	KycDocuments  []string           `bson:"kycDocuments,omitempty" json:"kycDocuments,omitempty"`
	KycStatus     KycStatus          `bson:"kycStatus" json:"kycStatus"`
	AccountStatus AccountStatus      `bson:"accountStatus" json:"accountStatus"`
	IsGroup       bool               `bson:"isGroup" json:"isGroup"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	Groups   []GroupRef  `bson:"-" json:"groups,omitempty"`
	Policies []PolicyRef `bson:"-" json:"policies,omitempty"`
}

// DisplayName is the sort key for the virtual "name" sort: individuals by
// first+last, corporates and groups by company name.
func (c *Client) DisplayName() string {
	if c.ClientType == TypeIndividual {
		return c.FirstName + " " + c.LastName
	}
	return c.CompanyName
}

// Validate enforces the type-discriminated invariants.
func (c *Client) Validate() error {
	if !c.ClientType.Valid() {
		return dErrors.New(dErrors.CodeValidation, "please specify client type")
	}
	if c.ClientType == TypeIndividual && (c.FirstName == "" || c.LastName == "") {
		return dErrors.New(dErrors.CodeValidation, "first name and last name are required for individual clients")
	}
	if c.ClientType == TypeCorporate && c.CompanyName == "" {
		return dErrors.New(dErrors.CodeValidation, "company name is required for corporate clients")
	}
	if c.PhoneNumber != "" && !validate.Phone(c.PhoneNumber) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid phone number")
	}
	if c.Email != "" && !validate.Email(c.Email) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid email")
	}
	for _, person := range c.ContactPeople {
		if person.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "please provide contact person name")
		}
		if !validate.Phone(person.PhoneNumber) {
			return dErrors.New(dErrors.CodeValidation, "please provide a valid contact person phone number")
		}
		if person.Email != "" && !validate.Email(person.Email) {
			return dErrors.New(dErrors.CodeValidation, "please provide a valid contact person email")
		}
	}
	return nil
}

// applyDefaults fills the enumerated defaults on creation.
func (c *Client) applyDefaults() {
	if c.KycStatus == "" {
		c.KycStatus = KycIncomplete
	}
	if c.AccountStatus == "" {
		c.AccountStatus = AccountPending
	}
	for i := range c.ContactPeople {
		if c.ContactPeople[i].Department == "" {
			c.ContactPeople[i].Department = DeptOther
		}
	}
}
