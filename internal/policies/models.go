// Package policies owns the generic policy records the brokerage issues
// against a client or a group, including the renewal lifecycle.
package policies

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

// Type is the line of business a policy covers.
type Type string

const (
	TypeHome     Type = "Home"
	TypeLife     Type = "Life"
	TypeBusiness Type = "Business"
	TypeAuto     Type = "Auto"
)

func (t Type) Valid() bool {
	switch t {
	case TypeHome, TypeLife, TypeBusiness, TypeAuto:
		return true
	}
	return false
}

// Status is the policy lifecycle state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusPending   Status = "Pending"
	StatusExpired   Status = "Expired"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// PaymentFrequency is how often the premium falls due.
type PaymentFrequency string

const (
	PayMonthly      PaymentFrequency = "Monthly"
	PayQuarterly    PaymentFrequency = "Quarterly"
	PaySemiAnnually PaymentFrequency = "Semi-Annually"
	PayAnnually     PaymentFrequency = "Annually"
	PayOneTime      PaymentFrequency = "One-Time"
)

func (f PaymentFrequency) Valid() bool {
	switch f {
	case PayMonthly, PayQuarterly, PaySemiAnnually, PayAnnually, PayOneTime:
		return true
	}
	return false
}

// ClientSummary is the slice of a client record attached on reads.
type ClientSummary struct {
	ID          primitive.ObjectID `json:"_id"`
	FirstName   string             `json:"firstName,omitempty"`
	LastName    string             `json:"lastName,omitempty"`
	CompanyName string             `json:"companyName,omitempty"`
	ClientCode  string             `json:"clientCode"`
	ClientType  string             `json:"clientType"`
}

// GroupSummary is the slice of a group record attached on reads.
type GroupSummary struct {
	ID        primitive.ObjectID `json:"_id"`
	GroupName string             `json:"groupName"`
	GroupCode string             `json:"groupCode"`
}

// Policy is cover issued to exactly one client or one group.
type Policy struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id,omitempty"`
	PolicyNumber     string              `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	PolicyType       Type                `bson:"policyType" json:"policyType"`
	ClientID         *primitive.ObjectID `bson:"client,omitempty" json:"client,omitempty"`
	GroupID          *primitive.ObjectID `bson:"group,omitempty" json:"group,omitempty"`
	InsuredItem      string              `bson:"insuredItem" json:"insuredItem"`
	Description      string              `bson:"description,omitempty" json:"description,omitempty"`
	CoverageAmount   float64             `bson:"coverageAmount" json:"coverageAmount"`
	Premium          float64             `bson:"premium" json:"premium"`
	Deductible       float64             `bson:"deductible,omitempty" json:"deductible,omitempty"`
	PaymentFrequency PaymentFrequency    `bson:"paymentFrequency" json:"paymentFrequency"`
	StartDate        time.Time           `bson:"startDate" json:"startDate"`
	EndDate          time.Time           `bson:"endDate" json:"endDate"`
	Status           Status              `bson:"status" json:"status"`
	Documents        []string            `bson:"documents,omitempty" json:"documents,omitempty"`

	// Attached on reads, never persisted.
	ClientDetail *ClientSummary `bson:"-" json:"clientDetail,omitempty"`
	GroupDetail  *GroupSummary  `bson:"-" json:"groupDetail,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the policy invariants, including the exactly-one-holder
// rule.
func (p *Policy) Validate() error {
	if !p.PolicyType.Valid() {
		return dErrors.New(dErrors.CodeValidation, "please specify policy type")
	}
	if p.ClientID == nil && p.GroupID == nil {
		return dErrors.New(dErrors.CodeValidation, "either client or group must be specified")
	}
	if p.ClientID != nil && p.GroupID != nil {
		return dErrors.New(dErrors.CodeValidation, "a policy cannot cover both a client and a group")
	}
	if p.InsuredItem == "" {
		return dErrors.New(dErrors.CodeValidation, "please specify what is being insured")
	}
	if p.CoverageAmount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "please specify the coverage amount")
	}
	if p.Premium <= 0 {
		return dErrors.New(dErrors.CodeValidation, "please specify the premium amount")
	}
	if !p.PaymentFrequency.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid payment frequency")
	}
	if p.StartDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "please specify when the policy starts")
	}
	if p.EndDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "please specify when the policy ends")
	}
	if !p.Status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid policy status")
	}
	return nil
}

func (p *Policy) applyDefaults() {
	if p.PaymentFrequency == "" {
		p.PaymentFrequency = PayMonthly
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
}
