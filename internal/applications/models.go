// Package applications owns the inbound insurance applications captured from
// the public intake form.
package applications

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/validate"
)

// Status is the application review state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// coverageTypes is the closed set of cover the intake form offers.
var coverageTypes = map[string]bool{
	"health": true,
	"life":   true,
	"auto":   true,
	"home":   true,
}

// Application is one inbound request for cover.
type Application struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ClientName      string             `bson:"clientName" json:"clientName"`
	ClientEmail     string             `bson:"clientEmail" json:"clientEmail"`
	CoverageType    string             `bson:"coverageType" json:"coverageType"`
	PremiumAmount   float64            `bson:"premiumAmount" json:"premiumAmount"`
	Status          Status             `bson:"status" json:"status"`
	ApplicationDate time.Time          `bson:"applicationDate" json:"applicationDate"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the application invariants.
func (a *Application) Validate() error {
	if a.ClientName == "" {
		return dErrors.New(dErrors.CodeValidation, "client name is required")
	}
	if a.ClientEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "client email is required")
	}
	if !validate.Email(a.ClientEmail) {
		return dErrors.New(dErrors.CodeValidation, "please enter a valid email")
	}
	if !coverageTypes[a.CoverageType] {
		return dErrors.New(dErrors.CodeValidation, "coverage type is required")
	}
	if a.PremiumAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "premium amount cannot be negative")
	}
	if !a.Status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid application status")
	}
	return nil
}

func (a *Application) applyDefaults(now time.Time) {
	a.ClientEmail = strings.ToLower(a.ClientEmail)
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.ApplicationDate.IsZero() {
		a.ApplicationDate = now
	}
}
