// Package risknotes owns the insurer-facing risk notes: cover placed with an
// insurance company for a client, with the full motor premium computation
// breakdown.
package risknotes

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

// CategoryMotor triggers the motor-specific validation rules.
const CategoryMotor = "Motor"

// motorSubcategories is the closed set of motor risk classes.
var motorSubcategories = map[string]bool{
	"Private":                                true,
	"CommercialOwnGoods":                     true,
	"CommercialGeneralCartage":               true,
	"CommercialInstitutionalVehicle":         true,
	"CommercialSpecialVehicle":               true,
	"CommercialSpecialVehicleThirdPartyOnly": true,
	"CommercialThreeWheeler":                 true,
	"Cycle":                                  true,
	"CycleThirdPartyOnly":                    true,
}

// ValidMotorSubcategory reports whether s is one of the motor risk classes.
func ValidMotorSubcategory(s string) bool { return motorSubcategories[s] }

// MotorDetails identifies the insured vehicle.
type MotorDetails struct {
	RegistrationNumber string `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	Make               string `bson:"make,omitempty" json:"make,omitempty"`
	Model              string `bson:"model,omitempty" json:"model,omitempty"`
	Year               string `bson:"year,omitempty" json:"year,omitempty"`
}

// Complete reports whether every identifying field is present.
func (d *MotorDetails) Complete() bool {
	return d != nil && d.RegistrationNumber != "" && d.Make != "" && d.Model != "" && d.Year != ""
}

// CoverExtras holds the per-benefit amounts (or rates) of the standard motor
// cover extensions.
type CoverExtras struct {
	Recovery            float64 `bson:"recovery" json:"recovery"`
	Windscreen          float64 `bson:"windscreen" json:"windscreen"`
	Entertainment       float64 `bson:"entertainment" json:"entertainment"`
	Repair              float64 `bson:"repair" json:"repair"`
	ThirdPartyProperty  float64 `bson:"thirdPartyProperty" json:"thirdPartyProperty"`
	ThirdPartyPassenger float64 `bson:"thirdPartyPassenger" json:"thirdPartyPassenger"`
	ThirdPartyOthers    float64 `bson:"thirdPartyOthers" json:"thirdPartyOthers"`
}

// OptionalExtras holds the per-benefit limits (or rates) of the optional
// extensions.
type OptionalExtras struct {
	NoBlameNoExcess            float64 `bson:"noBlameNoExcess" json:"noBlameNoExcess"`
	WindscreenMirror           float64 `bson:"windscreenMirror" json:"windscreenMirror"`
	EmergencyMedicalSectionIII float64 `bson:"emergencyMedicalSectionIII" json:"emergencyMedicalSectionIII"`
	ExcessTheft                float64 `bson:"excessTheft" json:"excessTheft"`
	ReturnToInvoice            float64 `bson:"returnToInvoice" json:"returnToInvoice"`
	DriveThrough               float64 `bson:"driveThrough" json:"driveThrough"`
	CarHire                    float64 `bson:"carHire" json:"carHire"`
	PersonalEffects            float64 `bson:"personalEffects" json:"personalEffects"`
	ForcedATM                  float64 `bson:"forcedATM" json:"forcedATM"`
	PersonalAccident           float64 `bson:"personalAccident" json:"personalAccident"`
}

// OptionalToggles selects which optional extensions are included.
type OptionalToggles struct {
	NoBlameNoExcess            bool `bson:"noBlameNoExcess" json:"noBlameNoExcess"`
	WindscreenMirror           bool `bson:"windscreenMirror" json:"windscreenMirror"`
	EmergencyMedicalSectionIII bool `bson:"emergencyMedicalSectionIII" json:"emergencyMedicalSectionIII"`
	ExcessTheft                bool `bson:"excessTheft" json:"excessTheft"`
	ReturnToInvoice            bool `bson:"returnToInvoice" json:"returnToInvoice"`
	DriveThrough               bool `bson:"driveThrough" json:"driveThrough"`
	CarHire                    bool `bson:"carHire" json:"carHire"`
	PersonalEffects            bool `bson:"personalEffects" json:"personalEffects"`
	ForcedATM                  bool `bson:"forcedATM" json:"forcedATM"`
	PersonalAccident           bool `bson:"personalAccident" json:"personalAccident"`
}

// PremiumBreakdown is the full premium computation as captured by the
// placement workflow. Levies and duties are stored, not derived.
type PremiumBreakdown struct {
	PolicyCategory         string          `bson:"policyCategory" json:"policyCategory"`
	SelectedPolicy         string          `bson:"selectedPolicy" json:"selectedPolicy"`
	SumInsured             float64         `bson:"sumInsured" json:"sumInsured"`
	Rate                   float64         `bson:"rate" json:"rate"`
	BasePremium            float64         `bson:"basePremium" json:"basePremium"`
	Terrorism              bool            `bson:"terrorism" json:"terrorism"`
	TerrorismRate          float64         `bson:"terrorismRate" json:"terrorismRate"`
	TerrorismPremium       float64         `bson:"terrorismPremium" json:"terrorismPremium"`
	ExcessProtector        bool            `bson:"excessProtector" json:"excessProtector"`
	ExcessProtectorRate    float64         `bson:"excessProtectorRate" json:"excessProtectorRate"`
	ExcessProtectorPremium float64         `bson:"excessProtectorPremium" json:"excessProtectorPremium"`
	CoverExtras            CoverExtras     `bson:"coverExtras" json:"coverExtras"`
	CoverExtraRates        CoverExtras     `bson:"coverExtraRates" json:"coverExtraRates"`
	CoverExtraPremium      float64         `bson:"coverExtraPremium" json:"coverExtraPremium"`
	OptionalExtLimits      OptionalExtras  `bson:"optionalExtLimits" json:"optionalExtLimits"`
	OptionalExtRates       OptionalExtras  `bson:"optionalExtRates" json:"optionalExtRates"`
	IncludeOptionalExt     OptionalToggles `bson:"includeOptionalExt" json:"includeOptionalExt"`
	OptionalExtPremium     float64         `bson:"optionalExtPremium" json:"optionalExtPremium"`
	TrainingLevy           float64         `bson:"trainingLevy" json:"trainingLevy"`
	PcfLevy                float64         `bson:"pcfLevy" json:"pcfLevy"`
	StampDuty              float64         `bson:"stampDuty" json:"stampDuty"`
	TotalPremium           float64         `bson:"totalPremium" json:"totalPremium"`
}

// ClientSummary is the slice of a client record attached on reads.
type ClientSummary struct {
	ID        primitive.ObjectID `json:"_id"`
	FirstName string             `json:"firstName,omitempty"`
	LastName  string             `json:"lastName,omitempty"`
	Email     string             `json:"email,omitempty"`
	Phone     string             `json:"phone,omitempty"`
}

// CompanySummary is the slice of an insurance company record attached on
// reads.
type CompanySummary struct {
	ID          primitive.ObjectID `json:"_id"`
	CompanyName string             `json:"companyName"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
}

// RiskNote is cover placed with an underwriter for one client.
type RiskNote struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	PolicyNumber     string             `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	ClientID         primitive.ObjectID `bson:"client" json:"client"`
	CompanyID        primitive.ObjectID `bson:"insuranceCompany" json:"insuranceCompany"`
	PolicyCategory   string             `bson:"policyCategory" json:"policyCategory"`
	SubCategory      string             `bson:"subCategory,omitempty" json:"subCategory,omitempty"`
	MotorDetails     *MotorDetails      `bson:"motorDetails,omitempty" json:"motorDetails,omitempty"`
	PremiumBreakdown PremiumBreakdown   `bson:"premiumBreakdown" json:"premiumBreakdown"`
	RiskNoteDocURL   string             `bson:"riskNoteDocUrl,omitempty" json:"riskNoteDocUrl,omitempty"`
	StartDate        time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate          time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`

	// Attached on reads, never persisted.
	ClientDetail  *ClientSummary  `bson:"-" json:"clientDetail,omitempty"`
	CompanyDetail *CompanySummary `bson:"-" json:"insuranceCompanyDetail,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the risk note invariants. The motor rules run here and
// only here, so create and update cannot drift apart.
func (r *RiskNote) Validate() error {
	if r.ClientID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "client is required")
	}
	if r.CompanyID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "insurance company is required")
	}
	if r.PolicyCategory == "" {
		return dErrors.New(dErrors.CodeValidation, "policy category is required")
	}
	if r.PolicyCategory == CategoryMotor {
		if r.SubCategory == "" {
			return dErrors.New(dErrors.CodeValidation, "subcategory is required for Motor policy")
		}
		if !ValidMotorSubcategory(r.SubCategory) {
			return dErrors.New(dErrors.CodeValidation, "invalid subcategory for Motor policy")
		}
		if !r.MotorDetails.Complete() {
			return dErrors.New(dErrors.CodeValidation, "complete motor details are required for Motor policy")
		}
	}
	return r.PremiumBreakdown.validate()
}

func (b *PremiumBreakdown) validate() error {
	if b.PolicyCategory == "" {
		return dErrors.New(dErrors.CodeValidation, "policy category in premium breakdown is required")
	}
	if b.SelectedPolicy == "" {
		return dErrors.New(dErrors.CodeValidation, "selected policy is required")
	}
	if b.SumInsured <= 0 {
		return dErrors.New(dErrors.CodeValidation, "sum insured is required")
	}
	if b.Rate <= 0 {
		return dErrors.New(dErrors.CodeValidation, "rate is required")
	}
	if b.BasePremium <= 0 {
		return dErrors.New(dErrors.CodeValidation, "base premium is required")
	}
	if b.TotalPremium <= 0 {
		return dErrors.New(dErrors.CodeValidation, "total premium is required")
	}
	return nil
}
