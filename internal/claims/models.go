// Package claims owns the claim forms lodged against risk notes, from draft
// capture through the review states.
package claims

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

// Status is the claim review state.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusSubmitted  Status = "Submitted"
	StatusProcessing Status = "Processing"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ClaimType classifies the claim form variant.
type ClaimType string

const (
	TypeWindscreen ClaimType = "Windscreen"
	TypeAccident   ClaimType = "Accident"
	TypeOther      ClaimType = "Other"
)

func (t ClaimType) Valid() bool {
	switch t {
	case TypeWindscreen, TypeAccident, TypeOther:
		return true
	}
	return false
}

// PolicyInfo is the cover particulars as declared on the claim form.
type PolicyInfo struct {
	PolicyNumber string `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	PeriodFrom   string `bson:"periodFrom,omitempty" json:"periodFrom,omitempty"`
	PeriodTo     string `bson:"periodTo,omitempty" json:"periodTo,omitempty"`
	Financier    string `bson:"financier,omitempty" json:"financier,omitempty"`
	CoverType    string `bson:"coverType,omitempty" json:"coverType,omitempty"`
}

// VehicleInfo identifies the insured vehicle on the claim form.
type VehicleInfo struct {
	RegistrationNumber        string `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	MakeModel                 string `bson:"makeModel,omitempty" json:"makeModel,omitempty"`
	YearOfManufacture         string `bson:"yearOfManufacture,omitempty" json:"yearOfManufacture,omitempty"`
	CarryingCapacity          string `bson:"carryingCapacity,omitempty" json:"carryingCapacity,omitempty"`
	TrailerRegistrationNumber string `bson:"trailerRegistrationNumber,omitempty" json:"trailerRegistrationNumber,omitempty"`
	TrailerCapacity           string `bson:"trailerCapacity,omitempty" json:"trailerCapacity,omitempty"`
	UsePurpose                string `bson:"usePurpose,omitempty" json:"usePurpose,omitempty"`
	OnHire                    bool   `bson:"onHire" json:"onHire"`
}

// CommercialVehicleInfo covers goods-carrying specifics.
type CommercialVehicleInfo struct {
	TypeOfGoods               string `bson:"typeOfGoods,omitempty" json:"typeOfGoods,omitempty"`
	OwnerOfGoods              string `bson:"ownerOfGoods,omitempty" json:"ownerOfGoods,omitempty"`
	TrailerAttached           bool   `bson:"trailerAttached" json:"trailerAttached"`
	TrailerRegistration       string `bson:"trailerRegistration,omitempty" json:"trailerRegistration,omitempty"`
	UsedWithOwnerConsent      bool   `bson:"usedWithOwnerConsent" json:"usedWithOwnerConsent"`
	CarryingPassengersForHire bool   `bson:"carryingPassengersForHire" json:"carryingPassengersForHire"`
	NumberOfPassengers        int    `bson:"numberOfPassengers" json:"numberOfPassengers"`
	PurposeIfNotCarriage      string `bson:"purposeIfNotCarriage,omitempty" json:"purposeIfNotCarriage,omitempty"`
}

// DriverInfo is the driver declaration section.
type DriverInfo struct {
	FullName                string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Address                 string `bson:"address,omitempty" json:"address,omitempty"`
	Occupation              string `bson:"occupation,omitempty" json:"occupation,omitempty"`
	DateOfBirth             string `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	RelationshipToInsured   string `bson:"relationshipToInsured,omitempty" json:"relationshipToInsured,omitempty"`
	DrivingExperience       string `bson:"drivingExperience,omitempty" json:"drivingExperience,omitempty"`
	LicenseType             string `bson:"licenseType,omitempty" json:"licenseType,omitempty"`
	LicenseObtainedDate     string `bson:"licenseObtainedDate,omitempty" json:"licenseObtainedDate,omitempty"`
	LicenseNumber           string `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`
	LicenseExpiryDate       string `bson:"licenseExpiryDate,omitempty" json:"licenseExpiryDate,omitempty"`
	OffenseHistory          string `bson:"offenseHistory,omitempty" json:"offenseHistory,omitempty"`
	PreviousAccidents       bool   `bson:"previousAccidents" json:"previousAccidents"`
	PreviousAccidentDetails string `bson:"previousAccidentDetails,omitempty" json:"previousAccidentDetails,omitempty"`
	DrivingWithConsent      bool   `bson:"drivingWithConsent" json:"drivingWithConsent"`
	BlamedForAccident       bool   `bson:"blamedForAccident" json:"blamedForAccident"`
	AdmittedLiability       bool   `bson:"admittedLiability" json:"admittedLiability"`
	PhysicalDefect          string `bson:"physicalDefect,omitempty" json:"physicalDefect,omitempty"`
	UnderInfluence          bool   `bson:"underInfluence" json:"underInfluence"`
	LicenseSuspended        bool   `bson:"licenseSuspended" json:"licenseSuspended"`
	SuspensionDetails       string `bson:"suspensionDetails,omitempty" json:"suspensionDetails,omitempty"`
}

// AccidentInfo is the accident narrative section.
type AccidentInfo struct {
	Date                     string `bson:"date,omitempty" json:"date,omitempty"`
	Time                     string `bson:"time,omitempty" json:"time,omitempty"`
	Place                    string `bson:"place,omitempty" json:"place,omitempty"`
	RoadSurface              string `bson:"roadSurface,omitempty" json:"roadSurface,omitempty"`
	Visibility               string `bson:"visibility,omitempty" json:"visibility,omitempty"`
	SpeedOfInsuredVehicle    string `bson:"speedOfInsuredVehicle,omitempty" json:"speedOfInsuredVehicle,omitempty"`
	SpeedOfOtherVehicle      string `bson:"speedOfOtherVehicle,omitempty" json:"speedOfOtherVehicle,omitempty"`
	WarningGivenByYou        string `bson:"warningGivenByYou,omitempty" json:"warningGivenByYou,omitempty"`
	WarningGivenByOtherParty string `bson:"warningGivenByOtherParty,omitempty" json:"warningGivenByOtherParty,omitempty"`
	ReportedToPolice         bool   `bson:"reportedToPolice" json:"reportedToPolice"`
	PoliceStation            string `bson:"policeStation,omitempty" json:"policeStation,omitempty"`
	PoliceOfficerDetails     string `bson:"policeOfficerDetails,omitempty" json:"policeOfficerDetails,omitempty"`
	AlcoholDrugTest          string `bson:"alcoholDrugTest,omitempty" json:"alcoholDrugTest,omitempty"`
	PoliceStateWhoToBlame    string `bson:"policeStateWhoToBlame,omitempty" json:"policeStateWhoToBlame,omitempty"`
	SketchPlan               string `bson:"sketchPlan,omitempty" json:"sketchPlan,omitempty"`
	DriverStatement          string `bson:"driverStatement,omitempty" json:"driverStatement,omitempty"`
	OwnerStatement           string `bson:"ownerStatement,omitempty" json:"ownerStatement,omitempty"`
}

// WindscreenInfo is the windscreen claim section.
type WindscreenInfo struct {
	Date            string `bson:"date,omitempty" json:"date,omitempty"`
	DriverName      string `bson:"driverName,omitempty" json:"driverName,omitempty"`
	LicenseNo       string `bson:"licenseNo,omitempty" json:"licenseNo,omitempty"`
	IncidentDesc    string `bson:"incidentDesc,omitempty" json:"incidentDesc,omitempty"`
	Repairer        string `bson:"repairer,omitempty" json:"repairer,omitempty"`
	ReplacementCost string `bson:"replacementCost,omitempty" json:"replacementCost,omitempty"`
}

// DamageInfo describes the damage and inspection arrangements.
type DamageInfo struct {
	NatureOfDamage     string `bson:"natureOfDamage,omitempty" json:"natureOfDamage,omitempty"`
	InspectionLocation string `bson:"inspectionLocation,omitempty" json:"inspectionLocation,omitempty"`
	InspectionDateTime string `bson:"inspectionDateTime,omitempty" json:"inspectionDateTime,omitempty"`
}

// VehicleInvolved is a third-party vehicle in the incident.
type VehicleInvolved struct {
	RegistrationNumber string `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	MakeType           string `bson:"makeType,omitempty" json:"makeType,omitempty"`
	OwnerName          string `bson:"ownerName,omitempty" json:"ownerName,omitempty"`
	OwnerAddress       string `bson:"ownerAddress,omitempty" json:"ownerAddress,omitempty"`
	Insurer            string `bson:"insurer,omitempty" json:"insurer,omitempty"`
	PolicyNumber       string `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
}

// InjuredPerson records a person injured in the incident.
type InjuredPerson struct {
	Name           string `bson:"name,omitempty" json:"name,omitempty"`
	Address        string `bson:"address,omitempty" json:"address,omitempty"`
	NatureOfInjury string `bson:"natureOfInjury,omitempty" json:"natureOfInjury,omitempty"`
	InOutPatient   string `bson:"inOutPatient,omitempty" json:"inOutPatient,omitempty"`
}

// Documents collects the supporting document references.
type Documents struct {
	PoliceAbstractURL string   `bson:"policeAbstractUrl,omitempty" json:"policeAbstractUrl,omitempty"`
	DriverLicenseURL  string   `bson:"driverLicenseUrl,omitempty" json:"driverLicenseUrl,omitempty"`
	VehicleLogbookURL string   `bson:"vehicleLogbookUrl,omitempty" json:"vehicleLogbookUrl,omitempty"`
	PsvLicenseURL     string   `bson:"psvLicenseUrl,omitempty" json:"psvLicenseUrl,omitempty"`
	OtherDocuments    []string `bson:"otherDocuments,omitempty" json:"otherDocuments,omitempty"`
}

// NoteClient is the client slice of the referenced risk note summary.
type NoteClient struct {
	ID        primitive.ObjectID `json:"_id"`
	FirstName string             `json:"firstName,omitempty"`
	LastName  string             `json:"lastName,omitempty"`
	Email     string             `json:"email,omitempty"`
	Phone     string             `json:"phone,omitempty"`
}

// NoteCompany is the underwriter slice of the referenced risk note summary.
type NoteCompany struct {
	ID          primitive.ObjectID `json:"_id"`
	CompanyName string             `json:"companyName"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
}

// RiskNoteSummary is the referenced risk note attached on reads.
type RiskNoteSummary struct {
	ID           primitive.ObjectID `json:"_id"`
	PolicyNumber string             `json:"policyNumber"`
	StartDate    time.Time          `json:"startDate,omitempty"`
	EndDate      time.Time          `json:"endDate,omitempty"`
	Client       *NoteClient        `json:"client,omitempty"`
	Company      *NoteCompany       `json:"insuranceCompany,omitempty"`
}

// Claim is one claim form lodged against a risk note.
type Claim struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ClaimNumber string             `bson:"claimNumber,omitempty" json:"claimNumber,omitempty"`
	Status      Status             `bson:"status" json:"status"`
	PolicyID    primitive.ObjectID `bson:"policyId" json:"policyId"`
	ClaimType   ClaimType          `bson:"claimType,omitempty" json:"claimType,omitempty"`

	Policy            PolicyInfo             `bson:"policy,omitempty" json:"policy,omitempty"`
	Vehicle           VehicleInfo            `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	CommercialVehicle *CommercialVehicleInfo `bson:"commercialVehicle,omitempty" json:"commercialVehicle,omitempty"`
	Driver            DriverInfo             `bson:"driver,omitempty" json:"driver,omitempty"`
	AccidentDetails   *AccidentInfo          `bson:"accidentDetails,omitempty" json:"accidentDetails,omitempty"`
	WindscreenDetails *WindscreenInfo        `bson:"windscreenDetails,omitempty" json:"windscreenDetails,omitempty"`
	DamageDetails     DamageInfo             `bson:"damageDetails,omitempty" json:"damageDetails,omitempty"`

	OtherVehiclesInvolved []VehicleInvolved `bson:"otherVehiclesInvolved,omitempty" json:"otherVehiclesInvolved,omitempty"`
	PersonsInjured        []InjuredPerson   `bson:"personsInjured,omitempty" json:"personsInjured,omitempty"`
	Documents             Documents          `bson:"documents,omitempty" json:"documents,omitempty"`

	DeclarationAccepted      bool   `bson:"declarationAccepted" json:"declarationAccepted"`
	DeclarationDate          string `bson:"declarationDate,omitempty" json:"declarationDate,omitempty"`
	DriverSignatureURL       string `bson:"driverSignatureUrl,omitempty" json:"driverSignatureUrl,omitempty"`
	PolicyHolderSignatureURL string `bson:"policyHolderSignatureUrl,omitempty" json:"policyHolderSignatureUrl,omitempty"`

	// Attached on reads, never persisted.
	PolicyDetail *RiskNoteSummary `bson:"-" json:"policyDetail,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the claim invariants.
func (c *Claim) Validate() error {
	if c.PolicyID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "risk note reference is required")
	}
	if c.ClaimType != "" && !c.ClaimType.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid claim type")
	}
	if !c.Status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid claim status")
	}
	return nil
}

func (c *Claim) applyDefaults() {
	if c.Status == "" {
		c.Status = StatusDraft
	}
}
