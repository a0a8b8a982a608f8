// Package groups owns named collections of clients. Membership is an
// embedded list with add/remove operations that enforce client existence and
// no-duplicate-member.
package groups

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

// Member types use the lowercase spelling the membership API accepts.
const (
	MemberIndividual = "individual"
	MemberCorporate  = "corporate"
)

// MemberClient is the denormalized client summary attached to members on
// detail reads.
type MemberClient struct {
	ClientCode  string `json:"clientCode"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Member is one embedded membership entry.
type Member struct {
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	ClientType string             `bson:"clientType" json:"clientType"`
	Client     *MemberClient      `bson:"-" json:"client,omitempty"`
}

// Group is a named collection of member references.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	GroupCode   string             `bson:"groupCode,omitempty" json:"groupCode,omitempty"`
	GroupName   string             `bson:"groupName" json:"groupName"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Members     []Member           `bson:"members" json:"members"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the group invariants.
func (g *Group) Validate() error {
	if g.GroupName == "" {
		return dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	for _, member := range g.Members {
		if member.ClientID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "member client id is required")
		}
		if member.ClientType != MemberIndividual && member.ClientType != MemberCorporate {
			return dErrors.Newf(dErrors.CodeValidation, "invalid member client type %q", member.ClientType)
		}
	}
	return nil
}

// HasMember reports whether the client already belongs to the group.
func (g *Group) HasMember(clientID string) bool {
	for _, member := range g.Members {
		if member.ClientID.Hex() == clientID {
			return true
		}
	}
	return false
}
