// Package users owns back-office accounts: authentication, password reset and
// the admin-managed user CRUD. Every authenticated request resolves its
// subject against this package's store, so a role change takes effect on the
// next request rather than at token expiry.
package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/validate"
)

// Role is the access-control role attached to an account.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleAgent   Role = "Agent"
	RoleSupport Role = "Support"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleSupport:
		return true
	}
	return false
}

// User is a back-office account. PasswordHash and the reset token fields are
// never serialized to JSON; list and detail responses expose the rest.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name                string             `bson:"name" json:"name"`
	PhoneNumber         string             `bson:"phoneNumber" json:"phoneNumber"`
	Email               string             `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash        string             `bson:"password" json:"-"`
	Role                Role               `bson:"role" json:"role"`
	CreatedBy           primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	ResetPasswordToken  string             `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire time.Time          `bson:"resetPasswordExpire,omitempty" json:"-"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the account invariants shared by registration and update.
func (u *User) Validate() error {
	if u.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "please add a name")
	}
	if len(u.Name) > 50 {
		return dErrors.New(dErrors.CodeValidation, "name cannot be more than 50 characters")
	}
	if !validate.Phone(u.PhoneNumber) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid phone number")
	}
	if u.Email != "" && !validate.Email(u.Email) {
		return dErrors.New(dErrors.CodeValidation, "please add a valid email")
	}
	if !u.Role.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid role %q", u.Role)
	}
	return nil
}

// Profile is the sanitized account view returned by auth endpoints.
type Profile struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	PhoneNumber string             `json:"phoneNumber"`
	Role        Role               `json:"role"`
	Email       string             `json:"email,omitempty"`
}

// Profile projects the account down to its public fields.
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		Email:       u.Email,
	}
}

// AuthResult is a successful login or password reset: a signed access token
// plus the account it authenticates.
type AuthResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
