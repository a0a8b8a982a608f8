package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"brokerage/internal/jwttoken"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/query"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

const resetTokenLifetime = 10 * time.Minute

// Service orchestrates authentication and account management.
type Service struct {
	store            Store
	tokens           *jwttoken.Service
	adminRegisterKey string
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

func NewService(store Store, tokens *jwttoken.Service, adminRegisterKey string, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:            store,
		tokens:           tokens,
		adminRegisterKey: adminRegisterKey,
		metrics:          m,
		logger:           logger,
	}
}

// LoadSubject resolves a token subject to its stored role. Implements the
// auth middleware's subject loader.
func (s *Service) LoadSubject(ctx context.Context, userID string) (string, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return string(user.Role), nil
}

// Login authenticates by phone number and password.
func (s *Service) Login(ctx context.Context, phoneNumber, password string) (*AuthResult, error) {
	if phoneNumber == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "please provide phone number and password")
	}
	user, err := s.store.FindByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return s.authResult(ctx, user)
}

// RegisterInput carries the fields accepted at account creation.
type RegisterInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	AdminKey    string `json:"adminKey"`
}

// RegisterAdmin bootstraps an Admin account. It is the only unauthenticated
// registration path and is gated by the configured registration key.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterInput) (*Profile, error) {
	if s.adminRegisterKey == "" || in.AdminKey != s.adminRegisterKey {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid admin registration key")
	}
	in.Role = RoleAdmin
	return s.register(ctx, in, "")
}

// Register creates an account on behalf of the authenticated caller. Only an
// Admin may mint another Admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	if in.Role == "" {
		in.Role = RoleAgent
	}
	if in.Role == RoleAdmin && requestcontext.UserRole(ctx) != string(RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to create admin users")
	}
	return s.register(ctx, in, requestcontext.UserID(ctx))
}

func (s *Service) register(ctx context.Context, in RegisterInput, createdBy string) (*Profile, error) {
	if len(in.Password) < 6 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	user := &User{
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if createdBy != "" {
		if oid, err := primitive.ObjectIDFromHex(createdBy); err == nil {
			user.CreatedBy = oid
		}
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with that phone number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.metrics.IncrementCreated("user")
	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID.Hex(),
		"role", user.Role,
		"request_id", requestcontext.RequestID(ctx))
	profile := user.Profile()
	return &profile, nil
}

// Me returns the authenticated caller's account.
func (s *Service) Me(ctx context.Context) (*User, error) {
	user, err := s.store.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// ProfileUpdate carries the self-service profile fields. Empty fields are
// left unchanged.
type ProfileUpdate struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// UpdateProfile lets the caller change their own contact details and
// password. Role is deliberately not updatable here.
func (s *Service) UpdateProfile(ctx context.Context, in ProfileUpdate) (*Profile, error) {
	user, err := s.store.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return nil, wrapUserErr(err)
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.PhoneNumber != "" {
		user.PhoneNumber = in.PhoneNumber
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with that phone number already exists")
		}
		return nil, wrapUserErr(err)
	}
	profile := user.Profile()
	return &profile, nil
}

// ForgotPassword issues a reset token for the account holding the phone
// number. The raw token is returned to the caller for delivery; only its
// hash is stored.
func (s *Service) ForgotPassword(ctx context.Context, phoneNumber string) (string, error) {
	user, err := s.store.FindByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "there is no user with that phone number")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate reset token")
	}
	token := hex.EncodeToString(raw)
	user.ResetPasswordToken = hashToken(token)
	user.ResetPasswordExpire = requestcontext.Now(ctx).Add(resetTokenLifetime)
	if err := s.store.Replace(ctx, user); err != nil {
		return "", wrapUserErr(err)
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets a new password, returning a
// fresh login.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (*AuthResult, error) {
	user, err := s.store.FindByResetToken(ctx, hashToken(token), requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid token or token has expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up reset token")
	}
	if len(password) < 6 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = time.Time{}
	if err := s.store.Replace(ctx, user); err != nil {
		return nil, wrapUserErr(err)
	}
	return s.authResult(ctx, user)
}

// Page is one page of accounts plus the inputs needed to render pagination.
type Page struct {
	Users  []User
	Total  int64
	Params query.Params
}

// List returns accounts matching the raw query string.
func (s *Service) List(ctx context.Context, values url.Values) (*Page, error) {
	p := query.Parse(values, query.Options{
		SearchFields: []string{"name", "phoneNumber", "email"},
		DateRanges:   map[string]string{"created": "createdAt", "updated": "updatedAt"},
	})
	users, err := s.store.List(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
	}
	return &Page{Users: users, Total: total, Params: p}, nil
}

// Get returns a single account by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// UserUpdate carries the admin-editable account fields.
type UserUpdate struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Update edits another account. Promoting to Admin requires the caller to be
// an Admin; password changes go through the reset or profile flows instead.
func (s *Service) Update(ctx context.Context, id string, in UserUpdate) (*User, error) {
	if in.Role == RoleAdmin && requestcontext.UserRole(ctx) != string(RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to create admin users")
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.PhoneNumber != "" {
		user.PhoneNumber = in.PhoneNumber
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Role != "" {
		user.Role = in.Role
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with that phone number already exists")
		}
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// Delete removes an account. Deleting an Admin requires the caller to be an
// Admin.
func (s *Service) Delete(ctx context.Context, id string) error {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return wrapUserErr(err)
	}
	if user.Role == RoleAdmin && requestcontext.UserRole(ctx) != string(RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "not authorized to delete admin users")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapUserErr(err)
	}
	s.logger.InfoContext(ctx, "user deleted",
		"user_id", id,
		"request_id", requestcontext.RequestID(ctx))
	return nil
}

func (s *Service) authResult(ctx context.Context, user *User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	s.logger.InfoContext(ctx, "user authenticated",
		"user_id", user.ID.Hex(),
		"request_id", requestcontext.RequestID(ctx))
	return &AuthResult{Token: token, User: user.Profile()}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func wrapUserErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidID):
		return dErrors.New(dErrors.CodeBadRequest, "invalid user id")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}
