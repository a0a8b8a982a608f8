package users

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"brokerage/internal/jwttoken"
	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/requestcontext"
)

type UserServiceSuite struct {
	suite.Suite
	store  *InMemoryStore
	tokens *jwttoken.Service
	svc    *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.tokens = jwttoken.NewService("test-signing-key", "brokerage-test", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.tokens, "super-secret-admin-key", nil, logger)
}

func (s *UserServiceSuite) registerAdmin(phone string) *Profile {
	profile, err := s.svc.RegisterAdmin(context.Background(), RegisterInput{
		Name:        "Root Admin",
		PhoneNumber: phone,
		Password:    "password123",
		AdminKey:    "super-secret-admin-key",
	})
	s.Require().NoError(err)
	return profile
}

func (s *UserServiceSuite) adminCtx(adminID string) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), adminID)
	return requestcontext.WithUserRole(ctx, string(RoleAdmin))
}

func (s *UserServiceSuite) TestRegisterAdmin() {
	s.Run("rejects wrong registration key", func() {
		_, err := s.svc.RegisterAdmin(context.Background(), RegisterInput{
			Name:        "Mallory",
			PhoneNumber: "+254700000001",
			Password:    "password123",
			AdminKey:    "wrong",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("creates an admin with the right key", func() {
		profile := s.registerAdmin("+254700000002")
		s.Equal(RoleAdmin, profile.Role)
		s.False(profile.ID.IsZero())
	})

	s.Run("rejects a duplicate phone number", func() {
		s.registerAdmin("+254700000003")
		_, err := s.svc.RegisterAdmin(context.Background(), RegisterInput{
			Name:        "Second",
			PhoneNumber: "+254700000003",
			Password:    "password123",
			AdminKey:    "super-secret-admin-key",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects a short password", func() {
		_, err := s.svc.RegisterAdmin(context.Background(), RegisterInput{
			Name:        "Shorty",
			PhoneNumber: "+254700000004",
			Password:    "abc",
			AdminKey:    "super-secret-admin-key",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *UserServiceSuite) TestLogin() {
	s.registerAdmin("+254711000001")

	s.Run("requires phone and password", func() {
		_, err := s.svc.Login(context.Background(), "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an unknown phone", func() {
		_, err := s.svc.Login(context.Background(), "+254711999999", "password123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects a wrong password", func() {
		_, err := s.svc.Login(context.Background(), "+254711000001", "nope-nope")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("returns a validatable token on success", func() {
		result, err := s.svc.Login(context.Background(), "+254711000001", "password123")
		s.Require().NoError(err)
		claims, err := s.tokens.ValidateToken(result.Token)
		s.Require().NoError(err)
		s.Equal(result.User.ID.Hex(), claims.UserID)
		s.Equal(string(RoleAdmin), claims.Role)
	})
}

func (s *UserServiceSuite) TestPasswordReset() {
	s.registerAdmin("+254722000001")

	s.Run("unknown phone is not found", func() {
		_, err := s.svc.ForgotPassword(context.Background(), "+254722999999")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("token round trip resets the password", func() {
		token, err := s.svc.ForgotPassword(context.Background(), "+254722000001")
		s.Require().NoError(err)
		s.NotEmpty(token)

		result, err := s.svc.ResetPassword(context.Background(), token, "newpassword")
		s.Require().NoError(err)
		s.Equal("+254722000001", result.User.PhoneNumber)

		_, err = s.svc.Login(context.Background(), "+254722000001", "newpassword")
		s.NoError(err)

		// Old password no longer works, token is single-use.
		_, err = s.svc.Login(context.Background(), "+254722000001", "password123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = s.svc.ResetPassword(context.Background(), token, "another")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("expired token is rejected", func() {
		token, err := s.svc.ForgotPassword(context.Background(), "+254722000001")
		s.Require().NoError(err)

		later := requestcontext.WithTime(context.Background(), time.Now().Add(resetTokenLifetime+time.Minute))
		_, err = s.svc.ResetPassword(later, token, "whatever-long")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *UserServiceSuite) TestRoleGuards() {
	admin := s.registerAdmin("+254733000001")
	adminCtx := s.adminCtx(admin.ID.Hex())

	agent, err := s.svc.Register(adminCtx, RegisterInput{
		Name:        "Field Agent",
		PhoneNumber: "+254733000002",
		Password:    "password123",
	})
	s.Require().NoError(err)
	s.Equal(RoleAgent, agent.Role)

	agentCtx := requestcontext.WithUserRole(
		requestcontext.WithUserID(context.Background(), agent.ID.Hex()),
		string(RoleAgent))

	s.Run("non-admin cannot create an admin", func() {
		_, err := s.svc.Register(agentCtx, RegisterInput{
			Name:        "Wannabe",
			PhoneNumber: "+254733000003",
			Password:    "password123",
			Role:        RoleAdmin,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("non-admin cannot promote to admin", func() {
		_, err := s.svc.Update(agentCtx, agent.ID.Hex(), UserUpdate{Role: RoleAdmin})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("non-admin cannot delete an admin", func() {
		err := s.svc.Delete(agentCtx, admin.ID.Hex())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin can change a role", func() {
		updated, err := s.svc.Update(adminCtx, agent.ID.Hex(), UserUpdate{Role: RoleManager})
		s.Require().NoError(err)
		s.Equal(RoleManager, updated.Role)

		role, err := s.svc.LoadSubject(context.Background(), agent.ID.Hex())
		s.Require().NoError(err)
		s.Equal(string(RoleManager), role)
	})
}

func (s *UserServiceSuite) TestList() {
	admin := s.registerAdmin("+254744000001")
	adminCtx := s.adminCtx(admin.ID.Hex())
	for _, in := range []RegisterInput{
		{Name: "Alice Broker", PhoneNumber: "+254744000002", Password: "password123"},
		{Name: "Bob Support", PhoneNumber: "+254744000003", Password: "password123", Role: RoleSupport},
	} {
		_, err := s.svc.Register(adminCtx, in)
		s.Require().NoError(err)
	}

	s.Run("lists everyone with a total", func() {
		page, err := s.svc.List(context.Background(), url.Values{})
		s.Require().NoError(err)
		s.Len(page.Users, 3)
		s.EqualValues(3, page.Total)
	})

	s.Run("search narrows by name", func() {
		page, err := s.svc.List(context.Background(), url.Values{"search": {"alice"}})
		s.Require().NoError(err)
		s.Require().Len(page.Users, 1)
		s.Equal("Alice Broker", page.Users[0].Name)
	})

	s.Run("role passthrough filters exactly", func() {
		page, err := s.svc.List(context.Background(), url.Values{"role": {"Support"}})
		s.Require().NoError(err)
		s.Require().Len(page.Users, 1)
		s.Equal(RoleSupport, page.Users[0].Role)
	})

	s.Run("pagination caps the page", func() {
		page, err := s.svc.List(context.Background(), url.Values{"limit": {"2"}, "page": {"2"}})
		s.Require().NoError(err)
		s.Len(page.Users, 1)
		s.EqualValues(3, page.Total)
	})
}
