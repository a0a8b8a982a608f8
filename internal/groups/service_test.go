package groups

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "brokerage/pkg/domainerrors"
)

type fakeClientDirectory struct {
	known map[string]*MemberClient
}

func (f *fakeClientDirectory) Exists(_ context.Context, clientID string) (bool, error) {
	_, ok := f.known[clientID]
	return ok, nil
}

func (f *fakeClientDirectory) Summarize(_ context.Context, clientID string) (*MemberClient, error) {
	return f.known[clientID], nil
}

type GroupServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	clients *fakeClientDirectory
	svc     *Service
}

func TestGroupServiceSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceSuite))
}

func (s *GroupServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.clients = &fakeClientDirectory{known: map[string]*MemberClient{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.clients, nil, logger)
}

func (s *GroupServiceSuite) knownClient(name string) string {
	id := primitive.NewObjectID().Hex()
	s.clients.known[id] = &MemberClient{Name: name, ClientCode: "CLT-I-123456"}
	return id
}

func (s *GroupServiceSuite) TestCreate() {
	s.Run("generates a group code", func() {
		group, err := s.svc.Create(context.Background(), &Group{GroupName: "Boda Sacco"})
		s.Require().NoError(err)
		s.Regexp(regexp.MustCompile(`^GRP-\d{6}$`), group.GroupCode)
		s.NotNil(group.Members)
	})

	s.Run("requires a name", func() {
		_, err := s.svc.Create(context.Background(), &Group{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects bad member types", func() {
		_, err := s.svc.Create(context.Background(), &Group{
			GroupName: "Bad Members",
			Members:   []Member{{ClientID: primitive.NewObjectID(), ClientType: "Corporate"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *GroupServiceSuite) TestMembership() {
	group, err := s.svc.Create(context.Background(), &Group{GroupName: "Matatu Sacco"})
	s.Require().NoError(err)
	clientID := s.knownClient("Jane Doe")

	s.Run("requires id and type", func() {
		_, err := s.svc.AddMember(context.Background(), group.ID.Hex(), "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("requires an existing client", func() {
		_, err := s.svc.AddMember(context.Background(), group.ID.Hex(), primitive.NewObjectID().Hex(), MemberIndividual)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("adds exactly one entry", func() {
		updated, err := s.svc.AddMember(context.Background(), group.ID.Hex(), clientID, MemberIndividual)
		s.Require().NoError(err)
		s.Require().Len(updated.Members, 1)
		s.Equal(clientID, updated.Members[0].ClientID.Hex())
	})

	s.Run("duplicate member is a conflict", func() {
		_, err := s.svc.AddMember(context.Background(), group.ID.Hex(), clientID, MemberIndividual)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("detail read summarizes members", func() {
		got, err := s.svc.Get(context.Background(), group.ID.Hex())
		s.Require().NoError(err)
		s.Require().Len(got.Members, 1)
		s.Require().NotNil(got.Members[0].Client)
		s.Equal("Jane Doe", got.Members[0].Client.Name)
	})

	s.Run("removing a non-member fails", func() {
		_, err := s.svc.RemoveMember(context.Background(), group.ID.Hex(), primitive.NewObjectID().Hex())
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("remove drops the entry", func() {
		updated, err := s.svc.RemoveMember(context.Background(), group.ID.Hex(), clientID)
		s.Require().NoError(err)
		s.Empty(updated.Members)
	})
}

func (s *GroupServiceSuite) TestListAndReverseLookup() {
	clientID := s.knownClient("Jane Doe")
	first, err := s.svc.Create(context.Background(), &Group{GroupName: "Boda Sacco", Description: "riders"})
	s.Require().NoError(err)
	_, err = s.svc.Create(context.Background(), &Group{GroupName: "Traders Chama"})
	s.Require().NoError(err)
	_, err = s.svc.AddMember(context.Background(), first.ID.Hex(), clientID, MemberIndividual)
	s.Require().NoError(err)

	s.Run("search matches name and description", func() {
		page, err := s.svc.List(context.Background(), url.Values{"search": {"riders"}})
		s.Require().NoError(err)
		s.Require().Len(page.Groups, 1)
		s.Equal(first.ID, page.Groups[0].ID)
	})

	s.Run("for-client finds containing groups", func() {
		groups, err := s.svc.ForClient(context.Background(), clientID)
		s.Require().NoError(err)
		s.Require().Len(groups, 1)
		s.Equal(first.ID, groups[0].ID)
	})

	s.Run("for-client with no memberships is empty", func() {
		groups, err := s.svc.ForClient(context.Background(), primitive.NewObjectID().Hex())
		s.Require().NoError(err)
		s.Empty(groups)
	})
}
