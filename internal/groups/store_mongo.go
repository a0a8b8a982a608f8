package groups

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brokerage/internal/platform/mongodb"
	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// MongoStore persists groups in the groups collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("groups")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "groupCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "members.clientId", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, group *Group) error {
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	if group.Members == nil {
		group.Members = []Member{}
	}
	now := requestcontext.Now(ctx)
	group.CreatedAt = now
	group.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, group)
	return mongodb.MapDuplicate(err, "groupCode")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Group, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var group Group
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *MongoStore) Replace(ctx context.Context, group *Group) error {
	group.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": group.ID}, group)
	if err != nil {
		return mongodb.MapDuplicate(err, "groupCode")
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Group, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	groups := []Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}

func (s *MongoStore) ForClient(ctx context.Context, clientID string) ([]Group, error) {
	oid, err := mongodb.ParseID(clientID)
	if err != nil {
		return nil, err
	}
	cursor, err := s.coll.Find(ctx, bson.M{"members.clientId": oid})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	groups := []Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
