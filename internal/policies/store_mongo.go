package policies

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

// MongoStore persists policies in the policies collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("policies")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "policyNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "client", Value: 1}}},
		{Keys: bson.D{{Key: "group", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, policy *Policy) error {
	if policy.ID.IsZero() {
		policy.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	policy.CreatedAt = now
	policy.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, policy)
	return mongodb.MapDuplicate(err, "policyNumber")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Policy, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var policy Policy
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&policy)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *MongoStore) Replace(ctx context.Context, policy *Policy) error {
	policy.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": policy.ID}, policy)
	if err != nil {
		return mongodb.MapDuplicate(err, "policyNumber")
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Policy, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	policies := []Policy{}
	if err := cursor.All(ctx, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}
