package claims

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brokerage/internal/platform/mongodb"
	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// MongoStore persists claims in the claimpolicies collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("claimpolicies")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "claimNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "policyId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, claim *Claim) error {
	if claim.ID.IsZero() {
		claim.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	claim.CreatedAt = now
	claim.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, claim)
	return mongodb.MapDuplicate(err, "claimNumber")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Claim, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var claim Claim
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&claim)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (s *MongoStore) Replace(ctx context.Context, claim *Claim) error {
	claim.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": claim.ID}, claim)
	if err != nil {
		return mongodb.MapDuplicate(err, "claimNumber")
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Claim, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	claims := []Claim{}
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}

func (s *MongoStore) LastClaimNumber(ctx context.Context, prefix string) (string, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "claimNumber", Value: -1}}).
		SetProjection(bson.D{{Key: "claimNumber", Value: 1}})
	filter := bson.M{"claimNumber": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}
	var doc struct {
		ClaimNumber string `bson:"claimNumber"`
	}
	err := s.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.ClaimNumber, nil
}
