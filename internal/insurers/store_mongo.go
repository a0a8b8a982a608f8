package insurers

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

// MongoStore persists companies in the insurancecompanies collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("insurancecompanies")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "companyName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, company *Company) error {
	if company.ID.IsZero() {
		company.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	company.CreatedAt = now
	company.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, company)
	return mongodb.MapDuplicate(err, "code", "companyName", "phoneNumber", "email")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Company, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) FindByName(ctx context.Context, companyName string) (*Company, error) {
	return s.findOne(ctx, bson.M{"companyName": companyName})
}

func (s *MongoStore) Replace(ctx context.Context, company *Company) error {
	company.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": company.ID}, company)
	if err != nil {
		return mongodb.MapDuplicate(err, "code", "companyName", "phoneNumber", "email")
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Company, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	companies := []Company{}
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Company, error) {
	var company Company
	err := s.coll.FindOne(ctx, filter).Decode(&company)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
