package applications

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"brokerage/internal/platform/mongodb"
	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// MongoStore persists applications in the applications collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("applications")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, app *Application) error {
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, app)
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Application, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var app Application
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *MongoStore) Replace(ctx context.Context, app *Application) error {
	app.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		return err
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Application, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	apps := []Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}
