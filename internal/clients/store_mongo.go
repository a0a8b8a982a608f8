package clients

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

// MongoStore persists clients in the clients collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("clients")}
}

// EnsureIndexes creates the unique clientCode index and the sparse unique
// phone index. Sparse so that clients without a phone don't collide on null.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, client *Client) error {
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	client.CreatedAt = now
	client.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, client)
	return mongodb.MapDuplicate(err, "clientCode", "phoneNumber")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Client, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var client Client
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&client)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *MongoStore) Replace(ctx context.Context, client *Client) error {
	client.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": client.ID}, client)
	if err != nil {
		return mongodb.MapDuplicate(err, "clientCode", "phoneNumber")
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]Client, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	clients := []Client{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}
