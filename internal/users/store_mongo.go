package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brokerage/internal/platform/mongodb"
	"brokerage/internal/query"
	"brokerage/pkg/platform/sentinel"
	"brokerage/pkg/requestcontext"
)

// MongoStore persists accounts in the users collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique phone index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, user)
	return mongodb.MapDuplicate(err, "phoneNumber")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	return s.findOne(ctx, bson.M{"phoneNumber": phoneNumber})
}

func (s *MongoStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error) {
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":  tokenHash,
		"resetPasswordExpire": bson.M{"$gt": now},
	})
}

func (s *MongoStore) Replace(ctx context.Context, user *User) error {
	user.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mongodb.MapDuplicate(err, "phoneNumber")
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]User, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
