package risknotes

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

// MongoStore persists risk notes in the risknotes collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("risknotes")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "policyNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "client", Value: 1}}},
		{Keys: bson.D{{Key: "insuranceCompany", Value: 1}}},
		{Keys: bson.D{{Key: "policyCategory", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, note *RiskNote) error {
	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	now := requestcontext.Now(ctx)
	note.CreatedAt = now
	note.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, note)
	return mongodb.MapDuplicate(err, "policyNumber")
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*RiskNote, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	var note RiskNote
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *MongoStore) Replace(ctx context.Context, note *RiskNote) error {
	note.UpdatedAt = requestcontext.Now(ctx)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": note.ID}, note)
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

func (s *MongoStore) List(ctx context.Context, p query.Params) ([]RiskNote, error) {
	cursor, err := s.coll.Find(ctx, query.ToBSON(p.Filter), query.FindOptions(p))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	notes := []RiskNote{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, query.ToBSON(f))
}

func (s *MongoStore) ForClient(ctx context.Context, clientID string) ([]RiskNote, error) {
	oid, err := mongodb.ParseID(clientID)
	if err != nil {
		return nil, err
	}
	cursor, err := s.coll.Find(ctx, bson.M{"client": oid})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	notes := []RiskNote{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *MongoStore) IDsByPolicyNumber(ctx context.Context, term string) ([]primitive.ObjectID, error) {
	filter := bson.M{"policyNumber": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (s *MongoStore) DistinctClientsByCategory(ctx context.Context, category string) ([]primitive.ObjectID, error) {
	raw, err := s.coll.Distinct(ctx, "client", bson.M{"policyCategory": category})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid)
		}
	}
	return ids, nil
}
