package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

// ToDoc round-trips an entity through bson marshalling so the in-memory
// stores filter and sort against exactly the document shape MongoDB stores:
// bson field names, primitive.ObjectID ids, primitive.DateTime timestamps.
func ToDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDoc decodes a document back into an entity struct.
func FromDoc(doc bson.M, dst any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, dst)
}
