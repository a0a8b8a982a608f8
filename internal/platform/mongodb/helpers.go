package mongodb

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"brokerage/pkg/platform/sentinel"
)

// ParseID converts a path parameter into an ObjectID, mapping malformed input
// to the sentinel the services translate into a 400.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, sentinel.ErrInvalidID
	}
	return oid, nil
}

// MapDuplicate translates a unique index violation into a sentinel duplicate
// carrying the violated field. fields are the indexed field names to probe
// for in the server's error message; driver errors expose the index name
// (<field>_1) but not the field directly. Violations of indexes the caller
// did not list still get their field parsed out of the message, so a
// collision on, say, phoneNumber is never mistaken for a retryable code
// collision upstream.
func MapDuplicate(err error, fields ...string) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, field := range fields {
		if strings.Contains(msg, field+"_1") || strings.Contains(msg, field+"_-1") {
			return sentinel.NewDuplicate(field)
		}
	}
	if field := indexField(msg); field != "" {
		return sentinel.NewDuplicate(field)
	}
	return sentinel.ErrDuplicate
}

// indexField extracts the field name from the "index: <field>_1" clause of a
// duplicate key message. Empty when the message carries no such clause.
func indexField(msg string) string {
	const marker = "index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	name := msg[i+len(marker):]
	if j := strings.IndexAny(name, " \t"); j >= 0 {
		name = name[:j]
	}
	for _, suffix := range []string{"_-1", "_1"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return trimmed
		}
	}
	return ""
}
