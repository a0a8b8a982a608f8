package query

import (
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ToBSON translates a filter into a MongoDB filter document. Every clause
// lands under a single $and so fragments on the same field (range bounds,
// search plus equality) can never clobber each other.
func ToBSON(f Filter) bson.M {
	if f.IsEmpty() {
		return bson.M{}
	}
	fragments := make(bson.A, 0, len(f.All))
	for _, clause := range f.All {
		fragments = append(fragments, clauseToBSON(clause))
	}
	if len(fragments) == 1 {
		if m, ok := fragments[0].(bson.M); ok {
			return m
		}
	}
	return bson.M{"$and": fragments}
}

func clauseToBSON(c Clause) bson.M {
	if len(c.Any) == 1 {
		return conditionToBSON(c.Any[0])
	}
	or := make(bson.A, 0, len(c.Any))
	for _, cond := range c.Any {
		or = append(or, conditionToBSON(cond))
	}
	return bson.M{"$or": or}
}

func conditionToBSON(c Condition) bson.M {
	switch c.Op {
	case OpEq:
		return bson.M{c.Field: bson.M{"$in": eqCandidates(c.Value)}}
	case OpGte:
		return bson.M{c.Field: bson.M{"$gte": c.Value}}
	case OpLte:
		return bson.M{c.Field: bson.M{"$lte": c.Value}}
	case OpIn:
		return bson.M{c.Field: bson.M{"$in": inValues(c.Value)}}
	case OpContains:
		term, _ := c.Value.(string)
		return bson.M{c.Field: primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
	default: // OpNone
		return bson.M{"_id": bson.M{"$in": bson.A{}}}
	}
}

// eqCandidates widens a raw query-string value to the BSON types it could
// represent, since passthrough keys carry no schema information. A hex string
// also matches an ObjectId field, "true" a boolean, "42" an int.
func eqCandidates(v any) bson.A {
	s, ok := v.(string)
	if !ok {
		return bson.A{v}
	}
	out := bson.A{s}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		out = append(out, oid)
	}
	switch s {
	case "true":
		out = append(out, true)
	case "false":
		out = append(out, false)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		out = append(out, n)
	}
	if t, err := ParseDate(s); err == nil {
		out = append(out, t)
	}
	return out
}

func inValues(v any) bson.A {
	switch vals := v.(type) {
	case bson.A:
		return vals
	case []any:
		return bson.A(vals)
	case []string:
		out := make(bson.A, 0, len(vals))
		for _, s := range vals {
			out = append(out, s)
		}
		return out
	case []primitive.ObjectID:
		out := make(bson.A, 0, len(vals))
		for _, id := range vals {
			out = append(out, id)
		}
		return out
	default:
		return bson.A{v}
	}
}

// FindOptions builds the sort/projection/pagination options for a page fetch.
func FindOptions(p Params) *options.FindOptions {
	opts := options.Find().
		SetSort(sortDoc(p.Sort)).
		SetSkip(int64(p.Skip())).
		SetLimit(int64(p.Limit))
	if len(p.Fields) > 0 {
		projection := bson.D{}
		for _, field := range p.Fields {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
		opts.SetProjection(projection)
	}
	return opts
}

func sortDoc(keys []SortKey) bson.D {
	doc := bson.D{}
	for _, key := range keys {
		dir := 1
		if key.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: key.Field, Value: dir})
	}
	if len(doc) == 0 {
		doc = bson.D{{Key: "createdAt", Value: -1}}
	}
	return doc
}
