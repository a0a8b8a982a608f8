package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory evaluation of the query spec against bson-decoded documents.
// The memory stores round-trip entities through bson so filtering, sorting
// and projection see the same field names and value types as MongoDB does.

// Matches reports whether a document satisfies every clause of the filter.
func Matches(doc bson.M, f Filter) bool {
	for _, clause := range f.All {
		if !clauseMatches(doc, clause) {
			return false
		}
	}
	return true
}

func clauseMatches(doc bson.M, c Clause) bool {
	for _, cond := range c.Any {
		if conditionMatches(doc, cond) {
			return true
		}
	}
	return false
}

func conditionMatches(doc bson.M, c Condition) bool {
	if c.Op == OpNone {
		return false
	}
	for _, candidate := range fieldValues(doc, c.Field) {
		if valueMatches(candidate, c) {
			return true
		}
	}
	return false
}

func valueMatches(candidate any, c Condition) bool {
	switch c.Op {
	case OpEq:
		if s, ok := stringForm(candidate); ok {
			if want, ok := stringForm(c.Value); ok && s == want {
				return true
			}
		}
		cf, cok := numberForm(candidate)
		vf, vok := numberForm(c.Value)
		return cok && vok && cf == vf
	case OpGte:
		cf, cok := numberForm(candidate)
		vf, vok := numberForm(c.Value)
		return cok && vok && cf >= vf
	case OpLte:
		cf, cok := numberForm(candidate)
		vf, vok := numberForm(c.Value)
		return cok && vok && cf <= vf
	case OpContains:
		s, ok := stringForm(candidate)
		term, tok := c.Value.(string)
		return ok && tok && strings.Contains(strings.ToLower(s), strings.ToLower(term))
	case OpIn:
		s, ok := stringForm(candidate)
		if !ok {
			return false
		}
		for _, want := range stringSlice(c.Value) {
			if s == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// fieldValues resolves a dot path, fanning out through arrays the way Mongo
// does: "contactPersons.name" yields the name of every contact person.
func fieldValues(v any, path string) []any {
	if path == "" {
		if v == nil {
			return nil
		}
		return []any{v}
	}
	head, rest, _ := strings.Cut(path, ".")
	switch node := v.(type) {
	case bson.M:
		return fieldValues(node[head], rest)
	case map[string]any:
		return fieldValues(node[head], rest)
	case bson.A:
		var out []any
		for _, elem := range node {
			out = append(out, fieldValues(elem, path)...)
		}
		return out
	case []any:
		var out []any
		for _, elem := range node {
			out = append(out, fieldValues(elem, path)...)
		}
		return out
	default:
		return nil
	}
}

func stringForm(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case primitive.ObjectID:
		return val.Hex(), true
	case bool:
		return strconv.FormatBool(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func numberForm(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case primitive.DateTime:
		return float64(val), true
	case time.Time:
		return float64(val.UnixMilli()), true
	case string:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []primitive.ObjectID:
		out := make([]string, 0, len(vals))
		for _, id := range vals {
			out = append(out, id.Hex())
		}
		return out
	case []any:
		out := make([]string, 0, len(vals))
		for _, elem := range vals {
			if s, ok := stringForm(elem); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := stringForm(v); ok {
			return []string{s}
		}
		return nil
	}
}

// SortDocs stably sorts documents by the given keys.
func SortDocs(docs []bson.M, keys []SortKey) {
	if len(keys) == 0 {
		keys = []SortKey{{Field: "createdAt", Desc: true}}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			cmp := compareField(docs[i], docs[j], key.Field)
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(a, b bson.M, field string) int {
	av := firstValue(a, field)
	bv := firstValue(b, field)
	if af, aok := numberForm(av); aok {
		if bf, bok := numberForm(bv); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, _ := stringForm(av)
	bs, _ := stringForm(bv)
	return strings.Compare(as, bs)
}

func firstValue(doc bson.M, field string) any {
	vals := fieldValues(doc, field)
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// Project reduces a document to the inclusion list, always keeping _id.
func Project(doc bson.M, fields []string) bson.M {
	if len(fields) == 0 {
		return doc
	}
	out := bson.M{}
	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for _, field := range fields {
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out
}

// Paginate applies skip/limit to an already sorted slice.
func Paginate(docs []bson.M, p Params) []bson.M {
	skip := p.Skip()
	if skip >= len(docs) {
		return nil
	}
	end := skip + p.Limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[skip:end]
}
