package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseDefaults(t *testing.T) {
	p := Parse(url.Values{}, Options{})
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.True(t, p.Filter.IsEmpty())
	require.Len(t, p.Sort, 1)
	assert.Equal(t, SortKey{Field: "createdAt", Desc: true}, p.Sort[0])
}

func TestParsePassthroughAndControlKeys(t *testing.T) {
	values := url.Values{
		"status":      {"Active"},
		"policyType":  {"Motor"},
		"page":        {"3"},
		"limit":       {"25"},
		"sort":        {"-premium,name"},
		"fields":      {"policyNumber, status"},
		"createdFrom": {"2026-01-01"},
	}
	p := Parse(values, Options{
		Exclude:    []string{"policyType"},
		DateRanges: map[string]string{"created": "createdAt"},
	})

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, 50, p.Skip())
	assert.Equal(t, []SortKey{{Field: "premium", Desc: true}, {Field: "name"}}, p.Sort)
	assert.Equal(t, []string{"policyNumber", "status"}, p.Fields)

	// status passes through as equality; policyType and the range key do not.
	require.Len(t, p.Filter.All, 2)
	for _, clause := range p.Filter.All {
		require.Len(t, clause.Any, 1)
		assert.NotEqual(t, "policyType", clause.Any[0].Field)
	}
}

func TestParseRangesAndSearch(t *testing.T) {
	values := url.Values{
		"minPremium": {"50000"},
		"maxPremium": {"90000"},
		"search":     {"hilux"},
	}
	p := Parse(values, Options{
		SearchFields: []string{"make", "model"},
		NumberRanges: map[string]string{"Premium": "premiumBreakdown.totalPremium"},
	})

	require.Len(t, p.Filter.All, 3)
	assert.Equal(t, "hilux", p.Search)

	doc := bson.M{
		"premiumBreakdown": bson.M{"totalPremium": 74500.0},
		"model":            "Hilux",
	}
	assert.True(t, Matches(doc, p.Filter))

	cheap := bson.M{
		"premiumBreakdown": bson.M{"totalPremium": 10000.0},
		"model":            "Hilux",
	}
	assert.False(t, Matches(cheap, p.Filter))
}

func TestParseUnparseableBoundMatchesNothing(t *testing.T) {
	p := Parse(url.Values{"createdFrom": {"not-a-date"}}, Options{
		DateRanges: map[string]string{"created": "createdAt"},
	})
	assert.False(t, Matches(bson.M{"createdAt": time.Now()}, p.Filter))

	p = Parse(url.Values{"minPremium": {"lots"}}, Options{
		NumberRanges: map[string]string{"Premium": "premium"},
	})
	assert.False(t, Matches(bson.M{"premium": 100.0}, p.Filter))
}

func TestMatchesEqualityWidening(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := bson.M{"client": oid, "active": true, "attempts": int32(3)}

	var byID Filter
	byID.Where("client", OpEq, oid.Hex())
	assert.True(t, Matches(doc, byID), "a hex string must match an ObjectID field")

	var byBool Filter
	byBool.Where("active", OpEq, "true")
	assert.True(t, Matches(doc, byBool))

	var byNumber Filter
	byNumber.Where("attempts", OpEq, "3")
	assert.True(t, Matches(doc, byNumber))
}

func TestMatchesArrayFanOut(t *testing.T) {
	doc := bson.M{
		"contactPersons": bson.A{
			bson.M{"name": "Alice Wanjiku"},
			bson.M{"name": "Brian Otieno"},
		},
	}
	var f Filter
	f.Where("contactPersons.name", OpContains, "otieno")
	assert.True(t, Matches(doc, f))

	var miss Filter
	miss.Where("contactPersons.name", OpContains, "kamau")
	assert.False(t, Matches(doc, miss))
}

func TestMatchesInAndNone(t *testing.T) {
	want := primitive.NewObjectID()
	doc := bson.M{"policyId": want}

	var in Filter
	in.Where("policyId", OpIn, []primitive.ObjectID{want, primitive.NewObjectID()})
	assert.True(t, Matches(doc, in))

	var none Filter
	none.MatchNone()
	assert.False(t, Matches(doc, none))

	// A clause is a disjunction; one matching condition is enough.
	var either Filter
	either.WhereAny(
		Condition{Field: "policyId", Op: OpEq, Value: "missing"},
		Condition{Field: "policyId", Op: OpEq, Value: want.Hex()},
	)
	assert.True(t, Matches(doc, either))
}

func TestSortPaginateProject(t *testing.T) {
	docs := []bson.M{
		{"_id": "b", "premium": 200.0, "name": "beta"},
		{"_id": "a", "premium": 100.0, "name": "alpha"},
		{"_id": "c", "premium": 300.0, "name": "gamma"},
	}

	SortDocs(docs, []SortKey{{Field: "premium", Desc: true}})
	assert.Equal(t, "c", docs[0]["_id"])
	assert.Equal(t, "a", docs[2]["_id"])

	page := Paginate(docs, Params{Page: 2, Limit: 2})
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0]["_id"])

	assert.Nil(t, Paginate(docs, Params{Page: 5, Limit: 2}), "a page past the end is empty")

	projected := Project(docs[0], []string{"name"})
	assert.Equal(t, bson.M{"_id": "c", "name": "gamma"}, projected)
}

func TestToBSON(t *testing.T) {
	var f Filter
	f.Where("status", OpContains, "a.c")
	m := ToBSON(f)

	rx, ok := m["status"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `a\.c`, rx.Pattern, "metacharacters in the term are literal")
	assert.Equal(t, "i", rx.Options)

	f.Where("premium", OpGte, 100.0)
	and, ok := ToBSON(f)["$and"].(bson.A)
	require.True(t, ok)
	assert.Len(t, and, 2)

	assert.Equal(t, bson.M{}, ToBSON(Filter{}))
}

func TestDocRoundTrip(t *testing.T) {
	type record struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	in := record{ID: primitive.NewObjectID(), Name: "sample"}

	doc, err := ToDoc(in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, doc["_id"])

	var out record
	require.NoError(t, FromDoc(doc, &out))
	assert.Equal(t, in, out)
}
