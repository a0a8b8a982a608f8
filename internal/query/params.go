// Package query translates HTTP query strings into a neutral filter, sort,
// projection and pagination specification that every entity store can
// evaluate. The Mongo stores translate the spec to bson; the in-memory stores
// evaluate it directly, so both honor identical semantics.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Op enumerates the supported filter operators.
type Op int

const (
	// OpEq is an exact string-form equality match.
	OpEq Op = iota
	// OpGte and OpLte bound a numeric or date range.
	OpGte
	OpLte
	// OpIn matches when the field equals any of a list of IDs.
	OpIn
	// OpContains is a case-insensitive literal substring match. The term is
	// never interpreted as a pattern; metacharacters are escaped at the store
	// boundary.
	OpContains
	// OpNone matches no document. Used when a derived filter (cross-entity
	// lookup, unparseable bound) must force an empty result instead of
	// silently dropping the constraint.
	OpNone
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Clause is a disjunction of conditions. A single-element clause is a plain
// predicate; the search OR-group is a multi-element clause.
type Clause struct {
	Any []Condition
}

// Filter is a conjunction of clauses. All filter fragments - equality
// passthrough, ranges, search, cross-entity constraints - land in the same
// list, so fragments can never overwrite one another.
type Filter struct {
	All []Clause
}

// Where appends a single-condition clause.
func (f *Filter) Where(field string, op Op, value any) {
	f.All = append(f.All, Clause{Any: []Condition{{Field: field, Op: op, Value: value}}})
}

// WhereAny appends an OR clause over the given conditions.
func (f *Filter) WhereAny(conds ...Condition) {
	if len(conds) == 0 {
		return
	}
	f.All = append(f.All, Clause{Any: conds})
}

// MatchNone appends a clause that no document satisfies.
func (f *Filter) MatchNone() {
	f.All = append(f.All, Clause{Any: []Condition{{Op: OpNone}}})
}

// IsEmpty reports whether the filter constrains anything.
func (f Filter) IsEmpty() bool { return len(f.All) == 0 }

// SortKey is one sort directive.
type SortKey struct {
	Field string
	Desc  bool
}

// Params is the parsed query specification.
type Params struct {
	Filter Filter
	Sort   []SortKey
	Fields []string
	Page   int
	Limit  int
	Search string
}

// Skip returns the number of records preceding the requested page.
func (p Params) Skip() int { return (p.Page - 1) * p.Limit }

// Options configures parsing for one entity.
type Options struct {
	// Exclude lists entity-specific control keys stripped before the
	// remaining keys become equality filters.
	Exclude []string
	// SearchFields are the text fields the search term is OR-matched across.
	SearchFields []string
	// DateRanges maps a query prefix to a document field; <prefix>From and
	// <prefix>To become >= / <= bounds on that field.
	DateRanges map[string]string
	// NumberRanges maps a query suffix to a document field; min<Suffix> and
	// max<Suffix> become >= / <= bounds on that field.
	NumberRanges map[string]string
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// reservedKeys are stripped for every entity.
var reservedKeys = []string{"page", "sort", "limit", "fields", "search"}

// Parse builds Params from raw query values. Unknown keys deliberately pass
// through as exact-match equality filters without schema validation; a
// misspelled key yields an empty result, not an error.
func Parse(values url.Values, opts Options) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	control := make(map[string]struct{})
	for _, k := range reservedKeys {
		control[k] = struct{}{}
	}
	for _, k := range opts.Exclude {
		control[k] = struct{}{}
	}
	for prefix := range opts.DateRanges {
		control[prefix+"From"] = struct{}{}
		control[prefix+"To"] = struct{}{}
	}
	for suffix := range opts.NumberRanges {
		control["min"+suffix] = struct{}{}
		control["max"+suffix] = struct{}{}
	}

	// Equality passthrough for everything that is not a control key.
	for key, vals := range values {
		if _, reserved := control[key]; reserved {
			continue
		}
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		p.Filter.Where(key, OpEq, vals[0])
	}

	// Date ranges; either bound may be supplied alone. An unparseable bound
	// forces an empty result rather than silently widening the range.
	for prefix, field := range opts.DateRanges {
		addDateBound(&p.Filter, field, values.Get(prefix+"From"), OpGte)
		addDateBound(&p.Filter, field, values.Get(prefix+"To"), OpLte)
	}

	// Numeric ranges.
	for suffix, field := range opts.NumberRanges {
		addNumberBound(&p.Filter, field, values.Get("min"+suffix), OpGte)
		addNumberBound(&p.Filter, field, values.Get("max"+suffix), OpLte)
	}

	// Case-insensitive substring search across the entity's text fields.
	if term := values.Get("search"); term != "" && len(opts.SearchFields) > 0 {
		p.Search = term
		conds := make([]Condition, 0, len(opts.SearchFields))
		for _, field := range opts.SearchFields {
			conds = append(conds, Condition{Field: field, Op: OpContains, Value: term})
		}
		p.Filter.WhereAny(conds...)
	}

	p.Sort = parseSort(values.Get("sort"))
	p.Fields = splitList(values.Get("fields"))

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	return p
}

func addDateBound(f *Filter, field, raw string, op Op) {
	if raw == "" {
		return
	}
	t, err := ParseDate(raw)
	if err != nil {
		f.MatchNone()
		return
	}
	f.Where(field, op, t)
}

func addNumberBound(f *Filter, field, raw string, op Op) {
	if raw == "" {
		return
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.MatchNone()
		return
	}
	f.Where(field, op, n)
}

// ParseDate accepts the timestamp layouts clients actually send.
func ParseDate(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseSort(raw string) []SortKey {
	if raw == "" {
		// Newest first by default.
		return []SortKey{{Field: "createdAt", Desc: true}}
	}
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if field, ok := strings.CutPrefix(part, "-"); ok {
			keys = append(keys, SortKey{Field: field, Desc: true})
		} else {
			keys = append(keys, SortKey{Field: part})
		}
	}
	if len(keys) == 0 {
		return []SortKey{{Field: "createdAt", Desc: true}}
	}
	return keys
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
