package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

// MatchingDocs converts entities to documents and keeps those satisfying the
// filter. The in-memory stores share this for both listing and counting.
func MatchingDocs[T any](items []T, f Filter) ([]bson.M, error) {
	var docs []bson.M
	for _, item := range items {
		doc, err := ToDoc(item)
		if err != nil {
			return nil, err
		}
		if Matches(doc, f) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// DecodePage sorts, paginates and projects matched documents, decoding the
// resulting page back into entities.
func DecodePage[T any](docs []bson.M, p Params) ([]T, error) {
	SortDocs(docs, p.Sort)
	page := []T{}
	for _, doc := range Paginate(docs, p) {
		var item T
		if err := FromDoc(Project(doc, p.Fields), &item); err != nil {
			return nil, err
		}
		page = append(page, item)
	}
	return page, nil
}
