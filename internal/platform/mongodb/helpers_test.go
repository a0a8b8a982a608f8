package mongodb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"brokerage/pkg/platform/sentinel"
)

func dupErr(msg string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: msg}}}
}

func TestMapDuplicate(t *testing.T) {
	t.Run("a listed field is attributed", func(t *testing.T) {
		err := MapDuplicate(dupErr(
			"E11000 duplicate key error collection: brokerage.clients index: clientCode_1 dup key: { clientCode: \"CLT-I-123456\" }"),
			"clientCode")
		assert.True(t, errors.Is(err, sentinel.ErrDuplicate))
		assert.Equal(t, "clientCode", sentinel.DuplicateField(err))
	})

	t.Run("an unlisted field is parsed from the index clause", func(t *testing.T) {
		err := MapDuplicate(dupErr(
			"E11000 duplicate key error collection: brokerage.users index: phoneNumber_1 dup key: { phoneNumber: \"+254700000001\" }"),
			"clientCode")
		assert.True(t, errors.Is(err, sentinel.ErrDuplicate))
		assert.Equal(t, "phoneNumber", sentinel.DuplicateField(err))
	})

	t.Run("a descending index parses the same way", func(t *testing.T) {
		err := MapDuplicate(dupErr(
			"E11000 duplicate key error collection: brokerage.users index: email_-1 dup key: { email: \"a@b.com\" }"))
		assert.Equal(t, "email", sentinel.DuplicateField(err))
	})

	t.Run("a message without an index clause stays unattributed", func(t *testing.T) {
		err := MapDuplicate(dupErr("E11000 duplicate key error"))
		assert.True(t, errors.Is(err, sentinel.ErrDuplicate))
		assert.Empty(t, sentinel.DuplicateField(err))
	})

	t.Run("other errors pass through untouched", func(t *testing.T) {
		boom := errors.New("boom")
		assert.Equal(t, boom, MapDuplicate(boom, "clientCode"))
		assert.NoError(t, MapDuplicate(nil, "clientCode"))
	})
}

func TestParseID(t *testing.T) {
	oid, err := ParseID("64b0c8f2a4e5d6c7b8a90000")
	assert.NoError(t, err)
	assert.Equal(t, "64b0c8f2a4e5d6c7b8a90000", oid.Hex())

	_, err = ParseID("not-an-id")
	assert.True(t, errors.Is(err, sentinel.ErrInvalidID))
}
