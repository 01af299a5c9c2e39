package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Tsukikage7/employee-service/employee"
)

func TestParseID(t *testing.T) {
	oid := bson.NewObjectID()

	got, ok := ParseID(FormatID(oid))
	require.True(t, ok)
	assert.Equal(t, oid, got)
	assert.Len(t, string(FormatID(oid)), 24)

	for _, bad := range []employee.ID{"", "42", "zzzzzzzzzzzzzzzzzzzzzzzz", "000000000000000000000000"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, "id %q", bad)
	}
}

func TestDocumentMapping(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	oid := bson.NewObjectID()
	e, err := employee.New(employee.MustNewName("Ada Lovelace"), "1 Analytical Engine Way", "ada@example.com", "555-0100")
	require.NoError(t, err)

	doc := toDocument(e, oid, now)
	assert.Equal(t, oid, doc.ID)
	assert.Equal(t, "Ada Lovelace", doc.Name)
	assert.Equal(t, now, doc.CreatedTime)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded document
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	back, err := decoded.toDomain()
	require.NoError(t, err)
	assert.Equal(t, FormatID(oid), back.ID())
	assert.True(t, e.SameFields(back))
}

func TestDocumentToDomain_Corrupt(t *testing.T) {
	doc := document{ID: bson.NewObjectID(), Name: "  "}
	_, err := doc.toDomain()
	assert.True(t, employee.IsValidationError(err))
}

func TestDetailsUpdate(t *testing.T) {
	now := time.Now().UTC()
	e := employee.Restore("x", employee.MustNewName("Grace"), "addr", "grace@example.com", "")

	update := detailsUpdate(e, now)
	require.Len(t, update, 1)
	assert.Equal(t, "$set", update[0].Key)

	set, ok := update[0].Value.(bson.D)
	require.True(t, ok)
	fields := make(map[string]any, len(set))
	for _, el := range set {
		fields[el.Key] = el.Value
	}
	assert.Equal(t, "Grace", fields["name"])
	assert.Equal(t, "", fields["phone"], "清空的电话同样写入")
	assert.Equal(t, now, fields["updated_time"])
	assert.NotContains(t, fields, "created_time")
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	plain := errors.New("network")
	assert.Same(t, plain, translate(plain))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	err := translate(dup)
	assert.ErrorIs(t, err, employee.ErrDuplicateEmail)
}
