package docstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/crudkit/core/docstore"
	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// the test_ functions run against every driver

func test_CRUD(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	c, err := store.Collection(ctx, "things")
	require.NoError(t, err)

	doc, err := c.Insert(ctx, docstore.Document{"name": "first", "count": 1, "isActive": true})
	require.NoError(t, err)
	id, ok := doc[docstore.IDField].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, "first", doc["name"])
	assert.EqualValues(t, 0, doc[docstore.VersionField])

	found, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, doc, found)

	updated, err := c.UpdateByID(ctx, id, docstore.Document{"name": "changed"})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated["name"])
	assert.EqualValues(t, 1, updated["count"])
	assert.EqualValues(t, 1, updated[docstore.VersionField])

	deleted, err := c.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "changed", deleted["name"])

	found, err = c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, found)
	updated, err = c.UpdateByID(ctx, id, docstore.Document{"name": "again"})
	require.NoError(t, err)
	assert.Nil(t, updated)
	deleted, err = c.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	_, err = c.FindByID(ctx, "not-an-id")
	var castErr *ierr.CastError
	require.True(t, errors.As(err, &castErr), "got %v", err)
	assert.Equal(t, "Invalid _id: not-an-id", castErr.Error())
}

func test_Unique(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	c, err := store.Collection(ctx, "accounts")
	require.NoError(t, err)
	require.NoError(t, c.EnsureUnique(ctx, "email"))

	_, err = c.Insert(ctx, docstore.Document{"email": "ada@x.com"})
	require.NoError(t, err)
	other, err := c.Insert(ctx, docstore.Document{"email": "bob@x.com"})
	require.NoError(t, err)

	_, err = c.Insert(ctx, docstore.Document{"email": "ada@x.com"})
	var dup *ierr.DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "email", dup.Field)
	assert.Equal(t, "ada@x.com", dup.Value)

	_, err = c.UpdateByID(ctx, other[docstore.IDField].(string), docstore.Document{"email": "ada@x.com"})
	require.True(t, errors.As(err, &dup), "got %v", err)

	// updating a document with its own value is fine
	_, err = c.UpdateByID(ctx, other[docstore.IDField].(string), docstore.Document{"email": "bob@x.com"})
	require.NoError(t, err)
}

func test_Query(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	c, err := store.Collection(ctx, "numbers")
	require.NoError(t, err)

	for i := 1; i <= 25; i++ {
		_, err := c.Insert(ctx, docstore.Document{
			"n":        i,
			"parity":   []string{"even", "odd"}[i%2],
			"isActive": i%5 != 0,
			"label":    fmt.Sprintf("item-%02d", i),
		})
		require.NoError(t, err)
	}

	total, err := c.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)

	page, err := c.Find(ctx, docstore.Query{
		Sort:  docstore.Sort{{Field: "n", Descending: true}},
		Skip:  10,
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.EqualValues(t, 15, page[0]["n"])
	assert.EqualValues(t, 6, page[9]["n"])

	count, err := c.Count(ctx, docstore.Filter{"isActive": false})
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	docs, err := c.Find(ctx, docstore.Query{
		Filter: docstore.Filter{"n": map[string]any{"$gt": 10, "$lte": 13}},
		Sort:   docstore.Sort{{Field: "n"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.EqualValues(t, 11, docs[0]["n"])

	docs, err = c.Find(ctx, docstore.Query{
		Filter: docstore.Filter{"label": map[string]any{"$in": []any{"item-01", "item-02", "nope"}}},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	count, err = c.Count(ctx, docstore.Filter{"parity": "even", "n": map[string]any{"$ne": 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 11, count)

	count, err = c.Count(ctx, docstore.Filter{"missing": map[string]any{"$exists": false}})
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)

	// ties keep insertion order
	docs, err = c.Find(ctx, docstore.Query{Sort: docstore.Sort{{Field: "parity"}}, Limit: 3})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.EqualValues(t, 2, docs[0]["n"])
	assert.EqualValues(t, 4, docs[1]["n"])
	assert.EqualValues(t, 6, docs[2]["n"])

	// lookup by id through the filter
	id := docs[0][docstore.IDField].(string)
	docs, err = c.Find(ctx, docstore.Query{Filter: docstore.Filter{"id": id}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.EqualValues(t, 2, docs[0]["n"])

	_, err = c.Find(ctx, docstore.Query{Filter: docstore.Filter{"$where": "1"}})
	assert.True(t, ierr.IsBadRequest(err), "got %v", err)
	_, err = c.Find(ctx, docstore.Query{Filter: docstore.Filter{"n": map[string]any{"$regex": "1"}}})
	assert.True(t, ierr.IsBadRequest(err), "got %v", err)
}
