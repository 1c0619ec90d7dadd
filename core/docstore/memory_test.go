package docstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/crudkit/core/docstore"
)

func Test_Memory_CRUD(t *testing.T) {
	test_CRUD(t, docstore.NewMemory())
}

func Test_Memory_Unique(t *testing.T) {
	test_Unique(t, docstore.NewMemory())
}

func Test_Memory_Query(t *testing.T) {
	test_Query(t, docstore.NewMemory())
}

func Test_Memory_NegativeSkip(t *testing.T) {
	ctx := context.Background()
	c, err := docstore.NewMemory().Collection(ctx, "things")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := c.Insert(ctx, docstore.Document{"n": i})
		require.NoError(t, err)
	}
	docs, err := c.Find(ctx, docstore.Query{Skip: -5, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func Test_Memory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, err := docstore.NewMemory().Collection(ctx, "things")
	require.NoError(t, err)
	doc, err := c.Insert(ctx, docstore.Document{"tags": []string{"a"}})
	require.NoError(t, err)
	doc["tags"] = "mutated"

	found, err := c.FindByID(ctx, doc[docstore.IDField].(string))
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, found["tags"])
}

func Test_Memory_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	c, err := docstore.NewMemory().Collection(ctx, "things")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Insert(ctx, docstore.Document{"n": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	count, err := c.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 50, count)
}

func Test_Open(t *testing.T) {
	store, err := docstore.Open(context.Background(), docstore.Configuration{DriverType: docstore.DriverTypeMemory})
	require.NoError(t, err)
	assert.IsType(t, &docstore.Memory{}, store)

	_, err = docstore.Open(context.Background(), docstore.Configuration{DriverType: docstore.DriverTypePostgres})
	assert.Error(t, err)
	_, err = docstore.Open(context.Background(), docstore.Configuration{DriverType: "cassandra"})
	assert.Error(t, err)
}
