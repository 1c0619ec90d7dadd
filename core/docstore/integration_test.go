package docstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/crudkit/core/docstore"
)

// The postgres and mongo drivers run against containers. Set INTEGRATION_TESTS=true
// to enable them, docker must be available.
func requireIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "true" {
		t.Skip("set INTEGRATION_TESTS=true to run tests against docker containers")
	}
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (testcontainers.Container, string) {
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Terminate(context.Background())
	})
	host, err := c.Host(ctx)
	require.NoError(t, err)
	return c, host
}

func newPostgresStore(t *testing.T) docstore.Store {
	requireIntegration(t)
	c, host := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	port, err := c.MappedPort(context.Background(), "5432")
	require.NoError(t, err)
	dataSource := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Port())
	store, err := docstore.OpenPostgres(dataSource, "docstore_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.DB().ClearSchema()
		store.Close(context.Background())
	})
	return store
}

func newMongoStore(t *testing.T) docstore.Store {
	requireIntegration(t)
	c, host := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	})
	ctx := context.Background()
	port, err := c.MappedPort(ctx, "27017")
	require.NoError(t, err)
	store, err := docstore.OpenMongo(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "docstore_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Drop(context.Background())
		store.Close(context.Background())
	})
	return store
}

func Test_Postgres(t *testing.T) {
	store := newPostgresStore(t)
	t.Run("CRUD", func(t *testing.T) { test_CRUD(t, store) })
	t.Run("Unique", func(t *testing.T) { test_Unique(t, store) })
	t.Run("Query", func(t *testing.T) { test_Query(t, store) })
}

func Test_Mongo(t *testing.T) {
	store := newMongoStore(t)
	t.Run("CRUD", func(t *testing.T) { test_CRUD(t, store) })
	t.Run("Unique", func(t *testing.T) { test_Unique(t, store) })
	t.Run("Query", func(t *testing.T) { test_Query(t, store) })
}
