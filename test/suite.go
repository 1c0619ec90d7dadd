// Package test runs the api service end to end against a postgres container.
// Set INTEGRATION_TESTS=true to enable it, docker must be available.
package test

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/crudkit/core/backend"
	"github.com/relabs-tech/crudkit/core/client"
	"github.com/relabs-tech/crudkit/core/docstore"
	"github.com/relabs-tech/crudkit/core/registry"
	"github.com/relabs-tech/crudkit/resources"
)

type IntegrationTestSuite struct {
	suite.Suite
	*backend.Backend
	srv    *httptest.Server
	client client.Client

	store             *docstore.Postgres
	postgresContainer testcontainers.Container
	postgresAddr      string
	postgresUser      string
	postgresPassword  string
	postgresDB        string
}

func (s *IntegrationTestSuite) SetupSuite() {
	if os.Getenv("INTEGRATION_TESTS") != "true" {
		s.T().Skip("set INTEGRATION_TESTS=true to run tests against docker containers")
	}
	ctx := context.Background()

	s.postgresUser = "testuser"
	s.postgresPassword = "testpass"
	s.postgresDB = "testdb"

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     s.postgresUser,
			"POSTGRES_PASSWORD": s.postgresPassword,
			"POSTGRES_DB":       s.postgresDB,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)
	s.postgresAddr = fmt.Sprintf("%s:%s", pgHost, pgPort.Port())

	s.store, err = docstore.OpenPostgres(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), s.postgresUser, s.postgresPassword, s.postgresDB), "api_test")
	s.Require().NoError(err)

	reg := registry.New()
	s.Require().NoError(resources.Register(ctx, s.store, reg))
	s.Backend = backend.New(&backend.Builder{
		Router:    mux.NewRouter(),
		Registry:  reg,
		AccessLog: io.Discard,
	})

	s.srv = httptest.NewServer(s.Handler())
	s.client = client.NewWithURL(s.srv.URL)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.srv != nil {
		s.srv.Close()
	}
	if s.store != nil {
		s.Require().NoError(s.store.DB().ClearSchema())
		s.store.Close(ctx)
	}
	if s.postgresContainer != nil {
		err := s.postgresContainer.Terminate(ctx)
		s.Require().NoError(err)
	}
}
