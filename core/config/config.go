// Package config loads the service configuration from the environment.
//
// A .env file in the working directory is read first if it exists, variables which
// are already set in the environment take precedence.
package config

import (
	"io/fs"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Environments
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Service holds the configuration for the api service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Port        int    `env:"PORT,default=3000" validate:"min=1,max=65535" description:"the port to listen on"`
	Environment string `env:"ENVIRONMENT,default=development" validate:"oneof=development production test" description:"development, production or test"`
	NodeEnv     string `env:"NODE_ENV" description:"fallback for ENVIRONMENT"`
	LogLevel    string `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn warning error fatal panic" description:"the log level"`
	StoreDriver string `env:"STORE_DRIVER,default=memory" validate:"oneof=memory postgres mongo" description:"the document store: memory, postgres or mongo"`

	Postgres         string `env:"POSTGRES" validate:"required_if=StoreDriver postgres" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" description:"password to the Postgres DB"`
	PostgresSchema   string `env:"POSTGRES_SCHEMA,default=crudkit" description:"the database schema holding the collections"`

	MongoURI      string `env:"MONGODB_URI" validate:"required_if=StoreDriver mongo" description:"the connection URI of the MongoDB server"`
	MongoDatabase string `env:"MONGODB_DATABASE,default=crudkit" description:"the MongoDB database holding the collections"`

	CORSOrigins string `env:"CORS_ORIGINS,default=*" description:"comma separated list of allowed origins"`
}

// Load reads the optional env files (".env" if none are given) and decodes the
// environment into a validated Service configuration.
func Load(files ...string) (*Service, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "cannot load env file")
	}
	service := &Service{}
	if err := envdecode.Decode(service); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.Wrap(err, "cannot decode environment")
	}
	// NODE_ENV is honored for deployments which still set it
	if _, ok := os.LookupEnv("ENVIRONMENT"); !ok && service.NodeEnv != "" {
		service.Environment = service.NodeEnv
	}
	if err := service.Validate(); err != nil {
		return nil, err
	}
	return service, nil
}

// Validate checks the configuration for consistency
func (s *Service) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// IsProduction returns true if the service runs in production mode. Internal error
// details are only exposed outside of production.
func (s *Service) IsProduction() bool {
	return s.Environment == Production
}

// PostgresDataSource returns the postgres connection string including the password
func (s *Service) PostgresDataSource() string {
	if s.PostgresPassword == "" {
		return s.Postgres
	}
	return s.Postgres + " password=" + s.PostgresPassword
}

// Origins returns the allowed CORS origins
func (s *Service) Origins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
