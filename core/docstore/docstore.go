// Package docstore provides document collections on top of different databases.
//
// There are currently three drivers: an in-memory store for tests and local
// development, postgres (documents as jsonb) and MongoDB. All drivers share the
// same filter language, which is the subset of the MongoDB query language listed
// in Operators.
package docstore

import (
	"context"

	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// Document is a stored document. IDField holds the identifier assigned by the
// store, VersionField the revision counter.
type Document = map[string]any

// System fields of stored documents
const (
	IDField      = "_id"
	VersionField = "__v"
)

// Store hands out collections
type Store interface {
	// Collection returns the named collection, creating it if necessary
	Collection(ctx context.Context, name string) (Collection, error)
	Close(ctx context.Context) error
}

// Collection is a set of documents of one resource type. Every operation is a
// single storage call.
//
// FindByID, UpdateByID and DeleteByID return nil and no error if there is no
// document with the given id. A malformed id returns an *errors.CastError, a
// violated unique field an *errors.DuplicateKeyError.
type Collection interface {
	Name() string
	// EnsureUnique creates a unique index for field
	EnsureUnique(ctx context.Context, field string) error
	// Insert stores doc and returns it with IDField and VersionField set
	Insert(ctx context.Context, doc Document) (Document, error)
	Find(ctx context.Context, query Query) ([]Document, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	FindByID(ctx context.Context, id string) (Document, error)
	// UpdateByID merges the top level fields of set into the document, increments
	// its version and returns the updated document
	UpdateByID(ctx context.Context, id string, set Document) (Document, error)
	// DeleteByID removes the document and returns it as it was before removal
	DeleteByID(ctx context.Context, id string) (Document, error)
}

// DriverType represents the different type of store drivers
type DriverType string

// DriverTypeMemory keeps all documents in process memory
const DriverTypeMemory DriverType = "memory"

// DriverTypePostgres stores documents as jsonb in postgres
const DriverTypePostgres DriverType = "postgres"

// DriverTypeMongo stores documents in MongoDB
const DriverTypeMongo DriverType = "mongo"

// Configuration contains the configuration for the store
type Configuration struct {
	DriverType            DriverType
	PostgresConfiguration *PostgresConfiguration
	MongoConfiguration    *MongoConfiguration
}

// PostgresConfiguration contains the configuration for the postgres store
type PostgresConfiguration struct {
	DataSource string
	Schema     string
}

// MongoConfiguration contains the configuration for the MongoDB store
type MongoConfiguration struct {
	URI      string
	Database string
}

// Open opens the store described by config
func Open(ctx context.Context, config Configuration) (Store, error) {
	switch config.DriverType {
	case DriverTypeMemory, "":
		return NewMemory(), nil
	case DriverTypePostgres:
		if config.PostgresConfiguration == nil {
			return nil, ierr.NewError("postgres configuration is missing").Mark(ierr.ErrInternal)
		}
		return OpenPostgres(config.PostgresConfiguration.DataSource, config.PostgresConfiguration.Schema)
	case DriverTypeMongo:
		if config.MongoConfiguration == nil {
			return nil, ierr.NewError("mongo configuration is missing").Mark(ierr.ErrInternal)
		}
		return OpenMongo(ctx, config.MongoConfiguration.URI, config.MongoConfiguration.Database)
	}
	return nil, ierr.NewError("unknown store driver " + string(config.DriverType)).Mark(ierr.ErrInternal)
}
