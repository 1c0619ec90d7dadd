/*
Package model binds a resource schema to a document collection.

A schema is built with NewSchema from the fields of a resource. Every schema has
the base field isActive (default true) and maintains createdAt and updatedAt.
Documents leave the model in their public form, see Schema.Transform.

	fields := model.Fields{
		"name":  {Type: model.String, Required: true},
		"email": {Type: model.String, Required: true, Unique: true},
	}
	users, err := model.New(ctx, "User", model.NewSchema(fields), collection)
*/
package model

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/relabs-tech/crudkit/core/docstore"
	"github.com/relabs-tech/crudkit/core/logger"
)

// Model is the collection handle of one resource
type Model struct {
	name       string
	schema     *Schema
	collection docstore.Collection
}

// New creates the model and ensures the unique indexes of the schema
func New(ctx context.Context, name string, schema *Schema, collection docstore.Collection) (*Model, error) {
	for _, field := range schema.UniqueFields() {
		if err := collection.EnsureUnique(ctx, field); err != nil {
			return nil, errors.Wrapf(err, "cannot create unique index %s.%s", collection.Name(), field)
		}
	}
	return &Model{name: name, schema: schema, collection: collection}, nil
}

// Name returns the resource name
func (m *Model) Name() string {
	return m.name
}

// Schema returns the schema
func (m *Model) Schema() *Schema {
	return m.schema
}

// Collection returns the underlying collection
func (m *Model) Collection() docstore.Collection {
	return m.collection
}

// Create validates payload and inserts it as a new document
func (m *Model) Create(ctx context.Context, payload map[string]any) (Document, error) {
	doc, err := m.schema.PrepareCreate(ctx, payload)
	if err != nil {
		return nil, err
	}
	stored, err := m.collection.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}
	result := m.schema.Transform(stored)
	logger.FromContext(ctx).WithField("resource", m.name).Debugln("created", result[IDField])
	return result, nil
}

// Find returns the documents selected by query
func (m *Model) Find(ctx context.Context, query docstore.Query) ([]Document, error) {
	docs, err := m.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	return m.schema.TransformAll(docs), nil
}

// Count returns the number of documents matching filter
func (m *Model) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	return m.collection.Count(ctx, filter)
}

// FindByID returns the document or nil if it does not exist
func (m *Model) FindByID(ctx context.Context, id string) (Document, error) {
	doc, err := m.collection.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.schema.Transform(doc), nil
}

// UpdateByID validates the supplied fields of payload and merges them into the
// document. It returns the updated document or nil if it does not exist.
func (m *Model) UpdateByID(ctx context.Context, id string, payload map[string]any) (Document, error) {
	set, err := m.schema.PrepareUpdate(payload)
	if err != nil {
		return nil, err
	}
	doc, err := m.collection.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, err
	}
	return m.schema.Transform(doc), nil
}

// DeleteByID removes the document and returns it as it was, or nil if it does not exist
func (m *Model) DeleteByID(ctx context.Context, id string) (Document, error) {
	doc, err := m.collection.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		logger.FromContext(ctx).WithField("resource", m.name).Debugln("deleted", doc[docstore.IDField])
	}
	return m.schema.Transform(doc), nil
}
