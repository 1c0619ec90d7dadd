package model_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/crudkit/core/docstore"
	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/model"
)

var testFields = model.Fields{
	"name": {Type: model.String, Required: true},
	"email": {
		Type: model.String, Required: true, Unique: true,
		Match:        regexp.MustCompile(`^\S+@\S+\.\S+$`),
		MatchMessage: "Please provide a valid email",
	},
	"password": {Type: model.String, Required: true, WriteOnly: true},
	"role":     {Type: model.String, Enum: []string{"user", "admin"}, Default: "user"},
	"age":      {Type: model.Number},
	"birthday": {Type: model.Date},
	"tags":     {Type: model.Array},
}

func newModel(t *testing.T, opts ...model.Option) *model.Model {
	ctx := context.Background()
	c, err := docstore.NewMemory().Collection(ctx, "users")
	require.NoError(t, err)
	m, err := model.New(ctx, "User", model.NewSchema(testFields, opts...), c)
	require.NoError(t, err)
	return m
}

func TestNewSchema(t *testing.T) {
	s := model.NewSchema(model.Fields{"title": {Type: model.String}})
	f, ok := s.Field(model.ActiveField)
	require.True(t, ok)
	assert.Equal(t, true, f.Default)
	assert.Equal(t, []string{"isActive", "title"}, s.FieldNames())

	// specific fields win
	s = model.NewSchema(model.Fields{"isActive": {Type: model.Boolean, Default: false}})
	f, _ = s.Field(model.ActiveField)
	assert.Equal(t, false, f.Default)
}

func TestTransform(t *testing.T) {
	s := model.NewSchema(testFields)
	stored := docstore.Document{"_id": "42", "__v": 3.0, "name": "Ada", "password": "secret"}
	doc := s.Transform(stored)
	assert.Equal(t, model.Document{"id": "42", "name": "Ada"}, doc)
	assert.Equal(t, doc, s.Transform(doc), "transform must be idempotent")
	assert.Nil(t, s.Transform(nil))
}

func TestCreate(t *testing.T) {
	m := newModel(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, map[string]any{
		"name": "Ada", "email": "ada@x.com", "password": "secretpw",
		"id": "chosen", "createdAt": "yesterday", "unknown": true,
		"birthday": "1815-12-10",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc["id"])
	assert.NotEqual(t, "chosen", doc["id"])
	assert.Equal(t, "user", doc["role"])
	assert.Equal(t, true, doc["isActive"])
	assert.Equal(t, "1815-12-10T00:00:00.000Z", doc["birthday"])
	assert.NotContains(t, doc, "password")
	assert.NotContains(t, doc, "unknown")
	assert.NotContains(t, doc, "__v")
	assert.NotEqual(t, "yesterday", doc["createdAt"])
	assert.Equal(t, doc["createdAt"], doc["updatedAt"])

	// the password is stored nevertheless
	stored, err := m.Collection().FindByID(ctx, doc["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "secretpw", stored["password"])

	_, err = m.Create(ctx, map[string]any{"name": "Eve", "email": "ada@x.com", "password": "secretpw"})
	var dup *ierr.DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "email", dup.Field)
}

func TestCreateValidation(t *testing.T) {
	m := newModel(t)
	_, err := m.Create(context.Background(), map[string]any{
		"name": "", "email": "not-an-email", "role": "root", "age": "old",
	})
	var verr *ierr.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, []string{
		"age: expected number",
		"Please provide a valid email",
		"name is required",
		"password is required",
		"role must be one of: user, admin",
	}, verr.Messages())
}

func TestUpdate(t *testing.T) {
	m := newModel(t)
	ctx := context.Background()
	doc, err := m.Create(ctx, map[string]any{"name": "Ada", "email": "ada@x.com", "password": "secretpw"})
	require.NoError(t, err)
	id := doc["id"].(string)

	updated, err := m.UpdateByID(ctx, id, map[string]any{"role": "admin", "__v": 99})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated["role"])
	assert.Equal(t, "Ada", updated["name"])
	assert.Equal(t, doc["createdAt"], updated["createdAt"])
	assert.GreaterOrEqual(t, updated["updatedAt"].(string), doc["updatedAt"].(string))

	// only supplied fields are checked
	_, err = m.UpdateByID(ctx, id, map[string]any{"name": ""})
	assert.True(t, ierr.IsBadRequest(err))
	_, err = m.UpdateByID(ctx, id, map[string]any{"role": "root"})
	assert.True(t, ierr.IsBadRequest(err))

	missing, err := m.UpdateByID(ctx, "00000000-0000-0000-0000-000000000000", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := m.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "admin", deleted["role"])
	assert.NotContains(t, deleted, "password")
}

func TestHooks(t *testing.T) {
	var seen model.Document
	m := newModel(t, model.WithHook(func(ctx context.Context, doc model.Document) error {
		seen = doc
		return nil
	}))
	ctx := context.Background()
	doc, err := m.Create(ctx, map[string]any{"name": "Ada", "email": "ada@x.com", "password": "secretpw"})
	require.NoError(t, err)
	assert.Equal(t, "secretpw", seen["password"])

	// hooks only run on create
	seen = nil
	_, err = m.UpdateByID(ctx, doc["id"].(string), map[string]any{"password": "other"})
	require.NoError(t, err)
	assert.Nil(t, seen)

	failing := newModel(t, model.WithHook(func(ctx context.Context, doc model.Document) error {
		return errors.New("nope")
	}))
	_, err = failing.Create(ctx, map[string]any{"name": "Ada", "email": "ada@x.com", "password": "secretpw"})
	assert.Error(t, err)
}

func TestTimestampsDoNotGoBackwards(t *testing.T) {
	previous := ""
	for i := 0; i < 100; i++ {
		now := model.Now().(string)
		assert.GreaterOrEqual(t, now, previous)
		assert.Len(t, now, len(model.TimestampFormat))
		previous = now
	}
}
