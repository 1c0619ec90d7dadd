package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/relabs-tech/crudkit/core/errors"
)

func TestParseSort(t *testing.T) {
	sort, err := ParseSort([]byte(`{"role": 1, "createdAt": -1, "name": "desc", "id": "asc"}`))
	require.NoError(t, err)
	assert.Equal(t, Sort{
		{Field: "role"},
		{Field: "createdAt", Descending: true},
		{Field: "name", Descending: true},
		{Field: IDField},
	}, sort)

	// keys are taken in the order they were sent, not sorted
	sort, err = ParseSort([]byte(`{"z": 1, "a": -1, "m": "asc"}`))
	require.NoError(t, err)
	assert.Equal(t, Sort{{Field: "z"}, {Field: "a", Descending: true}, {Field: "m"}}, sort)

	for _, bad := range []string{`not json`, `[1]`, `{"a": 2}`, `{"a": "sideways"}`, `{"a": 1`} {
		_, err := ParseSort([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]byte(`{"role":"admin","age":{"$gte":18}}`))
	require.NoError(t, err)
	conditions, err := f.Conditions()
	require.NoError(t, err)
	assert.Equal(t, []Condition{
		{Field: "age", Op: OpGte, Value: float64(18)},
		{Field: "role", Op: OpEq, Value: "admin"},
	}, conditions)

	f, err = ParseFilter([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = ParseFilter([]byte(`{role:admin}`))
	assert.Error(t, err)
}

func TestConditionsRejectUnsupported(t *testing.T) {
	cases := []Filter{
		{"$or": []any{}},
		{"name": map[string]any{"$regex": "a"}},
		{"name": map[string]any{"$in": "a"}},
		{"name": map[string]any{"$exists": "yes"}},
	}
	for _, f := range cases {
		_, err := f.Conditions()
		assert.True(t, ierr.IsBadRequest(err), "%v: %v", f, err)
		assert.NotEmpty(t, ierr.Hint(err))
	}

	// objects without operators are compared as values
	conditions, err := Filter{"address": map[string]any{"city": "Berlin"}}.Conditions()
	require.NoError(t, err)
	assert.Equal(t, OpEq, conditions[0].Op)
}

func TestMatch(t *testing.T) {
	doc := Document{
		"name":    "ada",
		"age":     float64(36),
		"tags":    []any{"math", "code"},
		"address": map[string]any{"city": "London"},
		"nothing": nil,
	}
	match := func(f Filter) bool {
		conditions, err := f.Conditions()
		require.NoError(t, err)
		return Match(doc, conditions)
	}
	assert.True(t, match(Filter{"name": "ada"}))
	assert.True(t, match(Filter{"age": 36}))
	assert.True(t, match(Filter{"tags": "code"}))
	assert.True(t, match(Filter{"address.city": "London"}))
	assert.True(t, match(Filter{"address": map[string]any{"city": "London"}}))
	assert.True(t, match(Filter{"missing": nil}))
	assert.True(t, match(Filter{"nothing": nil}))
	assert.True(t, match(Filter{"nothing": map[string]any{"$exists": true}}))
	assert.True(t, match(Filter{"age": map[string]any{"$gt": 30, "$lt": 40}}))
	assert.True(t, match(Filter{"name": map[string]any{"$nin": []any{"bob"}}}))
	assert.False(t, match(Filter{"name": map[string]any{"$ne": "ada"}}))
	assert.False(t, match(Filter{"age": map[string]any{"$gt": "30"}}))
	assert.False(t, match(Filter{"missing": map[string]any{"$gte": 0}}))
}

func TestSortLess(t *testing.T) {
	s := Sort{{Field: "a"}, {Field: "b", Descending: true}}
	assert.True(t, s.Less(Document{"a": 1.0}, Document{"a": 2.0}))
	assert.True(t, s.Less(Document{"a": 1.0, "b": "z"}, Document{"a": 1.0, "b": "y"}))
	assert.False(t, s.Less(Document{"a": 1.0, "b": "y"}, Document{"a": 1.0, "b": "y"}))
	// missing values sort first
	assert.True(t, s.Less(Document{}, Document{"a": 0.0}))
	// numbers before strings
	assert.True(t, s.Less(Document{"a": 100.0}, Document{"a": "1"}))
}
