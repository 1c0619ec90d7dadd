package registry

import (
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mounted struct {
	prefixes []string
}

func (m *mounted) Mount(router *mux.Router, prefix string) {
	m.prefixes = append(m.prefixes, prefix)
}

func TestRegistry(t *testing.T) {
	reg := New()
	routes := &mounted{}

	require.NoError(t, reg.Register(Resource{Name: "User", Routes: routes}))
	require.NoError(t, reg.Register(Resource{Name: "BlogPost", Routes: routes}))

	assert.Error(t, reg.Register(Resource{Name: "User", Routes: routes}), "duplicate name")
	assert.Error(t, reg.Register(Resource{Name: "user", Routes: routes}), "duplicate path")
	assert.Error(t, reg.Register(Resource{Name: "", Routes: routes}))
	assert.Error(t, reg.Register(Resource{Name: "Note"}))

	res, ok := reg.Lookup("BlogPost")
	require.True(t, ok)
	assert.Equal(t, "/blogposts", res.Path())
	_, ok = reg.Lookup("Note")
	assert.False(t, ok)

	assert.Equal(t, []string{"/api/users", "/api/blogposts"}, reg.Paths("/api"))
	assert.Len(t, reg.Resources(), 2)

	assert.Panics(t, func() { reg.MustRegister(Resource{Name: "User", Routes: routes}) })
}
