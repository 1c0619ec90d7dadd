/*
Package registry provides the explicit list of resources a service serves

The registry is built once at process start and passed to the backend, which
mounts the routes of every resource below /api:

	reg := registry.New()
	reg.MustRegister(registry.Resource{Name: "User", Model: users, Routes: backend.BuildRoutes(users, validation)})
*/
package registry

import (
	"fmt"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/relabs-tech/crudkit/core"
	"github.com/relabs-tech/crudkit/core/model"
)

// Routes are the routes of one resource
type Routes interface {
	Mount(router *mux.Router, prefix string)
}

// Resource is one registered resource
type Resource struct {
	// Name is the PascalCase resource name, e.g. "User"
	Name string
	// Model is the collection handle
	Model *model.Model
	// Routes are mounted below the collection path of the resource
	Routes Routes
}

// Path returns the collection path of the resource, e.g. "/users"
func (r Resource) Path() string {
	return core.CollectionPath(r.Name)
}

// Registry holds the resources in registration order
type Registry struct {
	resources []Resource
	byName    map[string]int
}

// New creates an empty registry
func New() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a resource. Names and collection paths must be unique.
func (r *Registry) Register(resource Resource) error {
	if resource.Name == "" {
		return fmt.Errorf("resource name is missing")
	}
	if resource.Routes == nil {
		return fmt.Errorf("resource %s has no routes", resource.Name)
	}
	if _, ok := r.byName[resource.Name]; ok {
		return fmt.Errorf("resource %s is already registered", resource.Name)
	}
	if other, ok := lo.Find(r.resources, func(res Resource) bool { return res.Path() == resource.Path() }); ok {
		return fmt.Errorf("resource %s has the same path %s as %s", resource.Name, resource.Path(), other.Name)
	}
	r.byName[resource.Name] = len(r.resources)
	r.resources = append(r.resources, resource)
	return nil
}

// MustRegister is Register and panics on error
func (r *Registry) MustRegister(resource Resource) {
	if err := r.Register(resource); err != nil {
		panic(err)
	}
}

// Lookup returns the resource with the given name
func (r *Registry) Lookup(name string) (Resource, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Resource{}, false
	}
	return r.resources[i], true
}

// Resources returns all resources in registration order
func (r *Registry) Resources() []Resource {
	return append([]Resource(nil), r.resources...)
}

// Paths returns the collection paths of all resources below prefix
func (r *Registry) Paths(prefix string) []string {
	return lo.Map(r.resources, func(res Resource, _ int) string {
		return prefix + res.Path()
	})
}
