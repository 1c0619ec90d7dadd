package resources

import (
	"github.com/relabs-tech/crudkit/core/backend"
	"github.com/relabs-tech/crudkit/core/model"
	"github.com/relabs-tech/crudkit/core/schema"
)

// UserRoutes returns the routes of User, served at /api/users
func UserRoutes(m *model.Model, validation *schema.Set) *backend.RouteSet {
	routes := backend.BuildRoutes(m, validation)

	// Custom route example
	routes.Get("/custom", backend.ActiveSample(m, 5))
	return routes
}
