package backend

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/relabs-tech/crudkit/core"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/model"
	"github.com/relabs-tech/crudkit/core/schema"
)

// Route is a single method and path of a resource. Path is relative to the
// resource prefix, "/" is the collection itself.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
	// Operation is the standard operation served by the route, empty for custom routes
	Operation core.Operation
}

// RouteSet is the set of routes of one resource
type RouteSet struct {
	routes []Route
}

// BuildRoutes returns the standard routes of m served by the generic controller.
// validation may be nil, then requests are not checked before they reach the model.
func BuildRoutes(m *model.Model, validation *schema.Set) *RouteSet {
	return BindRoutes(NewController(m).Handlers(), validation)
}

// BindRoutes returns the standard routes for the given handlers:
//
//	POST   /                 create, checked with the create rules
//	GET    /                 list
//	GET    /{id}             read
//	PUT    /{id}             update, checked with the update rules
//	PATCH  /{id}             update, checked with the update rules
//	DELETE /{id}             soft delete
//	DELETE /{id}/permanent   hard delete
func BindRoutes(h Handlers, validation *schema.Set) *RouteSet {
	var create, update *schema.Rules
	if validation != nil {
		create, update = validation.Create, validation.Update
	}
	rs := &RouteSet{}
	rs.bind(core.OperationCreate, http.MethodPost, "/", schema.Gate(create, h.Create))
	rs.bind(core.OperationList, http.MethodGet, "/", h.List)
	rs.bind(core.OperationRead, http.MethodGet, "/{id}", h.Read)
	rs.bind(core.OperationUpdate, http.MethodPut, "/{id}", schema.Gate(update, h.Update))
	rs.bind(core.OperationUpdate, http.MethodPatch, "/{id}", schema.Gate(update, h.Update))
	rs.bind(core.OperationDelete, http.MethodDelete, "/{id}", h.SoftDelete)
	rs.bind(core.OperationPurge, http.MethodDelete, "/{id}/permanent", h.HardDelete)
	return rs
}

func (rs *RouteSet) bind(op core.Operation, method, path string, handler http.Handler) {
	rs.routes = append(rs.routes, Route{Method: method, Path: path, Handler: handler, Operation: op})
}

// Disable removes the routes of the given standard operations, e.g. purge for
// resources which must never be removed permanently. Custom routes are kept.
func (rs *RouteSet) Disable(ops ...core.Operation) *RouteSet {
	rs.routes = lo.Reject(rs.routes, func(r Route, _ int) bool {
		return r.Operation != "" && lo.Contains(ops, r.Operation)
	})
	return rs
}

// Operations returns the standard operations served by the route set
func (rs *RouteSet) Operations() []core.Operation {
	return lo.Filter(core.Operations, func(op core.Operation, _ int) bool {
		return lo.ContainsBy(rs.routes, func(r Route) bool { return r.Operation == op })
	})
}

// Handle adds a route
func (rs *RouteSet) Handle(method, path string, handler http.Handler) *RouteSet {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rs.routes = append(rs.routes, Route{Method: method, Path: path, Handler: handler})
	return rs
}

// Get adds a GET route
func (rs *RouteSet) Get(path string, handler HandlerFunc) *RouteSet {
	return rs.Handle(http.MethodGet, path, handler)
}

// Routes returns the routes in the order they were added
func (rs *RouteSet) Routes() []Route {
	return append([]Route(nil), rs.routes...)
}

// Mount registers the routes below prefix. Static paths are registered before
// paths with variables, so that /custom is not taken for an id. Every route also
// matches with a trailing slash.
func (rs *RouteSet) Mount(router *mux.Router, prefix string) {
	routes := rs.Routes()
	sort.SliceStable(routes, func(i, j int) bool {
		return !strings.Contains(routes[i].Path, "{") && strings.Contains(routes[j].Path, "{")
	})

	rlog := logger.Default()
	for _, route := range routes {
		path := strings.TrimSuffix(prefix+route.Path, "/")
		if path == "" {
			path = "/"
		}
		rlog.Debugf("  handle route: %s %s", path, route.Method)
		router.Handle(path, route.Handler).Methods(route.Method)
		if path != "/" {
			router.Handle(path+"/", route.Handler).Methods(route.Method)
		}
	}
}
