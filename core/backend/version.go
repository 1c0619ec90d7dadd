package backend

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/crudkit/core"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/response"
)

var (
	// Version is the version of the curent build
	Version = "1.0.0"
)

// Welcome is the data of the /api route
type Welcome struct {
	Version         string   `json:"version"`
	AvailableRoutes []string `json:"availableRoutes"`
	// Operations lists the standard operations per route
	Operations map[string][]core.Operation `json:"operations,omitempty"`
}

// operations returns the standard operations of every resource whose routes know them
func (b *Backend) operations() map[string][]core.Operation {
	result := map[string][]core.Operation{}
	for _, resource := range b.registry.Resources() {
		if rs, ok := resource.Routes.(interface{ Operations() []core.Operation }); ok {
			if ops := rs.Operations(); len(ops) > 0 {
				result[resource.Path()] = ops
			}
		}
	}
	return result
}

func (b *Backend) handleAPI(router *mux.Router) {
	logger.Default().Debugln("  handle api route: " + APIPrefix + " GET")
	router.HandleFunc(APIPrefix, func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Welcome to the CRUD API", Welcome{
			Version:         Version,
			AvailableRoutes: b.registry.Paths(""),
			Operations:      b.operations(),
		}, nil)
	}).Methods(http.MethodGet)
}

func (b *Backend) handleHealth(router *mux.Router) {
	logger.Default().Debugln("  handle health route: /health GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Server is running", map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, nil)
	}).Methods(http.MethodGet)
}
