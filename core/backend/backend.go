package backend

import (
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/registry"
	"github.com/relabs-tech/crudkit/core/response"
)

// APIPrefix is the path prefix of all resource routes
const APIPrefix = "/api"

// Backend is the generic rest backend
type Backend struct {
	router     *mux.Router
	registry   *registry.Registry
	production bool
	origins    []string
	handler    http.Handler
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Registry holds the resources to serve. This is mandatory.
	Registry *registry.Registry
	// Production hides internal error details from clients and disables the access log
	Production bool
	// CORSOrigins are the allowed origins, default is "*"
	CORSOrigins []string
	// AccessLog receives the access log outside of production. Default is the logrus
	// standard logger.
	AccessLog io.Writer
}

// New realizes the actual backend. It adds the routes of all registered resources
// below /api to the router, plus /api and /health.
func New(bb *Builder) *Backend {
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Registry == nil {
		panic("Registry is missing")
	}

	b := &Backend{
		router:     bb.Router,
		registry:   bb.Registry,
		production: bb.Production,
		origins:    bb.CORSOrigins,
	}
	if len(b.origins) == 0 {
		b.origins = []string{"*"}
	}

	logger.AddRequestID(b.router)
	b.router.Use(b.withMode, b.recoverPanics)
	b.router.NotFoundHandler = http.HandlerFunc(b.notFound)
	b.router.MethodNotAllowedHandler = http.HandlerFunc(b.methodNotAllowed)

	b.handleHealth(b.router)
	b.handleAPI(b.router)
	b.handleRoutes(b.router)

	var handler http.Handler = b.router
	handler = b.handleCompression(handler)
	handler = b.handleCORS(handler)
	if !b.production {
		out := bb.AccessLog
		if out == nil {
			out = logrus.StandardLogger().WriterLevel(logrus.InfoLevel)
		}
		handler = handlers.LoggingHandler(out, handler)
	}
	b.handler = handler
	return b
}

// Handler returns the router wrapped with CORS, compression and access logging.
// This is the handler to serve.
func (b *Backend) Handler() http.Handler {
	return b.handler
}

// Router returns the router
func (b *Backend) Router() *mux.Router {
	return b.router
}

// handleRoutes mounts the routes of every registered resource
func (b *Backend) handleRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("backend: HandleRoutes")
	for _, resource := range b.registry.Resources() {
		rlog.Debugln("resource", resource.Name)
		resource.Routes.Mount(router, APIPrefix+resource.Path())
	}
}

func (b *Backend) withMode(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(ContextWithProduction(r.Context(), b.production)))
	})
}

// recoverPanics turns a panicking handler into an internal server error
func (b *Backend) recoverPanics(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				HandleError(w, r, errors.Newf("panic: %v", p))
			}
		}()
		h.ServeHTTP(w, r)
	})
}

func (b *Backend) notFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Not Found - "+r.URL.Path)
}

func (b *Backend) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed - "+r.Method+" "+r.URL.Path, nil)
}
