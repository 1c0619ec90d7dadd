// Command api serves the resources of package resources.
//
// The configuration is read from the environment and an optional .env file, see
// config.Service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/crudkit/core/backend"
	"github.com/relabs-tech/crudkit/core/config"
	"github.com/relabs-tech/crudkit/core/docstore"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/registry"
	"github.com/relabs-tech/crudkit/resources"
)

func storeConfiguration(service *config.Service) docstore.Configuration {
	switch service.StoreDriver {
	case config.DriverPostgres:
		return docstore.Configuration{
			DriverType: docstore.DriverTypePostgres,
			PostgresConfiguration: &docstore.PostgresConfiguration{
				DataSource: service.PostgresDataSource(),
				Schema:     service.PostgresSchema,
			},
		}
	case config.DriverMongo:
		return docstore.Configuration{
			DriverType: docstore.DriverTypeMongo,
			MongoConfiguration: &docstore.MongoConfiguration{
				URI:      service.MongoURI,
				Database: service.MongoDatabase,
			},
		}
	}
	return docstore.Configuration{DriverType: docstore.DriverTypeMemory}
}

func main() {
	service, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("cannot load configuration")
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := docstore.Open(ctx, storeConfiguration(service))
	if err != nil {
		rlog.WithError(err).Fatal("cannot open document store")
	}
	defer store.Close(context.Background())
	rlog.Infof("document store: %s", service.StoreDriver)

	reg := registry.New()
	if err := resources.Register(ctx, store, reg); err != nil {
		rlog.WithError(err).Fatal("cannot register resources")
	}

	b := backend.New(&backend.Builder{
		Router:      mux.NewRouter(),
		Registry:    reg,
		Production:  service.IsProduction(),
		CORSOrigins: service.Origins(),
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(service.Port),
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	rlog.Infof("server running in %s mode on port %d", service.Environment, service.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rlog.WithError(err).Fatal("server stopped")
	}
	rlog.Info("server stopped")
}
