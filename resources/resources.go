// Package resources holds the resources served by the api service.
//
// A resource consists of its schema fields (<name>.go), its validation rules
// (schemas/<Name>Validation.json) and its route wiring (<name>_routes.go). New
// resources are generated with tools/generate-model and must be added to
// Definitions to be served.
package resources

import (
	"context"
	"embed"
	"io/fs"

	"github.com/cockroachdb/errors"

	"github.com/relabs-tech/crudkit/core/backend"
	"github.com/relabs-tech/crudkit/core/docstore"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/model"
	"github.com/relabs-tech/crudkit/core/registry"
	"github.com/relabs-tech/crudkit/core/schema"
)

//go:embed schemas
var schemasFS embed.FS

// Definition binds the generated parts of a resource together
type Definition struct {
	Name   string
	Schema func() *model.Schema
	Routes func(m *model.Model, validation *schema.Set) *backend.RouteSet
}

// Definitions are all served resources, in the order of their routes in GET /api
var Definitions = []Definition{
	{Name: "User", Schema: NewUserSchema, Routes: UserRoutes},
}

// Validator returns the validator of all validation files in schemas/
func Validator() (*schema.Validator, error) {
	sub, err := fs.Sub(schemasFS, "schemas")
	if err != nil {
		return nil, err
	}
	return schema.NewValidatorFromFS(sub)
}

// Register creates the models of all definitions in store and adds them to reg
func Register(ctx context.Context, store docstore.Store, reg *registry.Registry) error {
	validator, err := Validator()
	if err != nil {
		return errors.Wrap(err, "cannot load validation schemas")
	}
	return RegisterDefinitions(ctx, store, reg, validator, Definitions)
}

// RegisterDefinitions registers defs with the rules of validator. A resource without
// rules in validator is served without validation.
func RegisterDefinitions(ctx context.Context, store docstore.Store, reg *registry.Registry, validator *schema.Validator, defs []Definition) error {
	rlog := logger.FromContext(ctx)
	for _, def := range defs {
		collection, err := store.Collection(ctx, def.Name)
		if err != nil {
			return errors.Wrapf(err, "cannot open collection of %s", def.Name)
		}
		m, err := model.New(ctx, def.Name, def.Schema(), collection)
		if err != nil {
			return err
		}
		validation := validator.Set(def.Name)
		if validation == nil {
			rlog.Warnf("resource %s has no validation rules", def.Name)
		}
		resource := registry.Resource{Name: def.Name, Model: m, Routes: def.Routes(m, validation)}
		if err := reg.Register(resource); err != nil {
			return err
		}
		rlog.Debugf("registered resource %s at %s", def.Name, resource.Path())
	}
	return nil
}
