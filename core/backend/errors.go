package backend

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/response"
)

type contextKeyProductionType struct{}

var contextKeyProduction = &contextKeyProductionType{}

// ContextWithProduction returns a context which tells the error handler whether
// internal details may be exposed to clients
func ContextWithProduction(ctx context.Context, production bool) context.Context {
	return context.WithValue(ctx, contextKeyProduction, production)
}

func productionFromContext(ctx context.Context) bool {
	production, _ := ctx.Value(contextKeyProduction).(bool)
	return production
}

// Detail is the error detail of internal server errors outside production
type Detail struct {
	Detail string `json:"detail"`
	Stack  string `json:"stack"`
}

// Duplicate is the error detail of a violated unique constraint
type Duplicate struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// HandleError writes the error envelope for err. It is the single error path of
// all resource handlers. The full failure is always logged.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	rlog := logger.FromContext(r.Context()).WithError(err)

	var (
		validationErr *ierr.ValidationError
		castErr       *ierr.CastError
		duplicateErr  *ierr.DuplicateKeyError
		statusErr     *ierr.StatusError
	)
	switch {
	case errors.As(err, &validationErr):
		rlog.Infoln("validation error on", r.Method, r.URL.Path)
		response.BadRequest(w, "Validation Error", validationErr.Messages())
	case errors.As(err, &castErr):
		rlog.Infoln("cast error on", r.Method, r.URL.Path)
		response.BadRequest(w, castErr.Error(), nil)
	case errors.As(err, &duplicateErr):
		rlog.Infoln("duplicate key on", r.Method, r.URL.Path)
		response.BadRequest(w, "Duplicate field value entered",
			Duplicate{Field: duplicateErr.Field, Value: duplicateErr.Value})
	case errors.As(err, &statusErr):
		rlog.Infoln("status", statusErr.Status, "on", r.Method, r.URL.Path)
		response.Error(w, statusErr.Status, statusErr.Message, statusErr.Errors)
	default:
		status := ierr.HTTPStatusFromErr(err)
		if status != http.StatusInternalServerError {
			message := ierr.Hint(err)
			if message == "" {
				message = http.StatusText(status)
			}
			rlog.Infoln("status", status, "on", r.Method, r.URL.Path)
			response.Error(w, status, message, nil)
			return
		}
		rlog.Errorf("internal error on %s %s: %+v", r.Method, r.URL.Path, err)
		if productionFromContext(r.Context()) {
			response.Error(w, http.StatusInternalServerError, "Internal Server Error", nil)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Internal Server Error",
			Detail{Detail: err.Error(), Stack: ierr.Stack(err)})
	}
}
