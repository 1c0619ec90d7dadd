package schema

import (
	"bytes"
	"io"
	"net/http"

	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/logger"
	"github.com/relabs-tech/crudkit/core/response"
)

// Gate validates request bodies against rules before they reach next. Invalid
// requests are answered with 400 "Validation Error" and the list of field errors,
// valid requests continue unchanged. Nil rules pass every request through.
func Gate(rules *Rules, next http.Handler) http.Handler {
	if rules == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
		r.Body.Close()

		fieldErrors, err := rules.Validate(body)
		if err != nil {
			if ierr.IsBadRequest(err) {
				response.BadRequest(w, ierr.Hint(err), nil)
				return
			}
			logger.FromContext(r.Context()).WithError(err).Errorln("validation failed")
			response.Error(w, http.StatusInternalServerError, "Internal Server Error", nil)
			return
		}
		if len(fieldErrors) > 0 {
			logger.FromContext(r.Context()).Debugln("rejected by", rules.ID, fieldErrors)
			response.BadRequest(w, "Validation Error", fieldErrors)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
