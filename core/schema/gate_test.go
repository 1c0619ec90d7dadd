package schema_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/crudkit/core/schema"
)

func TestGate(t *testing.T) {
	v, err := schema.NewValidator(map[string]string{"User": userValidation}, nil)
	require.NoError(t, err)

	var received string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.WriteHeader(http.StatusCreated)
	})
	gate := schema.Gate(v.Set("User").Create, next)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ada"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Validation Error",
		"errors":[{"field":"email","message":"email is required"}]}`, rec.Body.String())
	assert.Empty(t, received)

	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid JSON body")

	body := `{"name":"Ada","email":"ada@x.com"}`
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, body, received, "the body must reach the handler unchanged")

	// the update rules do not require email
	rec = httptest.NewRecorder()
	schema.Gate(v.Set("User").Update, next).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"name":"Ada"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// no rules, no gate
	rec = httptest.NewRecorder()
	schema.Gate(nil, next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`anything`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
