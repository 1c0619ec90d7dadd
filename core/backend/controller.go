package backend

import (
	"math"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/crudkit/core/docstore"
	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/model"
	"github.com/relabs-tech/crudkit/core/response"
	"github.com/relabs-tech/crudkit/core/schema"
)

// Pagination defaults of list requests
const (
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit caps the page size, larger limits are served with MaxLimit
	MaxLimit = 1000
)

// HandlerFunc is a resource handler. A returned error is written by HandleError,
// the handler must not have written anything in that case.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements http.Handler
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		HandleError(w, r, err)
	}
}

// Handlers are the six standard operations of a resource
type Handlers struct {
	Create     HandlerFunc
	List       HandlerFunc
	Read       HandlerFunc
	Update     HandlerFunc
	SoftDelete HandlerFunc
	HardDelete HandlerFunc
}

// Controller implements the standard operations for the collection handle of one resource
type Controller struct {
	Model *model.Model
}

// NewController returns a controller for m
func NewController(m *model.Model) *Controller {
	return &Controller{Model: m}
}

// Handlers returns the operations of the controller
func (c *Controller) Handlers() Handlers {
	return Handlers{
		Create:     c.Create,
		List:       c.List,
		Read:       c.Read,
		Update:     c.Update,
		SoftDelete: c.SoftDelete,
		HardDelete: c.HardDelete,
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, schema.ErrInvalidJSON
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// Create inserts the request body as a new document
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) error {
	payload, err := decodeBody(r)
	if err != nil {
		return err
	}
	doc, err := c.Model.Create(r.Context(), payload)
	if err != nil {
		return err
	}
	response.Success(w, http.StatusCreated, "Resource created successfully", doc, nil)
	return nil
}

// positive parses s and falls back to def for anything but a positive integer
func positive(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// List returns one page of documents. Query parameters:
//
//	page      1-based page number, default 1
//	limit     page size, default 10
//	filter    JSON filter, e.g. {"role":"admin","age":{"$gte":18}}
//	sort      JSON sort, e.g. {"name":1,"createdAt":-1}, default {"createdAt":-1}
//	isActive  overrides isActive of the filter, "true" selects active documents
func (c *Controller) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	params := r.URL.Query()

	page := positive(params.Get("page"), DefaultPage)
	limit := min(positive(params.Get("limit"), DefaultLimit), MaxLimit)
	// (page-1)*limit must not overflow
	page = min(page, math.MaxInt/limit)

	filter := docstore.Filter{}
	if s := params.Get("filter"); s != "" {
		f, err := docstore.ParseFilter([]byte(s))
		if err != nil {
			return ierr.NewStatusError(http.StatusBadRequest, "Invalid filter format")
		}
		filter = f
	}
	if values, ok := params[model.ActiveField]; ok && len(values) > 0 {
		filter[model.ActiveField] = values[0] == "true"
	}

	sort := docstore.Sort{{Field: model.CreatedAtField, Descending: true}}
	if s := params.Get("sort"); s != "" {
		parsed, err := docstore.ParseSort([]byte(s))
		if err != nil {
			return ierr.NewStatusError(http.StatusBadRequest, "Invalid sort format")
		}
		if len(parsed) > 0 {
			sort = parsed
		}
	}

	docs, err := c.Model.Find(ctx, docstore.Query{
		Filter: filter,
		Sort:   sort,
		Skip:   (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	total, err := c.Model.Count(ctx, filter)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []model.Document{}
	}

	meta := response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: total / int64(limit),
	}
	if total%int64(limit) != 0 {
		meta.Pages++
	}
	response.Success(w, http.StatusOK, "Resources retrieved successfully", docs, meta)
	return nil
}

// Read returns a single document
func (c *Controller) Read(w http.ResponseWriter, r *http.Request) error {
	doc, err := c.Model.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if doc == nil {
		response.NotFound(w, "Resource not found")
		return nil
	}
	response.Success(w, http.StatusOK, "Resource retrieved successfully", doc, nil)
	return nil
}

// Update merges the request body into a document
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) error {
	payload, err := decodeBody(r)
	if err != nil {
		return err
	}
	doc, err := c.Model.UpdateByID(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		return err
	}
	if doc == nil {
		response.NotFound(w, "Resource not found")
		return nil
	}
	response.Success(w, http.StatusOK, "Resource updated successfully", doc, nil)
	return nil
}

// SoftDelete marks a document inactive. It can be repeated as long as the document exists.
func (c *Controller) SoftDelete(w http.ResponseWriter, r *http.Request) error {
	doc, err := c.Model.UpdateByID(r.Context(), mux.Vars(r)["id"], map[string]any{model.ActiveField: false})
	if err != nil {
		return err
	}
	if doc == nil {
		response.NotFound(w, "Resource not found")
		return nil
	}
	response.Success(w, http.StatusOK, "Resource deleted successfully", nil, nil)
	return nil
}

// HardDelete removes a document and returns it as it was before removal
func (c *Controller) HardDelete(w http.ResponseWriter, r *http.Request) error {
	doc, err := c.Model.DeleteByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if doc == nil {
		response.NotFound(w, "Resource not found")
		return nil
	}
	response.Success(w, http.StatusOK, "Resource permanently deleted", doc, nil)
	return nil
}

// ActiveSample returns a handler which lists the n most recent active documents of m
func ActiveSample(m *model.Model, n int) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		docs, err := m.Find(r.Context(), docstore.Query{
			Filter: docstore.Filter{model.ActiveField: true},
			Sort:   docstore.Sort{{Field: model.CreatedAtField, Descending: true}},
			Limit:  n,
		})
		if err != nil {
			return err
		}
		if docs == nil {
			docs = []model.Document{}
		}
		response.Success(w, http.StatusOK, "Resources retrieved successfully", docs, nil)
		return nil
	}
}
