// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package schema validates request payloads against JSON schemas.

Every resource has one validation file <Name>Validation.json with two rule sets:

	{
	  "create": { "type": "object", "required": ["email"], "properties": {...} },
	  "update": { "type": "object", "properties": {...} }
	}

The update rules have the same properties without required constraints. Json files
in refs/ are added as references and may be used from any rule set.
*/
package schema

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// FileSuffix is the suffix of validation files
const FileSuffix = "Validation.json"

// Rule set variants
const (
	Create = "create"
	Update = "update"
)

// Validator is a utility to validate JSON object against a given schema
type Validator struct {
	schemaValidators map[string]*gojsonschema.Schema
}

// ID returns the schema id of a resource's rule set
func ID(resource, variant string) string {
	return resource + "." + variant
}

// NewValidatorFromFS creates a new Validator using the validation files in the root
// of schemaFS. Json files in refs/ are used as references.
func NewValidatorFromFS(schemaFS fs.FS) (*Validator, error) {

	readDir := func(dir string, suffix string) (map[string]string, error) {
		strs := map[string]string{}
		files, err := fs.ReadDir(schemaFS, dir)
		if err != nil {
			return nil, fmt.Errorf("cannot read dir %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), suffix) {
				continue
			}
			str, err := fs.ReadFile(schemaFS, path.Join(dir, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("cannot read file '%s' %w", f.Name(), err)
			}
			strs[strings.TrimSuffix(f.Name(), suffix)] = string(str)
		}
		return strs, nil
	}

	sets, err := readDir(".", FileSuffix)
	if err != nil {
		return nil, err
	}

	var refs []string
	if _, err := fs.Stat(schemaFS, "refs"); err == nil {
		refMap, err := readDir("refs", ".json")
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(refMap))
		for k := range refMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			refs = append(refs, refMap[k])
		}
	}

	return NewValidator(sets, refs)
}

// NewValidator creates a new Validator. sets maps resource names to the content of
// their validation file, refs are schemas which may be referenced from any rule set.
func NewValidator(sets map[string]string, refs []string) (*Validator, error) {
	validator := Validator{schemaValidators: make(map[string]*gojsonschema.Schema)}
	for resource, str := range sets {
		var variants map[string]json.RawMessage
		err := json.Unmarshal([]byte(str), &variants)
		if err != nil {
			return nil, fmt.Errorf("parse error '%v' in validation of %s", err, resource)
		}
		for variant, raw := range variants {
			if variant != Create && variant != Update {
				return nil, fmt.Errorf("validation of %s has unknown rule set '%s'", resource, variant)
			}
			sl := gojsonschema.NewSchemaLoader()
			for _, ref := range refs {
				loader := gojsonschema.NewStringLoader(ref)
				err := sl.AddSchemas(loader)
				if err != nil {
					return nil, fmt.Errorf("cannot add ref %s %s", ref, err)
				}
			}
			schema, err := sl.Compile(gojsonschema.NewStringLoader(string(raw)))
			if err != nil {
				return nil, fmt.Errorf("cannot compile schema %s %s", ID(resource, variant), err)
			}
			validator.schemaValidators[ID(resource, variant)] = schema
		}
	}

	return &validator, nil
}

// HasSchema returns true if schemaID is known
func (v *Validator) HasSchema(schemaID string) bool {
	_, ok := v.schemaValidators[schemaID]
	return ok
}

// Set returns the rule sets of a resource, or nil if the resource has no validation
func (v *Validator) Set(resource string) *Set {
	if v == nil {
		return nil
	}
	set := &Set{Create: v.rules(ID(resource, Create)), Update: v.rules(ID(resource, Update))}
	if set.Create == nil && set.Update == nil {
		return nil
	}
	return set
}

func (v *Validator) rules(schemaID string) *Rules {
	schema, ok := v.schemaValidators[schemaID]
	if !ok {
		return nil
	}
	return &Rules{ID: schemaID, schema: schema}
}

// ValidateString validates the given json against schemaID. If no error is returned, then the
// passed json is valid
func (v *Validator) ValidateString(json, schemaID string) error {
	rules := v.rules(schemaID)
	if rules == nil {
		return fmt.Errorf("there is no schema %s ", schemaID)
	}
	fieldErrors, err := rules.Validate([]byte(json))
	if err != nil {
		return err
	}
	if len(fieldErrors) > 0 {
		return &ierr.ValidationError{Errors: fieldErrors}
	}
	return nil
}

// Set holds the rule sets of one resource. A nil rule set accepts everything.
type Set struct {
	Create *Rules
	Update *Rules
}

// Rules is one compiled rule set
type Rules struct {
	ID     string
	schema *gojsonschema.Schema
}

// ErrInvalidJSON is returned if a payload is not JSON
var ErrInvalidJSON = ierr.NewError("invalid json").WithHint("Invalid JSON body").Mark(ierr.ErrBadRequest)

// Validate validates the full payload and returns all field errors. Field is the
// dotted path of the offending property. Nil rules accept every payload.
func (r *Rules) Validate(payload []byte) ([]ierr.FieldError, error) {
	if r == nil {
		return nil, nil
	}
	if !json.Valid(payload) {
		return nil, ErrInvalidJSON
	}
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("cannot validate with schema %s %s", r.ID, err)
	}
	if result.Valid() {
		return nil, nil
	}
	var fieldErrors []ierr.FieldError
	for _, e := range result.Errors() {
		fieldErrors = append(fieldErrors, fieldError(e))
	}
	sort.SliceStable(fieldErrors, func(i, j int) bool {
		return fieldErrors[i].Field < fieldErrors[j].Field
	})
	return fieldErrors, nil
}

func fieldError(e gojsonschema.ResultError) ierr.FieldError {
	field := e.Field()
	if field == "(root)" {
		field = ""
	}
	if property, ok := e.Details()["property"].(string); ok {
		if field == "" {
			field = property
		} else {
			field = field + "." + property
		}
	}
	message := e.Description()
	switch e.Type() {
	case "required", "additional_property_not_allowed":
	default:
		if field != "" {
			message = field + ": " + message
		}
	}
	return ierr.FieldError{Field: field, Message: message}
}
