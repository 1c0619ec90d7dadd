package model

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/relabs-tech/crudkit/core/docstore"
	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// FieldType is the storage type of a field
type FieldType string

// all supported field types
const (
	String    FieldType = "string"
	Number    FieldType = "number"
	Boolean   FieldType = "boolean"
	Date      FieldType = "date"
	Reference FieldType = "reference"
	Array     FieldType = "array"
	Object    FieldType = "object"
)

// Types lists all field types
var Types = []FieldType{String, Number, Boolean, Date, Reference, Array, Object}

// Public document fields maintained by the schema
const (
	IDField        = "id"
	ActiveField    = "isActive"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// TimestampFormat is the format of createdAt, updatedAt and all date fields. It has a
// fixed width, so timestamps sort lexically.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Field declares one field of a resource
type Field struct {
	Type     FieldType
	Required bool
	Unique   bool
	// Default is a value or a func() any which is called for every new document
	Default any
	// WriteOnly fields are stored but never returned, for example passwords
	WriteOnly bool
	// Enum restricts string fields to the listed values
	Enum  []string
	Match *regexp.Regexp
	// MatchMessage is reported if the value does not match Match
	MatchMessage string
	// Ref is the name of the referenced resource of a Reference field
	Ref string
}

// Fields maps field names to their declaration
type Fields map[string]Field

// Document is the public representation of a stored document
type Document = map[string]any

// Hook is called with the prepared document before it is created
type Hook func(ctx context.Context, doc Document) error

// Schema is the document schema of a resource
type Schema struct {
	fields Fields
	names  []string
	hooks  []Hook
}

// Option configures a schema
type Option func(*Schema)

// WithHook adds a pre-create hook
func WithHook(hook Hook) Option {
	return func(s *Schema) {
		s.hooks = append(s.hooks, hook)
	}
}

// baseFields are part of every schema
func baseFields() Fields {
	return Fields{
		ActiveField: {Type: Boolean, Default: true},
	}
}

// NewSchema creates a schema from the base fields and fields. A field in fields
// replaces a base field with the same name. Timestamps are always maintained.
func NewSchema(fields Fields, opts ...Option) *Schema {
	s := &Schema{fields: baseFields()}
	for name, f := range fields {
		s.fields[name] = f
	}
	s.names = lo.Keys(s.fields)
	sort.Strings(s.names)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pre registers a hook which runs before a document is created
func (s *Schema) Pre(hook Hook) {
	s.hooks = append(s.hooks, hook)
}

// Field returns the declaration of the named field
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// FieldNames returns the declared field names in alphabetical order
func (s *Schema) FieldNames() []string {
	return append([]string(nil), s.names...)
}

// UniqueFields returns the names of all unique fields
func (s *Schema) UniqueFields() []string {
	return lo.Filter(s.names, func(name string, _ int) bool {
		return s.fields[name].Unique
	})
}

// Transform returns the public representation of a stored document: the store
// identifier becomes "id", the version counter and write-only fields are removed.
// Transform is idempotent.
func (s *Schema) Transform(doc docstore.Document) Document {
	if doc == nil {
		return nil
	}
	result := make(Document, len(doc))
	for k, v := range doc {
		switch k {
		case docstore.IDField:
			result[IDField] = v
			continue
		case docstore.VersionField:
			continue
		}
		if f, ok := s.fields[k]; ok && f.WriteOnly {
			continue
		}
		result[k] = v
	}
	return result
}

// TransformAll transforms a list of documents
func (s *Schema) TransformAll(docs []docstore.Document) []Document {
	return lo.Map(docs, func(doc docstore.Document, _ int) Document {
		return s.Transform(doc)
	})
}

var clock struct {
	sync.Mutex
	last time.Time
}

// timestamp returns the current time. Consecutive calls never go backwards.
func timestamp() string {
	clock.Lock()
	defer clock.Unlock()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if now.Before(clock.last) {
		now = clock.last
	}
	clock.last = now
	return now.Format(TimestampFormat)
}

// Now is a Default for date fields
func Now() any {
	return timestamp()
}

var systemFields = map[string]bool{
	IDField:               true,
	docstore.IDField:      true,
	docstore.VersionField: true,
	CreatedAtField:        true,
	UpdatedAtField:        true,
}

// prepare drops unknown and system fields and checks all supplied values in the
// order of the field names. With create set, missing fields get their default or
// fail if they are required.
func (s *Schema) prepare(payload map[string]any, create bool) (Document, error) {
	var verr ierr.ValidationError
	doc := Document{}
	for _, name := range s.names {
		if systemFields[name] {
			continue
		}
		f := s.fields[name]
		value, ok := payload[name]
		if !ok {
			if !create {
				continue
			}
			if f.Default != nil {
				if fn, ok := f.Default.(func() any); ok {
					doc[name] = fn()
				} else {
					doc[name] = f.Default
				}
				continue
			}
			if f.Required {
				verr.Add(name, name+" is required")
			}
			continue
		}
		if value == nil || (value == "" && f.Required) {
			if f.Required {
				verr.Add(name, name+" is required")
				continue
			}
			doc[name] = nil
			continue
		}
		converted, err := convert(f, value)
		if err != nil {
			verr.Add(name, fmt.Sprintf("%s: %s", name, err.Error()))
			continue
		}
		if msg := check(name, f, converted); msg != "" {
			verr.Add(name, msg)
			continue
		}
		doc[name] = converted
	}
	return doc, verr.OrNil()
}

// PrepareCreate turns a payload into a new document: unknown fields are dropped,
// defaults and timestamps are set, every field is validated and the hooks run.
// All failed fields are reported in one *errors.ValidationError.
func (s *Schema) PrepareCreate(ctx context.Context, payload map[string]any) (Document, error) {
	doc, err := s.prepare(payload, true)
	if err != nil {
		return nil, err
	}
	now := timestamp()
	doc[CreatedAtField] = now
	doc[UpdatedAtField] = now
	for _, hook := range s.hooks {
		if err := hook(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// PrepareUpdate validates the supplied fields of a partial update and refreshes
// updatedAt. Fields which are not supplied are not checked.
func (s *Schema) PrepareUpdate(payload map[string]any) (Document, error) {
	doc, err := s.prepare(payload, false)
	if err != nil {
		return nil, err
	}
	doc[UpdatedAtField] = timestamp()
	return doc, nil
}

func convert(f Field, value any) (any, error) {
	switch f.Type {
	case String, Reference:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string")
	case Number:
		switch n := value.(type) {
		case float64, float32, int, int32, int64:
			return n, nil
		}
		return nil, fmt.Errorf("expected number")
	case Boolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected boolean")
	case Date:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected date")
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(TimestampFormat), nil
			}
		}
		return nil, fmt.Errorf("expected date")
	case Array:
		switch value.(type) {
		case []any, []string:
			return value, nil
		}
		return nil, fmt.Errorf("expected array")
	case Object:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return nil, fmt.Errorf("expected object")
	}
	return value, nil
}

func check(name string, f Field, value any) string {
	s, isString := value.(string)
	if !isString {
		return ""
	}
	if len(f.Enum) > 0 && !lo.Contains(f.Enum, s) {
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(f.Enum, ", "))
	}
	if f.Match != nil && !f.Match.MatchString(s) {
		if f.MatchMessage != "" {
			return f.MatchMessage
		}
		return name + " is invalid"
	}
	return ""
}
