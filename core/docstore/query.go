package docstore

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// Operators supported in filters
const (
	OpEq     = "$eq"
	OpNe     = "$ne"
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpNin    = "$nin"
	OpExists = "$exists"
)

var operators = map[string]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpIn: true, OpNin: true, OpExists: true,
}

// Filter maps field names (dotted paths for nested fields) to a value or an operator
// object. Example:
//
//	{"role": "admin", "age": {"$gte": 18}, "deletedAt": {"$exists": false}}
//
// The field "id" is an alias for IDField.
type Filter map[string]any

// SortField is one sort key
type SortField struct {
	Field      string
	Descending bool
}

// Sort is an ordered list of sort keys. Documents which compare equal on all keys
// keep their insertion order.
type Sort []SortField

// Query selects a page of documents
type Query struct {
	Filter Filter
	Sort   Sort
	Skip   int
	// Limit is the maximum number of documents, zero means no limit
	Limit int
}

// Condition is a single comparison of a filter
type Condition struct {
	Field string
	Op    string
	Value any
}

func badFilter(format string, args ...any) error {
	return ierr.NewError("invalid filter").WithHintf(format, args...).Mark(ierr.ErrBadRequest)
}

// ParseFilter parses a JSON filter
func ParseFilter(data []byte) (Filter, error) {
	var filter Filter
	if err := json.Unmarshal(data, &filter); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = Filter{}
	}
	return filter, nil
}

// ParseSort parses a JSON sort object. The order of the keys is kept. Accepted
// directions are 1, -1, "asc", "desc", "ascending" and "descending".
func ParseSort(data []byte) (Sort, error) {
	// the token stream keeps the key order
	dec := json.NewDecoder(bytes.NewReader(data))
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("sort must be an object")
	}
	var result Sort
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		field, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", t)
		}
		var direction any
		if err := dec.Decode(&direction); err != nil {
			return nil, err
		}
		desc, err := parseDirection(direction)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		result = append(result, SortField{Field: canonicalField(field), Descending: desc})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseDirection(direction any) (bool, error) {
	switch d := direction.(type) {
	case float64:
		switch d {
		case 1:
			return false, nil
		case -1:
			return true, nil
		}
	case string:
		switch strings.ToLower(d) {
		case "asc", "ascending", "1":
			return false, nil
		case "desc", "descending", "-1":
			return true, nil
		}
	}
	return false, fmt.Errorf("invalid sort direction %v", direction)
}

func canonicalField(field string) string {
	if field == "id" {
		return IDField
	}
	return field
}

// Conditions returns the conditions of the filter sorted by field. An unsupported
// operator is a bad request.
func (f Filter) Conditions() ([]Condition, error) {
	var conditions []Condition
	for field, value := range f {
		if strings.HasPrefix(field, "$") {
			return nil, badFilter("Unsupported filter operator %s", field)
		}
		field = canonicalField(field)
		ops, ok := operatorObject(value)
		if !ok {
			conditions = append(conditions, Condition{Field: field, Op: OpEq, Value: value})
			continue
		}
		for op, v := range ops {
			if !operators[op] {
				return nil, badFilter("Unsupported filter operator %s", op)
			}
			switch op {
			case OpIn, OpNin:
				if _, ok := v.([]any); !ok {
					return nil, badFilter("%s of %s requires an array", op, field)
				}
			case OpExists:
				if _, ok := v.(bool); !ok {
					return nil, badFilter("%s of %s requires a boolean", op, field)
				}
			}
			conditions = append(conditions, Condition{Field: field, Op: op, Value: v})
		}
	}
	sort.Slice(conditions, func(i, j int) bool {
		if conditions[i].Field != conditions[j].Field {
			return conditions[i].Field < conditions[j].Field
		}
		return conditions[i].Op < conditions[j].Op
	})
	return conditions, nil
}

// operatorObject returns value as operator map if all its keys are operators
func operatorObject(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		if f, isFilter := value.(Filter); isFilter {
			m, ok = map[string]any(f), true
		}
	}
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// lookup returns the value of a dotted path
func lookup(doc Document, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Match returns true if doc satisfies all conditions
func Match(doc Document, conditions []Condition) bool {
	for _, c := range conditions {
		if !matchCondition(doc, c) {
			return false
		}
	}
	return true
}

func matchCondition(doc Document, c Condition) bool {
	v, present := lookup(doc, c.Field)
	switch c.Op {
	case OpEq:
		return matchEq(v, present, c.Value)
	case OpNe:
		return !matchEq(v, present, c.Value)
	case OpIn:
		return matchIn(v, present, c.Value.([]any))
	case OpNin:
		return !matchIn(v, present, c.Value.([]any))
	case OpExists:
		return present == c.Value.(bool)
	}
	if !present {
		return false
	}
	cmp, ok := compare(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func matchEq(v any, present bool, value any) bool {
	if value == nil {
		return !present || v == nil
	}
	if !present {
		return false
	}
	if equal(v, value) {
		return true
	}
	// an array field matches if one of its elements matches
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			if equal(e, value) {
				return true
			}
		}
	}
	return false
}

func matchIn(v any, present bool, values []any) bool {
	for _, value := range values {
		if matchEq(v, present, value) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compare compares two values of the same kind
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// typeRank orders values of different kinds the way MongoDB does
func typeRank(v any, present bool) int {
	if !present || v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case map[string]any:
		return 3
	case []any:
		return 4
	case bool:
		return 5
	}
	return 6
}

// compareForSort is a total order over values of any kind
func compareForSort(a any, aPresent bool, b any, bPresent bool) int {
	ra, rb := typeRank(a, aPresent), typeRank(b, bPresent)
	if ra != rb {
		return ra - rb
	}
	cmp, _ := compare(a, b)
	return cmp
}

// Less returns true if doc a sorts before doc b. Equal documents return false.
func (s Sort) Less(a, b Document) bool {
	for _, sf := range s {
		va, pa := lookup(a, sf.Field)
		vb, pb := lookup(b, sf.Field)
		cmp := compareForSort(va, pa, vb, pb)
		if cmp == 0 {
			continue
		}
		if sf.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}
