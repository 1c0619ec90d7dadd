package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Operation represents a resource operation, one of Create, List, Read, Update, Delete, Purge
type Operation string

// all supported resource operations
const (
	OperationCreate Operation = "create"
	OperationList   Operation = "list"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	// OperationDelete is the soft delete, it only clears the isActive flag
	OperationDelete Operation = "delete"
	// OperationPurge removes the document permanently
	OperationPurge Operation = "purge"
)

// Operations lists all operations in the order they are wired
var Operations = []Operation{
	OperationCreate, OperationList, OperationRead, OperationUpdate, OperationDelete, OperationPurge,
}

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationList, OperationRead, OperationUpdate, OperationDelete, OperationPurge:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
}

// PascalCase converts a resource name to its PascalCase form. Example: "blog_post"
// becomes "BlogPost". Characters following a separator are upper-cased, all
// others are left as they are.
func PascalCase(name string) string {
	var sb strings.Builder
	for _, w := range words(name) {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// CamelCase converts a resource name to its camelCase form. Example: "blog_post"
// becomes "blogPost".
func CamelCase(name string) string {
	p := []rune(PascalCase(name))
	if len(p) == 0 {
		return ""
	}
	p[0] = unicode.ToLower(p[0])
	return string(p)
}

// CollectionPath returns the REST route of a resource below /api. Example: "BlogPost"
// becomes "/blogposts".
//
// The plural is always formed by appending an "s", generated clients rely on that.
func CollectionPath(name string) string {
	return "/" + strings.ToLower(PascalCase(name)) + "s"
}
