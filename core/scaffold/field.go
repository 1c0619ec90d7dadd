package scaffold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/relabs-tech/crudkit/core/model"
)

// FieldDescriptor describes one field of a new resource
type FieldDescriptor struct {
	Name     string          `validate:"required,fieldname"`
	Type     model.FieldType `validate:"required,oneof=string number boolean date reference array object"`
	Required bool
	Unique   bool
	// Default is the default value as entered, nil for none
	Default *string
}

var (
	fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	reservedFields = map[string]bool{
		model.IDField:        true,
		"_id":                true,
		"__v":                true,
		model.ActiveField:    true,
		model.CreatedAtField: true,
		model.UpdatedAtField: true,
	}

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return fieldNameRegex.MatchString(name) && !reservedFields[name]
	})
	return v
}

// ParseType parses a field type as entered. objectid is accepted for reference.
func ParseType(s string) (model.FieldType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "objectid" {
		return model.Reference, true
	}
	for _, t := range model.Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Validate checks the descriptor. Names must be identifiers and must not be one of
// the system fields, number defaults must be numbers.
func (f FieldDescriptor) Validate() error {
	if err := validate.Struct(f); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Name":
				return fmt.Errorf("invalid field name '%s'", f.Name)
			case "Type":
				return fmt.Errorf("invalid type '%s' of field %s", f.Type, f.Name)
			}
		}
		return err
	}
	if f.Type == model.Number && f.HasDefault() {
		if _, err := strconv.ParseFloat(strings.TrimSpace(*f.Default), 64); err != nil {
			return fmt.Errorf("default of field %s is not a number: %s", f.Name, *f.Default)
		}
	}
	return nil
}

// HasDefault returns true if a non-empty default was entered
func (f FieldDescriptor) HasDefault() bool {
	return f.Default != nil && *f.Default != ""
}

// goLiteral returns the model.Field literal of the descriptor, e.g.
//
//	{Type: model.String, Required: true, Default: "draft"}
func (f FieldDescriptor) goLiteral() string {
	parts := []string{"Type: model." + typeConstant(f.Type)}
	if f.Required {
		parts = append(parts, "Required: true")
	}
	if f.Unique {
		parts = append(parts, "Unique: true")
	}

	switch f.Type {
	case model.String:
		if f.HasDefault() {
			parts = append(parts, "Default: "+strconv.Quote(*f.Default))
		}
	case model.Number:
		if f.HasDefault() {
			parts = append(parts, "Default: "+strings.TrimSpace(*f.Default))
		}
	case model.Boolean:
		parts = append(parts, "Default: "+strconv.FormatBool(f.HasDefault() && *f.Default == "true"))
	case model.Date:
		parts = append(parts, "Default: model.Now")
	case model.Reference:
		parts = append(parts, `Ref: "ModelName"`)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func typeConstant(t model.FieldType) string {
	switch t {
	case model.String:
		return "String"
	case model.Number:
		return "Number"
	case model.Boolean:
		return "Boolean"
	case model.Date:
		return "Date"
	case model.Reference:
		return "Reference"
	case model.Array:
		return "Array"
	default:
		return "Object"
	}
}

// property returns the JSON schema property of the descriptor
func (f FieldDescriptor) property() property {
	switch f.Type {
	case model.String:
		return property{Type: "string", MinLength: 1}
	case model.Number:
		return property{Type: "number"}
	case model.Boolean:
		return property{Type: "boolean"}
	case model.Date:
		return property{Type: "string", Format: "date-time"}
	case model.Reference:
		return property{Type: "string", Pattern: ReferencePattern}
	case model.Array:
		return property{Type: "array"}
	default:
		return property{Type: "object"}
	}
}
