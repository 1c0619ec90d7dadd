package schema_test

import (
	"testing"
	"testing/fstest"

	"github.com/relabs-tech/crudkit/core/schema"
)

const (
	ref1 = `{ "type" : "string" ,
		      "$id" : "http://some_host.com/string.json"}`
	ref2 = `{ "$id" : "http://some_host.com/maxlength.json",
	 		  "maxLength" : 5 }`

	noteValidation = `
	{ "create" : {
		"type": "object",
		"additionalProperties": false,
		"required": ["title"],
		"properties": {
			"title": { "allOf" : [
				{ "$ref" : "http://some_host.com/string.json" },
				{ "$ref" : "http://some_host.com/maxlength.json" }
			]},
			"stars": { "type": "number", "minimum": 0 }
		}
	  },
	  "update" : {
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"title": { "allOf" : [
				{ "$ref" : "http://some_host.com/string.json" },
				{ "$ref" : "http://some_host.com/maxlength.json" }
			]},
			"stars": { "type": "number", "minimum": 0 }
		}
	  }
	}`

	userValidation = `
	{ "create" : {
		"type": "object",
		"required": ["email", "name"],
		"properties": {
			"email": { "type": "string", "format": "email" },
			"name": { "type": "string", "minLength": 1 },
			"address": {
				"type": "object",
				"properties": { "city": { "type": "string" } }
			}
		}
	  },
	  "update" : {
		"type": "object",
		"properties": {
			"email": { "type": "string", "format": "email" },
			"name": { "type": "string", "minLength": 1 }
		}
	  }
	}`
)

func TestValidateString(t *testing.T) {
	v, err := schema.NewValidator(map[string]string{"Note": noteValidation}, []string{ref1, ref2})
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}

	createID := schema.ID("Note", schema.Create)
	updateID := schema.ID("Note", schema.Update)

	// Valid json
	if err := v.ValidateString(`{"title":"short"}`, createID); err != nil {
		t.Fatalf("expected to be valid with schema %s. Reported error was: %v", createID, err)
	}

	// too long for the referenced maxLength
	if err := v.ValidateString(`{"title":"a very long title"}`, createID); err == nil {
		t.Fatalf("expected to be invalid with schema %s", createID)
	}

	// title is only required on create
	if err := v.ValidateString(`{"stars":3}`, createID); err == nil {
		t.Fatalf("expected to be invalid with schema %s", createID)
	}
	if err := v.ValidateString(`{"stars":3}`, updateID); err != nil {
		t.Fatalf("expected to be valid with schema %s. Reported error was: %v", updateID, err)
	}

	if err := v.ValidateString(`{"stars":3}`, "Unknown.create"); err == nil {
		t.Fatal("unknown schema must fail")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v, err := schema.NewValidator(map[string]string{"User": userValidation, "Note": noteValidation}, []string{ref1, ref2})
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}

	errs, err := v.Set("User").Create.Validate([]byte(`{"email":"nope","address":{"city":7}}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	fields := []string{"address.city", "email", "name"}
	for i, f := range fields {
		if errs[i].Field != f {
			t.Fatalf("expected error %d for field %s, got %v", i, f, errs[i])
		}
	}
	if errs[2].Message != "name is required" {
		t.Fatalf("unexpected message %q", errs[2].Message)
	}

	errs, err = v.Set("Note").Create.Validate([]byte(`{"title":"ok","color":"red"}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Field != "color" {
		t.Fatalf("expected one error for color, got %v", errs)
	}

	if _, err := v.Set("User").Create.Validate([]byte(`{"email":`)); err != schema.ErrInvalidJSON {
		t.Fatalf("expected invalid json error, got %v", err)
	}

	var nilRules *schema.Rules
	if errs, err := nilRules.Validate([]byte(`whatever`)); errs != nil || err != nil {
		t.Fatal("nil rules must accept everything")
	}
}

func TestNewValidatorFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"NoteValidation.json":       {Data: []byte(noteValidation)},
		"refs/string.json":          {Data: []byte(ref1)},
		"refs/maxlength.json":       {Data: []byte(ref2)},
		"README.md":                 {Data: []byte("not a schema")},
		"other/UserValidation.json": {Data: []byte(userValidation)},
	}
	v, err := schema.NewValidatorFromFS(fsys)
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}
	if !v.HasSchema("Note.create") || !v.HasSchema("Note.update") {
		t.Fatal("Note schemas are expected to be available")
	}
	if v.HasSchema("User.create") {
		t.Fatal("files in subdirectories are not validation files")
	}
	if v.Set("User") != nil {
		t.Fatal("User is not expected to have validation")
	}
}

func TestNewValidatorErrors(t *testing.T) {
	if _, err := schema.NewValidator(map[string]string{"Bad": `{"create": `}, nil); err == nil {
		t.Fatal("parse error expected")
	}
	if _, err := schema.NewValidator(map[string]string{"Bad": `{"delete": {}}`}, nil); err == nil {
		t.Fatal("unknown rule set expected")
	}
	if _, err := schema.NewValidator(map[string]string{"Bad": `{"create": {"type": 7}}`}, nil); err == nil {
		t.Fatal("compile error expected")
	}
}
