package core

import (
	"encoding/json"
	"testing"
)

func TestOperations_JSON_Unmarshalling(t *testing.T) {

	type Object struct {
		Operations []Operation `json:"operations"`
	}
	var object Object
	jsonRead := `{"operations":["create","read","update","list","delete","purge"]}`
	err := json.Unmarshal([]byte(jsonRead), &object)
	if err != nil {
		t.Fatal(err)
	}
	if len(object.Operations) != len(Operations) {
		t.Fatal("unexpected number of operations:", len(object.Operations))
	}

	jsonRead = `{"operations":["invalid"]}`
	err = json.Unmarshal([]byte(jsonRead), &object)
	if err == nil {
		t.Fatal("invalid operation accepted")
	}

}

func TestNames(t *testing.T) {
	cases := []struct {
		in, pascal, camel, path string
	}{
		{"user", "User", "user", "/users"},
		{"blog_post", "BlogPost", "blogPost", "/blogposts"},
		{"order-item", "OrderItem", "orderItem", "/orderitems"},
		{"Product", "Product", "product", "/products"},
		{"line item", "LineItem", "lineItem", "/lineitems"},
	}
	for _, c := range cases {
		if p := PascalCase(c.in); p != c.pascal {
			t.Errorf("PascalCase(%q) = %q, want %q", c.in, p, c.pascal)
		}
		if p := CamelCase(c.in); p != c.camel {
			t.Errorf("CamelCase(%q) = %q, want %q", c.in, p, c.camel)
		}
		if p := CollectionPath(c.in); p != c.path {
			t.Errorf("CollectionPath(%q) = %q, want %q", c.in, p, c.path)
		}
	}
	if CamelCase("") != "" {
		t.Error("empty name must stay empty")
	}
}
