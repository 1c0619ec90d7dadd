/*
Package scaffold generates the source files of new resources

For a resource "BlogPost" the generator writes into the resources directory:

	blogpost.go                        schema fields and New<Name>Schema
	schemas/BlogPostValidation.json    create and update validation rules
	blogpost_routes.go                 route wiring over the generic controller
	blogpost_controller.go             dedicated controller (generate-crud only)

Existing files are never overwritten. The only file which is changed in place is the
route wiring, which generate-crud upgrades from the generic to the dedicated
controller.
*/
package scaffold

import (
	"path"
	"strings"

	"github.com/relabs-tech/crudkit/core"
)

// Names are the derived names of a resource
type Names struct {
	// Name is the name as entered
	Name string
	// Pascal is the Go name of the resource, e.g. BlogPost
	Pascal string
	// Camel is the name of local identifiers, e.g. blogPost
	Camel string
	// Lower is the base of all file names, e.g. blogpost
	Lower string
	// Path is the collection route below /api, e.g. /blogposts
	Path string
}

// NewNames derives the names of a resource
func NewNames(name string) Names {
	pascal := core.PascalCase(name)
	return Names{
		Name:   name,
		Pascal: pascal,
		Camel:  core.CamelCase(name),
		Lower:  strings.ToLower(pascal),
		Path:   core.CollectionPath(name),
	}
}

// ModelFile is the file of the schema fields
func (n Names) ModelFile() string {
	return n.Lower + ".go"
}

// ValidationFile is the file of the validation rules
func (n Names) ValidationFile() string {
	return path.Join(SchemasDir, n.Pascal+"Validation.json")
}

// RoutesFile is the file of the route wiring
func (n Names) RoutesFile() string {
	return n.Lower + "_routes.go"
}

// ControllerFile is the file of the dedicated controller
func (n Names) ControllerFile() string {
	return n.Lower + "_controller.go"
}
