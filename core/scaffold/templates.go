package scaffold

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/relabs-tech/crudkit/core/model"
)

// SchemasDir is the directory of the validation files below the resources directory
const SchemasDir = "schemas"

// ReferencePattern matches the identifiers of all document stores, MongoDB object
// ids and UUIDs
const ReferencePattern = `^([0-9a-fA-F]{24}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`

type templateData struct {
	Package string
	Module  string
	Names   Names
	Fields  []FieldDescriptor
	Routes  RouteFile
}

var funcs = template.FuncMap{
	"literal": func(f FieldDescriptor) string { return f.goLiteral() },
	"quote":   strconv.Quote,
}

var modelTemplate = template.Must(template.New("model").Funcs(funcs).Parse(`package {{.Package}}

import (
	"{{.Module}}/core/model"
)

// {{.Names.Camel}}Fields are the fields of {{.Names.Pascal}} documents
var {{.Names.Camel}}Fields = model.Fields{
{{- range .Fields}}
	{{quote .Name}}: {{literal .}},
{{- end}}
}

// New{{.Names.Pascal}}Schema returns the schema of {{.Names.Pascal}}.
//
// Hooks which run before a document is created are added with Pre, e.g.
//
//	schema.Pre(func(ctx context.Context, doc model.Document) error {
//		return nil
//	})
func New{{.Names.Pascal}}Schema() *model.Schema {
	schema := model.NewSchema({{.Names.Camel}}Fields)
	return schema
}
`))

var routesTemplate = template.Must(template.New("routes").Funcs(funcs).Parse(`package {{.Package}}

import (
	"{{.Module}}/core/backend"
	"{{.Module}}/core/model"
	"{{.Module}}/core/schema"
)

// {{.Names.Pascal}}Routes returns the routes of {{.Names.Pascal}}, served at /api{{.Names.Path}}
func {{.Names.Pascal}}Routes(m *model.Model, validation *schema.Set) *backend.RouteSet {
	{{.Routes.Setup}}

	// Custom route example
	{{.Routes.CustomRoute}}
	return routes
}
`))

var controllerTemplate = template.Must(template.New("controller").Funcs(funcs).Parse(`package {{.Package}}

import (
	"net/http"

	"{{.Module}}/core/backend"
	"{{.Module}}/core/docstore"
	"{{.Module}}/core/model"
	"{{.Module}}/core/response"
)

// {{.Names.Pascal}}Controller serves the standard operations of {{.Names.Pascal}} with the
// generic controller and adds its own.
type {{.Names.Pascal}}Controller struct {
	*backend.Controller
}

// New{{.Names.Pascal}}Controller returns the controller for m
func New{{.Names.Pascal}}Controller(m *model.Model) *{{.Names.Pascal}}Controller {
	return &{{.Names.Pascal}}Controller{Controller: backend.NewController(m)}
}

// Custom is an example of a custom operation. It returns up to five active documents.
func (c *{{.Names.Pascal}}Controller) Custom(w http.ResponseWriter, r *http.Request) error {
	docs, err := c.Model.Find(r.Context(), docstore.Query{
		Filter: docstore.Filter{model.ActiveField: true},
		Limit:  5,
	})
	if err != nil {
		return err
	}
	response.Success(w, http.StatusOK, "Custom method executed successfully", docs, nil)
	return nil
}
`))

func renderGo(t *template.Template, data templateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("cannot render %s: %w", t.Name(), err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cannot format %s: %w", t.Name(), err)
	}
	return formatted, nil
}

func renderModel(data templateData) (Artifact, error) {
	content, err := renderGo(modelTemplate, data)
	return Artifact{Kind: KindModel, Path: data.Names.ModelFile(), Content: content}, err
}

func renderRoutes(data templateData) (Artifact, error) {
	content, err := renderGo(routesTemplate, data)
	return Artifact{Kind: KindRoutes, Path: data.Names.RoutesFile(), Content: content}, err
}

func renderController(data templateData) (Artifact, error) {
	content, err := renderGo(controllerTemplate, data)
	return Artifact{Kind: KindController, Path: data.Names.ControllerFile(), Content: content}, err
}

type property struct {
	Type      string `json:"type"`
	MinLength int    `json:"minLength,omitempty"`
	Format    string `json:"format,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

type objectSchema struct {
	Type                 string              `json:"type"`
	Required             []string            `json:"required,omitempty"`
	Properties           map[string]property `json:"properties"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type validationFile struct {
	Create objectSchema `json:"create"`
	Update objectSchema `json:"update"`
}

// validationRules derives both rule sets from the same descriptors. The update rules
// are the create rules without required fields. Defaults are not part of the rules.
func validationRules(fields []FieldDescriptor) validationFile {
	properties := map[string]property{
		model.ActiveField: {Type: "boolean"},
	}
	for _, f := range fields {
		properties[f.Name] = f.property()
	}
	required := lo.FilterMap(fields, func(f FieldDescriptor, _ int) (string, bool) {
		return f.Name, f.Required
	})
	create := objectSchema{Type: "object", Required: required, Properties: properties}
	update := create
	update.Required = nil
	return validationFile{Create: create, Update: update}
}

func renderValidation(data templateData) (Artifact, error) {
	content, err := json.MarshalIndent(validationRules(data.Fields), "", "  ")
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: KindValidation, Path: data.Names.ValidationFile(), Content: append(content, '\n')}, nil
}

// renderSkeletonValidation renders rules which accept any object, to be filled in by hand
func renderSkeletonValidation(data templateData) (Artifact, error) {
	rules := validationRules(nil)
	rules.Create.AdditionalProperties = true
	rules.Update.AdditionalProperties = true
	content, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: KindValidation, Path: data.Names.ValidationFile(), Content: append(content, '\n')}, nil
}
