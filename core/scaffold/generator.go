package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/mod/modfile"
)

var (
	// ErrNameRequired is returned for an empty resource name
	ErrNameRequired = errors.New("model name is required")
	// ErrModelMissing is returned by GenerateCrud if the model file does not exist
	ErrModelMissing = errors.New("model file not found")
)

// Generator writes resource files into Dir
type Generator struct {
	// Dir is the resources directory
	Dir string
	// Module is the module path of the project, generated files import the core
	// packages below it
	Module string
	// Package is the package name of the generated files
	Package string
}

// New returns a generator for the resources directory dir. The module path is read
// from the go.mod of the enclosing module.
func New(dir string) (*Generator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	module, err := modulePath(abs)
	if err != nil {
		return nil, err
	}
	return &Generator{Dir: dir, Module: module, Package: packageName(abs)}, nil
}

// modulePath finds the go.mod in dir or above and returns its module path
func modulePath(dir string) (string, error) {
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			module := modfile.ModulePath(data)
			if module == "" {
				return "", fmt.Errorf("no module path in %s", filepath.Join(dir, "go.mod"))
			}
			return module, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found")
		}
		dir = parent
	}
}

var nonIdentifier = regexp.MustCompile(`[^a-z0-9_]`)

func packageName(dir string) string {
	name := nonIdentifier.ReplaceAllString(strings.ToLower(filepath.Base(dir)), "")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return "resources"
	}
	return name
}

func (g *Generator) data(names Names, fields []FieldDescriptor) templateData {
	return templateData{
		Package: g.Package,
		Module:  g.Module,
		Names:   names,
		Fields:  fields,
		Routes:  RouteFile{Names: names},
	}
}

func checkName(name string) (Names, error) {
	names := NewNames(strings.TrimSpace(name))
	if names.Pascal == "" {
		return names, ErrNameRequired
	}
	if !fieldNameRegex.MatchString(names.Pascal) {
		return names, fmt.Errorf("invalid model name '%s'", name)
	}
	return names, nil
}

// GenerateModel writes the model, validation and route files of a new resource.
// All files are rendered before the first one is written. Files which already
// exist are reported and left untouched.
func (g *Generator) GenerateModel(name string, fields []FieldDescriptor) ([]Result, error) {
	names, err := checkName(name)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	if dups := lo.FindDuplicatesBy(fields, func(f FieldDescriptor) string { return f.Name }); len(dups) > 0 {
		return nil, fmt.Errorf("field %s is defined more than once", dups[0].Name)
	}

	data := g.data(names, fields)
	var artifacts []Artifact
	for _, render := range []func(templateData) (Artifact, error){renderModel, renderValidation, renderRoutes} {
		a, err := render(data)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return g.writeAll(artifacts)
}

func (g *Generator) writeAll(artifacts []Artifact) ([]Result, error) {
	var results []Result
	for _, a := range artifacts {
		result, err := writeIfAbsent(g.Dir, a)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// GenerateCrud adds a dedicated controller to an existing resource. It writes the
// controller, makes sure there is a validation file and upgrades the route file
// to serve through the controller. A missing route file is created in the
// dedicated form.
func (g *Generator) GenerateCrud(name string) ([]Result, error) {
	names, err := checkName(name)
	if err != nil {
		return nil, err
	}
	modelPath := filepath.Join(g.Dir, names.ModelFile())
	ok, err := exists(modelPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelMissing, modelPath)
	}

	data := g.data(names, nil)
	controller, err := renderController(data)
	if err != nil {
		return nil, err
	}
	validation, err := renderSkeletonValidation(data)
	if err != nil {
		return nil, err
	}
	results, err := g.writeAll([]Artifact{controller, validation})
	if err != nil {
		return results, err
	}

	result, err := g.upgradeRoutes(data)
	if err != nil {
		return results, err
	}
	return append(results, result), nil
}

func (g *Generator) upgradeRoutes(data templateData) (Result, error) {
	generic := data.Routes
	dedicated := UpgradeRouteFile(generic)
	path := filepath.Join(g.Dir, data.Names.RoutesFile())
	result := Result{Kind: KindRoutes, Path: path}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data.Routes = dedicated
		a, err := renderRoutes(data)
		if err != nil {
			return result, err
		}
		if err := writeFile(path, a.Content); err != nil {
			return result, err
		}
		result.Status = Created
		return result, nil
	}
	if err != nil {
		return result, err
	}

	updated, status, reason := ApplyUpgrade(content, generic, dedicated)
	result.Status, result.Reason = status, reason
	if status != Updated {
		return result, nil
	}
	if err := writeFile(path, updated); err != nil {
		return result, err
	}
	return result, nil
}
