// Command generate-crud adds a dedicated controller to a resource created with
// generate-model and switches its routes over to the controller.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/relabs-tech/crudkit/core/scaffold"
)

var dir = flag.String("dir", "resources", "the resources directory")

func main() {
	flag.Parse()

	g, err := scaffold.New(*dir)
	if err != nil {
		fail(err)
	}
	p := scaffold.NewPrompter(os.Stdin, os.Stdout)

	name, err := p.ModelName()
	if err != nil {
		fail(err)
	}

	results, err := g.GenerateCrud(name)
	scaffold.Report(os.Stdout, results)
	if errors.Is(err, scaffold.ErrModelMissing) {
		fail(fmt.Errorf("%w. Please run generate-model first", err))
	}
	if err != nil {
		fail(err)
	}

	names := scaffold.NewNames(name)
	fmt.Printf("\nCRUD operations for %s generated.\n", names.Pascal)
	fmt.Printf("Custom methods go into %s, the routes into %s.\n", names.ControllerFile(), names.RoutesFile())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
