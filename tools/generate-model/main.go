// Command generate-model asks for the name and fields of a new resource and writes
// its model, validation and route files into the resources directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
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
	fields, err := p.Fields()
	if err != nil && !errors.Is(err, io.EOF) {
		fail(err)
	}

	results, err := g.GenerateModel(name, fields)
	scaffold.Report(os.Stdout, results)
	if err != nil {
		fail(err)
	}

	names := scaffold.NewNames(name)
	fmt.Printf("\nModel %s generated.\n", names.Pascal)
	fmt.Println("To serve it, add this line to Definitions in resources/resources.go:")
	fmt.Printf("\t{Name: %q, Schema: New%sSchema, Routes: %sRoutes},\n", names.Pascal, names.Pascal, names.Pascal)
	fmt.Printf("It will be available at /api%s\n", names.Path)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
