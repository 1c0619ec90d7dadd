package scaffold

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for a resource definition, one question at a time
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter returns a prompter reading answers from in and writing questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask writes the question and returns the trimmed answer. It returns io.EOF when
// there is no more input.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Confirm asks a yes/no question, only "y" and "yes" are yes
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Say writes a line to the operator
func (p *Prompter) Say(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// ModelName asks for the name of the resource
func (p *Prompter) ModelName() (string, error) {
	name, err := p.Ask("Enter model name (e.g., User, Product): ")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

// Fields asks for field descriptors until the operator declines to add another one.
// Fields without name or with an unknown type are skipped.
func (p *Prompter) Fields() ([]FieldDescriptor, error) {
	var fields []FieldDescriptor

	p.Say("\nDefine fields for the model:")
	p.Say("Available types: string, number, boolean, date, objectid, reference, array, object")
	for {
		name, err := p.Ask("Field name: ")
		if err != nil {
			return fields, err
		}
		if name == "" {
			p.Say("Field name is required. Skipping this field.")
			continue
		}

		typeName, err := p.Ask("Field type: ")
		if err != nil {
			return fields, err
		}
		if typeName == "" {
			p.Say("Field type is required. Skipping this field.")
			continue
		}
		fieldType, ok := ParseType(typeName)
		if !ok {
			p.Say("Unknown field type '%s'. Skipping this field.", typeName)
			continue
		}

		f := FieldDescriptor{Name: name, Type: fieldType}
		if f.Required, err = p.Confirm("Is required?"); err != nil {
			return fields, err
		}
		if f.Unique, err = p.Confirm("Is unique?"); err != nil {
			return fields, err
		}
		def, err := p.Ask("Default value (leave empty for none): ")
		if err != nil {
			return fields, err
		}
		if def != "" {
			f.Default = &def
		}

		if err := f.Validate(); err != nil {
			p.Say("%s. Skipping this field.", err)
		} else {
			fields = append(fields, f)
		}

		more, err := p.Confirm("Add another field?")
		if err != nil {
			return fields, err
		}
		if !more {
			return fields, nil
		}
	}
}
