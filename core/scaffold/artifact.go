package scaffold

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Kind is the kind of a generated file
type Kind string

// The generated file kinds
const (
	KindModel      Kind = "Model"
	KindValidation Kind = "Validation"
	KindRoutes     Kind = "Route"
	KindController Kind = "Controller"
)

// Status is the outcome of writing an artifact
type Status string

// Write outcomes
const (
	// Created means the file did not exist and has been written
	Created Status = "created"
	// Exists means the file existed and has not been touched
	Exists Status = "already exists"
	// Updated means an existing file has been changed in place
	Updated Status = "updated"
	// Unchanged means the in-place change had already been applied
	Unchanged Status = "already up to date"
	// Skipped means the in-place change could not be applied, the file has not been touched
	Skipped Status = "skipped"
)

// Artifact is one generated file. Path is relative to the resources directory.
type Artifact struct {
	Kind    Kind
	Path    string
	Content []byte
}

// Result reports what happened to an artifact
type Result struct {
	Kind   Kind
	Path   string
	Status Status
	// Reason explains a skipped result
	Reason string
}

func (r Result) String() string {
	s := fmt.Sprintf("%s file %s: %s", r.Kind, r.Status, r.Path)
	if r.Reason != "" {
		s += " (" + r.Reason + ")"
	}
	return s
}

// Report prints the results, one per line
func Report(w io.Writer, results []Result) {
	for _, r := range results {
		fmt.Fprintln(w, r.String())
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// writeIfAbsent writes the artifact below dir unless the file already exists
func writeIfAbsent(dir string, a Artifact) (Result, error) {
	result := Result{Kind: a.Kind, Path: filepath.Join(dir, a.Path)}
	ok, err := exists(result.Path)
	if err != nil {
		return result, err
	}
	if ok {
		result.Status = Exists
		return result, nil
	}
	if err := writeFile(result.Path, a.Content); err != nil {
		return result, err
	}
	result.Status = Created
	return result, nil
}

// writeFile writes content to a temporary file next to path and renames it, so
// that path either has the complete content or is not touched at all
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
