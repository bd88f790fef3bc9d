// Package render writes generated text to output files: a Word document
// for reports and a Marp markdown deck for presentations.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/poiesic/flowmate/core"
)

// Renderer turns generated text into a file.
type Renderer interface {
	// Render writes text to outputPath and returns the written path.
	Render(ctx context.Context, text, outputPath string) (string, error)

	// Extension is the file extension, with the dot, of rendered files.
	Extension() string
}

// OutputPath returns a fresh file path in dir for task output.
func OutputPath(dir string, task core.TaskType, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", task, uuid.NewString(), ext))
}

// writeFile creates parent directories and writes data through a
// temporary file so readers never see a partial output.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func renderErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrRenderFailure, filepath.Base(path), err)
}

var errNoSlides = errors.New("no slides in text")
