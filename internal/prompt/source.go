package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/valpere/tear/internal/stage"
)

//go:embed prompts
var builtin embed.FS

// ConfigurationError reports a template that could not be resolved or parsed.
// It is raised when a controller is built, before any model call.
type ConfigurationError struct {
	Key stage.Key
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("prompt template %s: %v", e.Key.Path(), e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Source resolves the raw text of a (stage, strategy) template.
type Source interface {
	Load(key stage.Key) (string, error)
}

// FSSource reads "<stage>/<strategy>.txt" files from a file system.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource wraps fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Embedded returns the templates compiled into the binary.
func Embedded() *FSSource {
	sub, err := fs.Sub(builtin, "prompts")
	if err != nil {
		panic(err)
	}
	return NewFSSource(sub)
}

// Dir returns a source reading templates from a directory on disk laid out
// as dir/<stage>/<strategy>.txt.
func Dir(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir))
}

func (s *FSSource) Load(key stage.Key) (string, error) {
	data, err := fs.ReadFile(s.fsys, key.Path()+".txt")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Layered tries each source in order and returns the first template found.
type Layered []Source

func (l Layered) Load(key stage.Key) (string, error) {
	var errs []error
	for _, src := range l {
		raw, err := src.Load(key)
		if err == nil {
			return raw, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fs.ErrNotExist
	}
	return "", errors.Join(errs...)
}

// LoadTemplate resolves and parses the template for key.
func LoadTemplate(src Source, key stage.Key) (*Template, error) {
	if src == nil {
		return nil, &ConfigurationError{Key: key, Err: errors.New("no template source configured")}
	}
	raw, err := src.Load(key)
	if err != nil {
		return nil, &ConfigurationError{Key: key, Err: err}
	}
	t, err := Parse(key.Path(), raw)
	if err != nil {
		return nil, &ConfigurationError{Key: key, Err: err}
	}
	return t, nil
}
