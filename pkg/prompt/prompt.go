// Package prompt renders the named text templates sent to the narrator.
//
// Templates are Go text/template files. The bundled set lives in
// templates/; a directory of *.tmpl files can override any of them by name
// and is reloaded when its files change.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"
)

// Template names the engine renders.
const (
	Exploration = "exploration"
	Combat      = "combat"
	Location    = "location"
)

const ext = ".tmpl"

//go:embed templates/*.tmpl
var bundled embed.FS

// ErrTemplateNotFound is returned when no template has the requested name.
var ErrTemplateNotFound = errors.New("prompt template not found")

// ErrMissingVariable is matched by every *MissingVariableError.
var ErrMissingVariable = errors.New("prompt variable missing")

// MissingVariableError reports a placeholder with no value.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt template %q: missing variable %q", e.Template, e.Variable)
}

func (e *MissingVariableError) Unwrap() error {
	return ErrMissingVariable
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

type entry struct {
	tmpl     *template.Template
	required []string
	source   string
}

// Library holds parsed templates by name. It is safe for concurrent use.
type Library struct {
	mu        sync.RWMutex
	templates map[string]entry
	logger    *slog.Logger
}

// NewLibrary parses the bundled templates.
func NewLibrary(logger *slog.Logger) (*Library, error) {
	l := &Library{
		templates: make(map[string]entry),
		logger:    logger,
	}
	if err := l.loadFS(bundled, "templates", "bundled"); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadDir parses every *.tmpl in dir, replacing templates of the same name.
func (l *Library) LoadDir(dir string) error {
	return l.loadFS(os.DirFS(dir), ".", dir)
}

func (l *Library) loadFS(fsys fs.FS, root, source string) error {
	matches, err := fs.Glob(fsys, path.Join(root, "*"+ext))
	if err != nil {
		return fmt.Errorf("listing templates in %s: %w", source, err)
	}
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", m, err)
		}
		if err := l.Add(strings.TrimSuffix(path.Base(m), ext), string(data), source); err != nil {
			return err
		}
	}
	return nil
}

// Add parses text as template name.
func (l *Library) Add(name, text, source string) error {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("parsing prompt template %q: %w", name, err)
	}

	required := map[string]struct{}{}
	if tmpl.Tree != nil {
		collectFields(tmpl.Tree.Root, required)
	}

	l.mu.Lock()
	l.templates[name] = entry{
		tmpl:     tmpl,
		required: slices.Sorted(maps.Keys(required)),
		source:   source,
	}
	l.mu.Unlock()

	l.logger.Debug("prompt template loaded", "name", name, "source", source)
	return nil
}

// Names lists the loaded template names.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.templates))
}

// Render fills template name with vars.
func (l *Library) Render(name string, vars map[string]any) (string, error) {
	l.mu.RLock()
	e, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	for _, v := range e.required {
		if _, ok := vars[v]; !ok {
			return "", &MissingVariableError{Template: name, Variable: v}
		}
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("rendering prompt template %q: %w", name, err)
	}
	return buf.String(), nil
}

// collectFields records the top-level keys a template reads from dot.
// Bodies of range and with rebind dot, so only their pipelines count.
func collectFields(node parse.Node, out map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectFields(c, out)
		}
	case *parse.ActionNode:
		collectPipe(n.Pipe, out)
	case *parse.IfNode:
		collectPipe(n.Pipe, out)
		collectFields(n.List, out)
		collectFields(n.ElseList, out)
	case *parse.RangeNode:
		collectPipe(n.Pipe, out)
		collectFields(n.ElseList, out)
	case *parse.WithNode:
		collectPipe(n.Pipe, out)
		collectFields(n.ElseList, out)
	case *parse.TemplateNode:
		collectPipe(n.Pipe, out)
	}
}

func collectPipe(pipe *parse.PipeNode, out map[string]struct{}) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.FieldNode:
				out[a.Ident[0]] = struct{}{}
			case *parse.PipeNode:
				collectPipe(a, out)
			}
		}
	}
}
