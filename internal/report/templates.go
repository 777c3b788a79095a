// Package report assembles the HTML report, the statistics CSV and the
// summary text file of a run.
package report

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sync"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ReportTemplate is the name of the main page template.
const ReportTemplate = "report.html.tmpl"

// TemplateProvider abstracts template loading and execution.
// Production uses EmbeddedTemplateProvider; tests use MockTemplateProvider.
type TemplateProvider interface {
	// GetTemplate returns a parsed template by name.
	GetTemplate(name string) (*template.Template, error)
	// ExecuteTemplate executes a template with the given data.
	ExecuteTemplate(w io.Writer, name string, data interface{}) error
}

// EmbeddedTemplateProvider loads templates from an fs.FS, parsing each one
// once with the report's helper functions.
type EmbeddedTemplateProvider struct {
	fs      fs.FS
	baseDir string
	funcs   template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewEmbeddedTemplateProvider creates a provider reading from fsys.
func NewEmbeddedTemplateProvider(fsys fs.FS, baseDir string, funcs template.FuncMap) *EmbeddedTemplateProvider {
	return &EmbeddedTemplateProvider{
		fs:      fsys,
		baseDir: baseDir,
		funcs:   funcs,
		cache:   make(map[string]*template.Template),
	}
}

// DefaultTemplates returns the provider for the templates built into the binary.
func DefaultTemplates() *EmbeddedTemplateProvider {
	return NewEmbeddedTemplateProvider(templateFS, "templates", templateFuncs)
}

// GetTemplate parses and caches a template.
func (p *EmbeddedTemplateProvider) GetTemplate(name string) (*template.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.cache[name]; ok {
		return t, nil
	}

	file := name
	if p.baseDir != "" {
		file = path.Join(p.baseDir, name)
	}

	content, err := fs.ReadFile(p.fs, file)
	if err != nil {
		return nil, err
	}

	t, err := template.New(name).Funcs(p.funcs).Parse(string(content))
	if err != nil {
		return nil, err
	}

	p.cache[name] = t
	return t, nil
}

// ExecuteTemplate loads and executes a template.
func (p *EmbeddedTemplateProvider) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	t, err := p.GetTemplate(name)
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

// MockTemplateProvider provides templates for testing.
type MockTemplateProvider struct {
	Templates    map[string]string
	ExecuteError error
	ExecuteCalls []ExecuteCall
	GetError     error
}

// ExecuteCall records one ExecuteTemplate invocation.
type ExecuteCall struct {
	Name string
	Data interface{}
}

// NewMockTemplateProvider creates a mock provider with predefined templates.
func NewMockTemplateProvider(templates map[string]string) *MockTemplateProvider {
	return &MockTemplateProvider{Templates: templates}
}

// GetTemplate returns a parsed template from the mock templates.
func (m *MockTemplateProvider) GetTemplate(name string) (*template.Template, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}

	content, ok := m.Templates[name]
	if !ok {
		return nil, fs.ErrNotExist
	}

	return template.New(name).Funcs(templateFuncs).Parse(content)
}

// ExecuteTemplate records the call and executes the template.
func (m *MockTemplateProvider) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	m.ExecuteCalls = append(m.ExecuteCalls, ExecuteCall{Name: name, Data: data})

	if m.ExecuteError != nil {
		return m.ExecuteError
	}

	t, err := m.GetTemplate(name)
	if err != nil {
		return err
	}

	return t.Execute(w, data)
}
