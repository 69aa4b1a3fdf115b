package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"sync"
	"text/template"
	"time"

	"pianosheets/internal/catalog"
)

//go:embed *.tmpl
var templateFiles embed.FS

// Template names
const (
	FavoritesModule = "data.js"
	Readme          = "README.md"
)

// FavoritesModuleData feeds the legacy favorites module
type FavoritesModuleData struct {
	IDs         []string
	GeneratedAt time.Time
}

// ReadmeData feeds the repository README summary
type ReadmeData struct {
	TotalSongs      int
	TotalArtists    int
	TotalCategories int
	Difficulties    []catalog.NameCount
	Artists         []catalog.NameCount
	CatalogPath     string
	Repository      string
	GeneratedAt     time.Time
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// TemplateManager manages text templates
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager creates a new template manager
func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]*template.Template),
	}
}

// LoadTemplate loads a template by name, caching it for future use
func (tm *TemplateManager) LoadTemplate(name string) (*template.Template, error) {
	tm.mutex.RLock()
	tmpl, exists := tm.templates[name]
	tm.mutex.RUnlock()

	if exists {
		return tmpl, nil
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tmpl, exists := tm.templates[name]; exists {
		return tmpl, nil
	}

	content, err := templateFiles.ReadFile(name + ".tmpl")
	if err != nil {
		return nil, err
	}

	tmpl, err = template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, err
	}

	tm.templates[name] = tmpl
	return tmpl, nil
}

// Render executes the named template with data
func (tm *TemplateManager) Render(name string, data any) ([]byte, error) {
	tmpl, err := tm.LoadTemplate(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var globalTemplateManager = NewTemplateManager()

// Render is a convenience function to render templates from the global manager
func Render(name string, data any) ([]byte, error) {
	return globalTemplateManager.Render(name, data)
}
