package completeness

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// CheckKind selects the structural check applied to a language.
type CheckKind string

const (
	CheckGo       CheckKind = "go"
	CheckJSON     CheckKind = "json"
	CheckPython   CheckKind = "python"
	CheckBrackets CheckKind = "brackets"
	CheckNone     CheckKind = "none"
)

// Language describes one registered language.
type Language struct {
	Name       string    `yaml:"name"`
	Extensions []string  `yaml:"extensions"`
	Check      CheckKind `yaml:"check"`
}

type languageFile struct {
	Languages []Language `yaml:"languages"`
}

// Registry maps file extensions to language definitions, loaded from the
// embedded YAML at construction. Read-only after NewRegistry returns.
type Registry struct {
	byExt map[string]*Language
}

// NewRegistry loads the embedded language registry
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/languages.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read language registry: %w", err)
	}

	var file languageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal language registry: %w", err)
	}

	r := &Registry{byExt: make(map[string]*Language)}
	for i := range file.Languages {
		lang := &file.Languages[i]
		for _, ext := range lang.Extensions {
			r.byExt[strings.ToLower(ext)] = lang
		}
	}

	return r, nil
}

// Lookup resolves a filename to its language by extension. Unknown extensions
// resolve to an unchecked "unknown" language rather than an error.
func (r *Registry) Lookup(filename string) *Language {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := r.byExt[ext]; ok {
		return lang
	}
	return &Language{Name: "unknown", Check: CheckNone}
}
