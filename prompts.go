package extract

import (
	"embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tyler-sommer/stick"
)

//go:embed prompts/*.twig
var defaultTemplates embed.FS

// PromptProvider renders the prompt for one extraction kind over one chunk of
// document text, and reports the version of each template so runs are
// reproducible.
type PromptProvider interface {
	Render(kind ExtractionKind, document string) (string, error)
	Versions() map[ExtractionKind]string
}

// StickPrompts renders Twig templates through the stick engine. Templates see
// the variables document, kind, and version.
type StickPrompts struct {
	env       *stick.Env
	templates map[ExtractionKind]string
	versions  map[ExtractionKind]string
	vars      map[string]stick.Value
}

// DefaultPrompts returns the built-in templates for all four extraction
// kinds, each at version 1.0.
func DefaultPrompts() *StickPrompts {
	p := newStickPrompts()
	for _, kind := range Kinds() {
		body, err := defaultTemplates.ReadFile("prompts/" + string(kind) + ".twig")
		if err != nil {
			panic(fmt.Sprintf("embedded template for %s missing: %v", kind, err))
		}
		p.templates[kind] = string(body)
		p.versions[kind] = "1.0"
	}
	return p
}

// NewPrompts builds a provider from caller-supplied templates and versions.
func NewPrompts(templates, versions map[ExtractionKind]string) *StickPrompts {
	p := newStickPrompts()
	for k, v := range templates {
		p.templates[k] = v
	}
	for k, v := range versions {
		p.versions[k] = v
	}
	return p
}

func newStickPrompts() *StickPrompts {
	return &StickPrompts{
		env:       stick.New(nil),
		templates: make(map[ExtractionKind]string),
		versions:  make(map[ExtractionKind]string),
		vars:      make(map[string]stick.Value),
	}
}

// SetVar adds a variable available to every template.
func (p *StickPrompts) SetVar(key string, value any) { p.vars[key] = value }

// Render executes the template for kind with the chunk text bound to
// {{ document }}.
func (p *StickPrompts) Render(kind ExtractionKind, document string) (string, error) {
	tpl, ok := p.templates[kind]
	if !ok {
		return "", fmt.Errorf("no prompt template for kind %q", kind)
	}
	ctx := map[string]stick.Value{
		"document": document,
		"kind":     string(kind),
		"version":  p.versions[kind],
	}
	for k, v := range p.vars {
		ctx[k] = v
	}
	var out strings.Builder
	if err := p.env.Execute(tpl, &out, ctx); err != nil {
		return "", fmt.Errorf("execute template %q: %w", kind, err)
	}
	return out.String(), nil
}

// Versions returns a copy of the per-kind template version table.
func (p *StickPrompts) Versions() map[ExtractionKind]string {
	out := make(map[ExtractionKind]string, len(p.versions))
	for k, v := range p.versions {
		out[k] = v
	}
	return out
}

// promptSetFile is the YAML shape accepted by LoadPromptSet.
type promptSetFile struct {
	Prompts map[string]struct {
		Version  string `yaml:"version"`
		Template string `yaml:"template"`
	} `yaml:"prompts"`
}

// LoadPromptSet overlays the default templates with a YAML prompt set:
//
//	prompts:
//	  schema:
//	    version: "1.1"
//	    template: |
//	      ...
//
// Kinds absent from the document keep the built-in template.
func LoadPromptSet(data []byte) (*StickPrompts, error) {
	var file promptSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("prompt set: %w", err)
	}
	p := DefaultPrompts()
	for name, def := range file.Prompts {
		kind := ExtractionKind(name)
		if !kind.valid() {
			return nil, fmt.Errorf("prompt set: unknown extraction kind %q", name)
		}
		if strings.TrimSpace(def.Template) == "" {
			return nil, fmt.Errorf("prompt set: empty template for %q", name)
		}
		p.templates[kind] = def.Template
		if def.Version != "" {
			p.versions[kind] = def.Version
		}
	}
	return p, nil
}
