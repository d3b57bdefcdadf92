package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
)

// Static renders from an in-memory page table. Pages are text/template
// sources executed with the decoded request context as data.
type Static struct {
	pages map[string]*template.Template
}

// NewStatic parses pages keyed by path.
func NewStatic(pages map[string]string) (*Static, error) {
	s := &Static{pages: make(map[string]*template.Template, len(pages))}
	for path, src := range pages {
		tmpl, err := template.New(path).Option("missingkey=zero").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse page %q: %w", path, err)
		}
		s.pages[path] = tmpl
	}
	return s, nil
}

// Render implements Renderer.
func (s *Static) Render(_ context.Context, address string, p Params) (string, error) {
	tmpl, ok := s.pages[p.Path]
	if !ok {
		return "", fmt.Errorf("render %s: no page for path %q", address, p.Path)
	}

	var data any
	if len(p.Context) > 0 {
		if err := json.Unmarshal(p.Context, &data); err != nil {
			return "", fmt.Errorf("render %s: decode context: %w", address, err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", address, err)
	}
	return buf.String(), nil
}
