package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk renderer table.
//
//	renderers:
//	  juno1...:
//	    endpoint: http://localhost:8080/render
//	  juno1...:
//	    pages:
//	      /: "<h1>{{.title}}</h1>"
type File struct {
	Renderers map[string]Target `yaml:"renderers"`
}

// Target configures the renderer for one address. Exactly one of Endpoint
// and Pages must be set.
type Target struct {
	Endpoint string            `yaml:"endpoint,omitempty"`
	Pages    map[string]string `yaml:"pages,omitempty"`
}

// LoadFile reads a renderer table from path.
func LoadFile(path string, client *http.Client) (*Mux, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read renderers: %w", err)
	}
	return Parse(data, client)
}

// Parse builds a Mux from YAML. Unknown fields are rejected.
func Parse(data []byte, client *http.Client) (*Mux, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse renderers: %w", err)
	}

	mux := NewMux()
	for addr, t := range f.Renderers {
		switch {
		case t.Endpoint != "" && len(t.Pages) > 0:
			return nil, fmt.Errorf("renderer %s: endpoint and pages are mutually exclusive", addr)
		case t.Endpoint != "":
			mux.Handle(addr, NewHTTP(t.Endpoint, client))
		case len(t.Pages) > 0:
			s, err := NewStatic(t.Pages)
			if err != nil {
				return nil, fmt.Errorf("renderer %s: %w", addr, err)
			}
			mux.Handle(addr, s)
		default:
			return nil, fmt.Errorf("renderer %s: endpoint or pages required", addr)
		}
	}
	return mux, nil
}
