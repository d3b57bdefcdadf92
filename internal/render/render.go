// Package render forwards render requests to the service behind a target
// address.
//
// The registry resolves an identifier to an address and hands the path and
// optional JSON context to a Renderer. The Renderer's raw string output is
// returned to the caller unchanged.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoRenderer is returned when no renderer is configured for an address.
var ErrNoRenderer = errors.New("no renderer for address")

// Params is forwarded to the target's render capability.
type Params struct {
	Path    string          `json:"path"`
	Context json.RawMessage `json:"context,omitempty"`
}

// Renderer renders a path for the service at address.
type Renderer interface {
	Render(ctx context.Context, address string, p Params) (string, error)
}

// Mux dispatches to a per-address Renderer.
type Mux struct {
	routes map[string]Renderer
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{routes: make(map[string]Renderer)}
}

// Handle registers r for address, replacing any previous registration.
func (m *Mux) Handle(address string, r Renderer) {
	m.routes[address] = r
}

// Render implements Renderer.
func (m *Mux) Render(ctx context.Context, address string, p Params) (string, error) {
	r, ok := m.routes[address]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoRenderer, address)
	}
	return r.Render(ctx, address, p)
}

// Len returns the number of registered addresses.
func (m *Mux) Len() int { return len(m.routes) }
