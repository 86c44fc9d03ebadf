// Package inprocess implements the one core.Loader this module ships with:
// modules compiled directly into the binary, registered by name ahead of
// time. Dynamic library loading (the source's module_loader.h contract) is
// explicitly out of scope (§1); this loader is the statically-linked
// equivalent an embedder reaches for instead.
package inprocess

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gatewaymux/gatewaymux/core"
)

// Loader resolves the module type named by the entrypoint payload to a
// factory registered via Register (there is nothing to load: the factory
// is already linked into the binary).
type Loader struct {
	mu        sync.RWMutex
	factories map[string]core.Factory
}

// New constructs an empty in-process loader.
func New() *Loader {
	return &Loader{factories: make(map[string]core.Factory)}
}

// Register associates moduleType with factory. AddModuleRequest.Entrypoint
// must be the JSON string `"<moduleType>"` (or an object {"type": "..."})
// for this loader to resolve it; see Load.
func (l *Loader) Register(moduleType string, factory core.Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[moduleType] = factory
}

func (l *Loader) Name() string { return "inprocess" }

type entrypoint struct {
	Type string `json:"type"`
}

// Load resolves entrypoint (a JSON object {"type": "..."} or a bare JSON
// string) to a registered factory. The "handle" it returns is the module
// type name, used by Unload only for symmetry — there is no resource to
// release.
func (l *Loader) Load(ep json.RawMessage) (any, core.Factory, error) {
	moduleType, err := parseEntrypoint(ep)
	if err != nil {
		return nil, nil, err
	}

	l.mu.RLock()
	factory, ok := l.factories[moduleType]
	l.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("gatewaymux: inprocess loader: unregistered module type %q", moduleType)
	}
	return moduleType, factory, nil
}

// Unload is a no-op: in-process factories own no loader-level resource.
func (l *Loader) Unload(handle any) error { return nil }

// BuildModuleConfiguration passes moduleConfig through unchanged as raw
// JSON; module factories decode it themselves in Create.
func (l *Loader) BuildModuleConfiguration(entrypoint, moduleConfig json.RawMessage) (any, error) {
	return moduleConfig, nil
}

func parseEntrypoint(ep json.RawMessage) (string, error) {
	if len(ep) == 0 {
		return "", fmt.Errorf("gatewaymux: inprocess loader: empty entrypoint")
	}

	var asString string
	if err := json.Unmarshal(ep, &asString); err == nil {
		return asString, nil
	}

	var asObject entrypoint
	if err := json.Unmarshal(ep, &asObject); err == nil && asObject.Type != "" {
		return asObject.Type, nil
	}

	return "", fmt.Errorf("gatewaymux: inprocess loader: invalid entrypoint %q", string(ep))
}
