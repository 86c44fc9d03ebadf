// Package loaders is the process-wide loader registry (§6.2, §9 "Global
// loader registry"): a name -> core.Loader map that callers populate via
// Register before creating a gateway, and that core.Gateway.Create
// consumes through the core.LoaderResolver interface so core never imports
// this package directly.
package loaders

import (
	"fmt"
	"sync"

	"github.com/gatewaymux/gatewaymux/core"
)

var (
	mu      sync.RWMutex
	loaders = make(map[string]core.Loader)
)

// Register adds a named loader to the process-wide registry (cmd/gatewayd
// registers its inprocess loader this way at startup). Re-registering an
// existing name overwrites it, mirroring the teacher's broker.Register
// semantics.
func Register(loader core.Loader) {
	mu.Lock()
	defer mu.Unlock()
	loaders[loader.Name()] = loader
}

// Get returns a directly-registered loader by name, for callers that don't
// need the core.LoaderResolver indirection.
func Get(name string) (core.Loader, bool) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := loaders[name]
	return l, ok
}

// Registry is a core.LoaderResolver backed by this package's process-wide
// map, so Gateway.Create can resolve loader names without core importing
// loaders.
type Registry struct{}

// Default is the Registry consulting the process-wide registration map.
var Default = Registry{}

// Resolve implements core.LoaderResolver.
func (Registry) Resolve(loaderName string) (core.Loader, error) {
	l, ok := Get(loaderName)
	if !ok {
		return nil, fmt.Errorf("gatewaymux: unknown loader %q", loaderName)
	}
	return l, nil
}
