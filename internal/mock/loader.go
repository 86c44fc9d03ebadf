package mock

import (
	"encoding/json"

	"github.com/gatewaymux/gatewaymux/core"
)

// Loader is a test double implementing core.Loader. Factory and
// configuration construction are fixed at construction time; LoadErr,
// UnloadErr and BuildErr let tests force failure at each step.
type Loader struct {
	LoaderName string
	Factory    core.Factory

	LoadErr  error
	UnloadErr error
	BuildErr error

	Unloaded []any
}

// NewLoader constructs a Loader that always resolves to factory.
func NewLoader(name string, factory core.Factory) *Loader {
	return &Loader{LoaderName: name, Factory: factory}
}

func (l *Loader) Name() string { return l.LoaderName }

func (l *Loader) Load(entrypoint json.RawMessage) (any, core.Factory, error) {
	if l.LoadErr != nil {
		return nil, nil, l.LoadErr
	}
	return entrypoint, l.Factory, nil
}

func (l *Loader) Unload(handle any) error {
	l.Unloaded = append(l.Unloaded, handle)
	return l.UnloadErr
}

func (l *Loader) BuildModuleConfiguration(entrypoint, moduleConfig json.RawMessage) (any, error) {
	if l.BuildErr != nil {
		return nil, l.BuildErr
	}
	return moduleConfig, nil
}

// Factory is a test double implementing core.Factory, producing Module
// instances (or a fixed instance, or a forced error) from CreateFunc.
type Factory struct {
	Version    int
	CreateFunc func(b *core.Broker, config any) (core.Module, error)
}

// NewFactory constructs a Factory that always returns instance.
func NewFactory(instance core.Module) *Factory {
	return &Factory{
		CreateFunc: func(*core.Broker, any) (core.Module, error) {
			return instance, nil
		},
	}
}

func (f *Factory) APIVersion() int { return f.Version }

func (f *Factory) Create(b *core.Broker, config any) (core.Module, error) {
	return f.CreateFunc(b, config)
}

// Resolver is a test double implementing core.LoaderResolver over a fixed
// name->Loader map.
type Resolver struct {
	Loaders map[string]core.Loader
}

// NewResolver constructs a Resolver from the given loaders, keyed by name.
func NewResolver(loaders ...core.Loader) *Resolver {
	m := make(map[string]core.Loader, len(loaders))
	for _, l := range loaders {
		m[l.Name()] = l
	}
	return &Resolver{Loaders: m}
}

func (r *Resolver) Resolve(loaderName string) (core.Loader, error) {
	l, ok := r.Loaders[loaderName]
	if !ok {
		return nil, core.NewError(core.InvalidArgument, "unknown loader: "+loaderName)
	}
	return l, nil
}
