package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gatewaymux/gatewaymux/internal/log"
)

// DefaultAPIVersion is the module API version this gateway supports.
// AddModule rejects a module factory whose APIVersion exceeds it (§6.1).
const DefaultAPIVersion = 1

type moduleEntry struct {
	name         string
	instance     Module
	loader       Loader
	loaderHandle any
	started      bool
}

type link struct {
	source string
	sink   string
}

func (l link) fromAnySource() bool { return l.source == "*" }

// Gateway is the module/link registry and lifecycle supervisor (§4.2/C5).
// All mutator methods serialize against one another through a single
// controller lock; none of them block broker delivery (§5).
type Gateway struct {
	id         uuid.UUID
	apiVersion int

	broker *Broker
	events *EventSystem

	mu      sync.Mutex
	modules map[string]*moduleEntry
	links   []link
}

// GatewayOption configures a Gateway at construction.
type GatewayOption func(*Gateway)

// WithAPIVersion overrides the supported module API version.
func WithAPIVersion(v int) GatewayOption {
	return func(g *Gateway) { g.apiVersion = v }
}

// WithBrokerOptions installs Broker options (e.g. WithMiddleware) on the
// Broker this Gateway constructs for itself.
func WithBrokerOptions(opts ...BrokerOption) GatewayOption {
	return func(g *Gateway) { g.broker = NewBroker(opts...) }
}

// Create constructs a Gateway, initializing its broker and event system. If
// cfg is non-nil, every described module is added, then every described
// link; any failure tears down the partial graph and returns the error.
// On success, GatewayCreated is reported.
func Create(resolver LoaderResolver, cfg *GatewayConfig, opts ...GatewayOption) (*Gateway, error) {
	g := &Gateway{
		id:         uuid.New(),
		apiVersion: DefaultAPIVersion,
		broker:     NewBroker(),
		events:     Init(),
		modules:    make(map[string]*moduleEntry),
	}
	for _, opt := range opts {
		opt(g)
	}

	if cfg != nil {
		if resolver == nil {
			g.Destroy()
			return nil, NewError(InvalidArgument, "loader resolver is required when config is provided")
		}
		for _, m := range cfg.Modules {
			loader, err := resolver.Resolve(m.LoaderName)
			if err != nil {
				g.Destroy()
				return nil, WrapError(LoaderFailure, fmt.Sprintf("resolve loader %q", m.LoaderName), err)
			}
			if _, err := g.AddModule(AddModuleRequest{
				Name:       m.Name,
				Loader:     loader,
				Entrypoint: m.Entrypoint,
				Config:     m.Config,
			}); err != nil {
				g.Destroy()
				return nil, err
			}
		}
		for _, l := range cfg.Links {
			if err := g.AddLink(LinkRequest{Source: l.Source, Sink: l.Sink}); err != nil {
				g.Destroy()
				return nil, err
			}
		}
	}

	g.events.Report(g, GatewayCreated, nil, nil)
	return g, nil
}

// ID returns this gateway instance's identity, used for log correlation.
func (g *Gateway) ID() uuid.UUID { return g.id }

// Broker returns the broker this gateway drives. Exposed so bridge modules
// and tests can publish/inspect without a second indirection.
func (g *Gateway) Broker() *Broker { return g.broker }

// Events returns the event system, so callers can AddCallback against it.
func (g *Gateway) Events() *EventSystem { return g.events }

// Start invokes the Start hook (if any) of every registered module not yet
// started, then reports GatewayStarted. Start is idempotent: a module is
// marked started the first time Start (or StartModule) runs it, and a
// later Start call does not re-invoke it. Modules added after Start do not
// automatically start; call StartModule or Start again to pick them up.
func (g *Gateway) Start() error {
	g.mu.Lock()
	names := g.sortedModuleNamesLocked()
	var starters []Starter
	for _, name := range names {
		entry := g.modules[name]
		if entry.started {
			continue
		}
		if starter, ok := entry.instance.(Starter); ok {
			starters = append(starters, starter)
		}
		entry.started = true
	}
	g.mu.Unlock()

	for _, s := range starters {
		s.Start()
	}

	g.events.Report(g, GatewayStarted, nil, nil)
	return nil
}

// StartModule invokes handle's Start hook, if it declares one, regardless
// of whether it has already been started by a prior Start/StartModule
// call. If handle is unknown, or declares no Start hook, this is a
// logged no-op.
func (g *Gateway) StartModule(handle *ModuleHandle) error {
	if handle == nil {
		return ErrEmptyName
	}
	g.mu.Lock()
	entry, ok := g.modules[handle.name]
	if !ok {
		g.mu.Unlock()
		log.Logger.Warn().Str("module", handle.name).Msg("gateway: StartModule on unknown module")
		return nil
	}
	starter, hasStart := entry.instance.(Starter)
	entry.started = true
	g.mu.Unlock()

	if !hasStart {
		log.Logger.Debug().Str("module", handle.name).Msg("gateway: module declares no Start hook")
		return nil
	}
	starter.Start()
	return nil
}

// AddModule loads, constructs, registers and attaches a module (§4.2).
// Any step failure unwinds the preceding steps in reverse.
func (g *Gateway) AddModule(req AddModuleRequest) (*ModuleHandle, error) {
	if req.Name == "" {
		return nil, ErrEmptyName
	}
	if req.Loader == nil {
		return nil, NewError(InvalidArgument, "loader is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.modules[req.Name]; exists {
		return nil, ErrDuplicateModule
	}

	handle, factory, err := req.Loader.Load(req.Entrypoint)
	if err != nil {
		return nil, WrapError(LoaderFailure, "load module", err)
	}
	if factory == nil {
		_ = req.Loader.Unload(handle)
		return nil, NewError(LoaderFailure, fmt.Sprintf("module %q loader returned a nil factory", req.Name))
	}

	if factory.APIVersion() > g.apiVersion {
		_ = req.Loader.Unload(handle)
		return nil, NewError(LoaderFailure, fmt.Sprintf(
			"module %q factory API version %d exceeds supported version %d",
			req.Name, factory.APIVersion(), g.apiVersion))
	}

	builtCfg, err := req.Loader.BuildModuleConfiguration(req.Entrypoint, req.Config)
	if err != nil {
		_ = req.Loader.Unload(handle)
		return nil, WrapError(LoaderFailure, "build module configuration", err)
	}

	instance, err := factory.Create(g.broker, builtCfg)
	if err != nil {
		_ = req.Loader.Unload(handle)
		return nil, WrapError(LoaderFailure, "create module instance", err)
	}
	if instance == nil {
		_ = req.Loader.Unload(handle)
		return nil, NewError(LoaderFailure, fmt.Sprintf("module %q factory returned a nil instance", req.Name))
	}

	if err := g.broker.Attach(req.Name, instance); err != nil {
		instance.Destroy()
		_ = req.Loader.Unload(handle)
		return nil, WrapError(LifecycleViolation, "attach module to broker", err)
	}

	if named, ok := instance.(Named); ok {
		named.SetName(req.Name)
	}

	g.modules[req.Name] = &moduleEntry{
		name:         req.Name,
		instance:     instance,
		loader:       req.Loader,
		loaderHandle: handle,
	}

	g.reportModuleListChangedLocked()
	return &ModuleHandle{name: req.Name}, nil
}

// RemoveModule cascades link removal, detaches from the broker, destroys
// the instance, and unloads it from its loader.
func (g *Gateway) RemoveModule(handle *ModuleHandle) error {
	if handle == nil {
		return ErrEmptyName
	}

	g.mu.Lock()
	entry, ok := g.modules[handle.name]
	if !ok {
		g.mu.Unlock()
		return ErrModuleNotFound
	}

	kept := g.links[:0:0]
	for _, l := range g.links {
		if l.source == handle.name || l.sink == handle.name {
			if l.fromAnySource() {
				_ = g.broker.RemoveWildcardSubscription(l.sink)
			} else {
				_ = g.broker.RemoveSubscription(l.source, l.sink)
			}
			continue
		}
		kept = append(kept, l)
	}
	g.links = kept
	delete(g.modules, handle.name)
	g.mu.Unlock()

	_ = g.broker.Detach(handle.name)
	entry.instance.Destroy()
	if err := entry.loader.Unload(entry.loaderHandle); err != nil {
		log.Logger.Error().Err(err).Str("module", handle.name).Msg("gateway: loader unload failed")
	}

	g.reportModuleListChanged()
	return nil
}

// AddLink adds a directed subscription to both the controller's link table
// and the broker's subscription view. Duplicate links are rejected.
func (g *Gateway) AddLink(req LinkRequest) error {
	if req.Sink == "" || req.Source == "" {
		return ErrEmptyName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, l := range g.links {
		if l.source == req.Source && l.sink == req.Sink {
			return ErrDuplicateLink
		}
	}

	wildcard := req.Source == "*"
	if !wildcard {
		if _, ok := g.modules[req.Source]; !ok {
			return NewError(InvalidArgument, fmt.Sprintf("link source %q is not registered", req.Source))
		}
	}
	if _, ok := g.modules[req.Sink]; !ok {
		return NewError(InvalidArgument, fmt.Sprintf("link sink %q is not registered", req.Sink))
	}

	g.links = append(g.links, link{source: req.Source, sink: req.Sink})
	if wildcard {
		_ = g.broker.AddWildcardSubscription(req.Sink)
	} else {
		_ = g.broker.AddSubscription(req.Source, req.Sink)
	}

	g.reportModuleListChangedLocked()
	return nil
}

// RemoveLink is an exact-match removal from the link table and the broker
// view. Removing a non-existent link is a silent success (P10).
func (g *Gateway) RemoveLink(req LinkRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, l := range g.links {
		if l.source == req.Source && l.sink == req.Sink {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	g.links = append(g.links[:idx], g.links[idx+1:]...)

	if req.Source == "*" {
		_ = g.broker.RemoveWildcardSubscription(req.Sink)
	} else {
		_ = g.broker.RemoveSubscription(req.Source, req.Sink)
	}
	return nil
}

// GetModuleList produces a defensive copy of the registry: for each
// registered module, its name and explicit sources (nil denotes a
// wildcard sink). The caller releases it via DestroyModuleList.
func (g *Gateway) GetModuleList() *ModuleSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildSnapshotLocked()
}

func (g *Gateway) buildSnapshotLocked() *ModuleSnapshot {
	names := g.sortedModuleNamesLocked()
	infos := make([]ModuleInfo, 0, len(names))
	for _, name := range names {
		sources := []string{}
		wildcard := false
		for _, l := range g.links {
			if l.sink != name {
				continue
			}
			if l.fromAnySource() {
				wildcard = true
				continue
			}
			sources = append(sources, l.source)
		}
		if wildcard {
			infos = append(infos, ModuleInfo{Name: name, Sources: nil})
			continue
		}
		sort.Strings(sources)
		infos = append(infos, ModuleInfo{Name: name, Sources: sources})
	}
	return &ModuleSnapshot{Modules: infos}
}

func (g *Gateway) sortedModuleNamesLocked() []string {
	names := make([]string, 0, len(g.modules))
	for name := range g.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reportModuleListChangedLocked builds the snapshot while g.mu is already
// held (AddModule/AddLink call sites) and reports it, attaching the
// synthetic cleanup that releases the snapshot once every real observer
// has run (§4.3).
func (g *Gateway) reportModuleListChangedLocked() {
	snapshot := g.buildSnapshotLocked()
	g.events.Report(g, ModuleListChanged, snapshot, func(ctx any) {
		if s, ok := ctx.(*ModuleSnapshot); ok {
			DestroyModuleList(s)
		}
	})
}

func (g *Gateway) reportModuleListChanged() {
	g.mu.Lock()
	snapshot := g.buildSnapshotLocked()
	g.mu.Unlock()
	g.events.Report(g, ModuleListChanged, snapshot, func(ctx any) {
		if s, ok := ctx.(*ModuleSnapshot); ok {
			DestroyModuleList(s)
		}
	})
}

// Destroy reports GatewayDestroyed, removes every link, destroys every
// module, tears down the broker and event system. Module destruction
// order is insertion-unspecified to callers but deterministic (sorted by
// name) for reproducible tests and logs.
func (g *Gateway) Destroy() {
	g.events.Report(g, GatewayDestroyed, nil, nil)

	g.mu.Lock()
	for _, l := range g.links {
		if l.fromAnySource() {
			_ = g.broker.RemoveWildcardSubscription(l.sink)
		} else {
			_ = g.broker.RemoveSubscription(l.source, l.sink)
		}
	}
	g.links = nil

	names := g.sortedModuleNamesLocked()
	entries := make([]*moduleEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, g.modules[name])
	}
	g.modules = make(map[string]*moduleEntry)
	g.mu.Unlock()

	for _, entry := range entries {
		_ = g.broker.Detach(entry.name)
		entry.instance.Destroy()
		if err := entry.loader.Unload(entry.loaderHandle); err != nil {
			log.Logger.Error().Err(err).Str("module", entry.name).Msg("gateway: loader unload failed during destroy")
		}
	}

	_ = g.broker.Close()
	g.events.Destroy()
}
