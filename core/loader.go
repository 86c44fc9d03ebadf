package core

import "encoding/json"

// Loader is the contract an external module loader exposes (§6.2). The
// gateway core consumes only Load/Unload/BuildModuleConfiguration at
// runtime; the JSON-related calls the source also lists
// (ParseEntrypointFromJson, ParseConfigurationFromJson, and their Free*
// counterparts) belong to the external configuration parser and are
// deliberately not part of this interface — the core never interprets a
// configuration string itself.
//
// Unlike the source's manual-free C ABI, FreeConfiguration/FreeEntrypoint/
// FreeModuleConfiguration have no equivalent here: Go's garbage collector
// owns anything BuildModuleConfiguration or Load returns, so this
// interface only carries the calls with real teardown side effects
// (Unload releasing a loaded library's resources).
type Loader interface {
	// Name is this loader's identity in the process-wide loader registry.
	Name() string

	// Load loads (or otherwise resolves) a module implementation described
	// by entrypoint, returning an opaque handle plus the Factory used to
	// construct instances.
	Load(entrypoint json.RawMessage) (handle any, factory Factory, err error)

	// Unload releases resources associated with handle.
	Unload(handle any) error

	// BuildModuleConfiguration combines the loader entrypoint and the
	// module-specific configuration payload into the final opaque
	// configuration value passed to Factory.Create.
	BuildModuleConfiguration(entrypoint, moduleConfig json.RawMessage) (any, error)
}

// AddModuleRequest carries everything AddModule needs (§4.2): the module's
// registry name, the resolved loader, and the two opaque payloads the
// loader combines into a final configuration.
type AddModuleRequest struct {
	Name       string
	Loader     Loader
	Entrypoint json.RawMessage
	Config     json.RawMessage
}

// ModuleHandle identifies a registered module to later controller calls
// (StartModule, RemoveModule).
type ModuleHandle struct {
	name string
}

// Name returns the module's registry name.
func (h *ModuleHandle) Name() string { return h.name }

// LinkRequest describes a directed edge to add or remove from the link
// table (§4.2). Source may be "*" to denote the wildcard producer.
type LinkRequest struct {
	Source string
	Sink   string
}
