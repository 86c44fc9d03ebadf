package core

import "encoding/json"

// ModuleSpec is one "modules" entry the external configuration parser
// delivers to Create (§6.4): a unique name, the loader that should load it,
// and the two opaque payloads (loader entrypoint, module configuration)
// the loader combines at AddModule time. The core never interprets
// Entrypoint or Config; it passes them through to Loader.Load and
// Loader.BuildModuleConfiguration verbatim.
type ModuleSpec struct {
	Name       string
	LoaderName string
	Entrypoint json.RawMessage
	Config     json.RawMessage
}

// LinkSpec is one "links" entry (§6.4): (source name, sink name), with "*"
// permitted as Source.
type LinkSpec struct {
	Source string
	Sink   string
}

// GatewayConfig is the configuration shape consumed from the external
// parser (§6.4). No other configuration is interpreted by the core; JSON
// decoding of a config *file* happens one layer up (see package config),
// never inside this package.
type GatewayConfig struct {
	Modules []ModuleSpec
	Links   []LinkSpec
}

// LoaderResolver resolves a loader name to a registered Loader. The
// process-wide loader registry (§6.2, package loaders) implements this;
// Gateway.Create takes it as a parameter instead of importing the registry
// directly, keeping the core ignorant of how loaders are discovered.
type LoaderResolver interface {
	Resolve(loaderName string) (Loader, error)
}
