// Package gatewaymux provides the top-level API for building an in-process
// message gateway: independently developed modules attached to a shared
// broker, wired together by a directed link table instead of by any module
// knowing about its peers. It re-exports the core types so callers can
// write:
//
//	gw, err := gatewaymux.Create(loaders.Default, cfg)
//	if err != nil { ... }
//	if err := gw.Start(); err != nil { ... }
//	defer gw.Destroy()
package gatewaymux

import (
	"github.com/gatewaymux/gatewaymux/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Gateway        = core.Gateway
	GatewayConfig  = core.GatewayConfig
	GatewayOption  = core.GatewayOption
	ModuleSpec     = core.ModuleSpec
	LinkSpec       = core.LinkSpec
	Module         = core.Module
	Starter        = core.Starter
	Named          = core.Named
	Factory        = core.Factory
	Loader         = core.Loader
	LoaderResolver = core.LoaderResolver
	Broker         = core.Broker
	BrokerOption   = core.BrokerOption
	Message        = core.Message
	Properties     = core.Properties
	Middleware     = core.Middleware
	ReceiveFunc    = core.ReceiveFunc
)

// Create builds a Gateway from cfg, resolving each module's loader through
// resolver (see package loaders for the process-wide registry).
func Create(resolver LoaderResolver, cfg *GatewayConfig, opts ...GatewayOption) (*Gateway, error) {
	return core.Create(resolver, cfg, opts...)
}

// WithAPIVersion sets the maximum module factory API version this gateway
// will accept.
func WithAPIVersion(v int) GatewayOption {
	return core.WithAPIVersion(v)
}

// WithBrokerOptions installs Broker options (e.g. WithMiddleware) on the
// broker Create constructs.
func WithBrokerOptions(opts ...BrokerOption) GatewayOption {
	return core.WithBrokerOptions(opts...)
}

// WithMiddleware wraps every module delivery in mws, outermost first.
func WithMiddleware(mws ...Middleware) BrokerOption {
	return core.WithMiddleware(mws...)
}

// NewMessage constructs a reference-counted Message around payload and
// props, ready for Broker.Publish.
func NewMessage(payload []byte, props *Properties) *Message {
	return core.NewMessage(payload, props)
}
