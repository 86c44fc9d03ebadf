package core

// Module is the capability contract every pluggable unit implements (§6.1).
// It replaces the source's C vtable (Create/Destroy/Receive/Start function
// pointers plus an opaque instance) with a single interface value: Receive
// is called by the broker's delivery worker, Destroy releases the instance
// and any subscriptions it owns.
type Module interface {
	// Receive is invoked by this module's delivery worker for every message
	// routed to it. Implementations must not re-enter the broker with
	// destructive calls (Attach/Detach); publishing is permitted.
	Receive(msg *Message)

	// Destroy releases the module instance. Called by RemoveModule or
	// gateway teardown, after the broker has detached the module.
	Destroy()
}

// Starter is an optional capability a Module may implement. A module that
// generates traffic at startup implements Start; the gateway controller
// checks for this interface with a type assertion instead of a boolean
// vtable flag.
type Starter interface {
	Start()
}

// Named is an optional capability a Module may implement to learn its own
// registry name, needed by modules that self-publish (Broker.Publish takes
// the producer's name as an argument) but are otherwise constructed before
// AddModule knows their final registration succeeded. AddModule calls
// SetName once, right after a successful Attach, before returning.
type Named interface {
	SetName(name string)
}

// Factory constructs Module instances for a given configuration, the Go
// analogue of the source's MODULE_API "Create" function pointer plus the
// loader's ParseConfigurationFromJson/BuildModuleConfiguration pipeline
// collapsed into one call: by the time Create is invoked, the loader (or
// the external config parser, out of scope here) has already produced the
// final opaque configuration value.
type Factory interface {
	// APIVersion reports the module API version this factory was built
	// against. The gateway rejects a factory whose version exceeds its own
	// supported version (§6.1 "Versioning").
	APIVersion() int

	// Create constructs the module, retaining broker for later publishing.
	Create(b *Broker, config any) (Module, error)
}

// ReceiveFunc is the low-level delivery callback the broker actually
// invokes for a dequeued message: the module name it was delivered to, plus
// the message itself. Broker-level middleware (recovery, logging, metrics)
// wraps this, not Module.Receive directly, so it runs once per delivery
// regardless of how many modules happen to share a Receive implementation.
type ReceiveFunc func(moduleName string, msg *Message)

// Middleware wraps a ReceiveFunc to add cross-cutting behavior around every
// delivery a broker makes, mirroring the teacher's core.Middleware but
// operating on deliveries instead of topic handlers.
type Middleware func(ReceiveFunc) ReceiveFunc

func applyMiddleware(rf ReceiveFunc, mws []Middleware) ReceiveFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		rf = mws[i](rf)
	}
	return rf
}
