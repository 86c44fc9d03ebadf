// Package mock provides test doubles for the module and loader contracts,
// used by core's own tests and available to downstream module packages.
package mock

import (
	"sync"

	"github.com/gatewaymux/gatewaymux/core"
)

// Module is a test double implementing core.Module and core.Starter. It
// records every message it receives in order.
type Module struct {
	mu       sync.Mutex
	received []*core.Message

	// ReceiveFunc, if set, runs for every Receive call instead of the
	// default record-only behavior.
	ReceiveFunc func(msg *core.Message)
	// StartFunc, if set, runs when Start is called.
	StartFunc func()
	// DestroyFunc, if set, runs when Destroy is called.
	DestroyFunc func()

	destroyed bool
}

// NewModule constructs a Module with no hooks set.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Receive(msg *core.Message) {
	m.mu.Lock()
	m.received = append(m.received, msg)
	m.mu.Unlock()
	if m.ReceiveFunc != nil {
		m.ReceiveFunc(msg)
	}
}

func (m *Module) Destroy() {
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
	if m.DestroyFunc != nil {
		m.DestroyFunc()
	}
}

// Start implements core.Starter. Callers that need a core.Module which
// does not satisfy core.Starter should use NewModuleWithoutStart instead.
func (m *Module) Start() {
	if m.StartFunc != nil {
		m.StartFunc()
	}
}

// Received returns a snapshot of every message received so far, in order.
func (m *Module) Received() []*core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Message, len(m.received))
	copy(out, m.received)
	return out
}

// ReceiveCount returns how many messages this module has received.
func (m *Module) ReceiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

// Destroyed reports whether Destroy has been called.
func (m *Module) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// PlainModule embeds Module's Receive/Destroy without exposing Start, so it
// satisfies core.Module but never core.Starter — for tests asserting the
// no-Start-hook no-op path.
type PlainModule struct {
	receiveDestroy
}

type receiveDestroy interface {
	Receive(msg *core.Message)
	Destroy()
}

// NewModuleWithoutStart returns a core.Module that deliberately does not
// implement core.Starter.
func NewModuleWithoutStart() *PlainModule {
	return &PlainModule{receiveDestroy: NewModule()}
}
