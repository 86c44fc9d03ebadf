package core

import (
	"sort"
	"sync"

	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Broker is the message distribution fabric (§4.1): it owns one delivery
// queue and one delivery worker per attached module, a subscription view
// mapping producer -> sinks (plus a wildcard sink set), and fans a
// published message out to every subscribed sink except the producer
// itself.
type Broker struct {
	mu            sync.RWMutex
	modules       map[string]*moduleQueue
	subscriptions map[string]map[string]struct{} // producer -> sinks
	wildcardSinks map[string]struct{}
	middleware    []Middleware
	closed        bool
}

// moduleQueue is the per-module bookkeeping the broker maintains: a FIFO of
// message references destined for the module, a lock guarding it, a signal
// to wake the worker, and the worker's lifetime state.
type moduleQueue struct {
	name      string
	module    Module
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*Message
	detaching bool
	done      chan struct{}
}

// BrokerOption configures a Broker at construction.
type BrokerOption func(*Broker)

// WithMiddleware installs delivery middleware, applied in the order given
// (first wraps outermost, mirroring the teacher's Use/applyMiddleware).
func WithMiddleware(mws ...Middleware) BrokerOption {
	return func(b *Broker) {
		b.middleware = append(b.middleware, mws...)
	}
}

// NewBroker constructs an empty Broker. A panic raised by a module's
// Receive is always contained by the delivery worker, which logs it and
// goes on with the next message. core/middleware.Recovery(), installed via
// WithMiddleware, additionally logs the stack trace; NewBroker itself
// installs no middleware.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		modules:       make(map[string]*moduleQueue),
		subscriptions: make(map[string]map[string]struct{}),
		wildcardSinks: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach registers module under name, allocates its queue and spawns its
// delivery worker. Double-attach of the same name is an error.
func (b *Broker) Attach(name string, module Module) error {
	if name == "" {
		return ErrEmptyName
	}
	if module == nil {
		return ErrNilModule
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	if _, exists := b.modules[name]; exists {
		b.mu.Unlock()
		return ErrAlreadyAttached
	}
	mq := &moduleQueue{
		name:   name,
		module: module,
		done:   make(chan struct{}),
	}
	mq.cond = sync.NewCond(&mq.mu)
	b.modules[name] = mq
	b.mu.Unlock()

	go b.deliveryWorker(mq)
	return nil
}

// Detach marks module as detaching, wakes and joins its worker, then
// releases the queue — draining any references still outstanding — and its
// internal state. Detaching an unknown module returns ErrNotAttached.
func (b *Broker) Detach(name string) error {
	b.mu.Lock()
	mq, exists := b.modules[name]
	if !exists {
		b.mu.Unlock()
		return ErrNotAttached
	}
	delete(b.modules, name)
	delete(b.subscriptions, name)
	for _, sinks := range b.subscriptions {
		delete(sinks, name)
	}
	delete(b.wildcardSinks, name)
	b.mu.Unlock()

	mq.mu.Lock()
	mq.detaching = true
	mq.cond.Broadcast()
	mq.mu.Unlock()

	<-mq.done

	mq.mu.Lock()
	for _, msg := range mq.queue {
		msg.Destroy()
	}
	mq.queue = nil
	mq.mu.Unlock()

	return nil
}

// deliveryWorker is the per-module loop described in §4.1: wait for work or
// a detach signal, dequeue one message at a time, invoke Receive outside
// the lock (containing any panic it raises), release the reference.
func (b *Broker) deliveryWorker(mq *moduleQueue) {
	defer close(mq.done)

	rf := applyMiddleware(func(moduleName string, msg *Message) {
		mq.module.Receive(msg)
	}, b.middleware)

	for {
		mq.mu.Lock()
		for len(mq.queue) == 0 && !mq.detaching {
			mq.cond.Wait()
		}
		if mq.detaching {
			mq.mu.Unlock()
			return
		}
		msg := mq.queue[0]
		mq.queue = mq.queue[1:]
		mq.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Logger.Error().Str("module", mq.name).Interface("panic", r).Msg("broker: recovered panic in Receive")
				}
			}()
			rf(mq.name, msg)
		}()
		msg.Destroy()
	}
}

// AddSubscription records that sink receives everything published by
// source. Repeating an existing (source, sink) pair is a no-op.
func (b *Broker) AddSubscription(source, sink string) error {
	if source == "" || sink == "" {
		return ErrEmptyName
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sinks, ok := b.subscriptions[source]
	if !ok {
		sinks = make(map[string]struct{})
		b.subscriptions[source] = sinks
	}
	sinks[sink] = struct{}{}
	return nil
}

// AddWildcardSubscription records that sink receives everything published
// by any producer (except itself, enforced at Publish time).
func (b *Broker) AddWildcardSubscription(sink string) error {
	if sink == "" {
		return ErrEmptyName
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcardSinks[sink] = struct{}{}
	return nil
}

// RemoveSubscription is the inverse of AddSubscription. Removing a
// non-existent subscription is a silent success.
func (b *Broker) RemoveSubscription(source, sink string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sinks, ok := b.subscriptions[source]; ok {
		delete(sinks, sink)
		if len(sinks) == 0 {
			delete(b.subscriptions, source)
		}
	}
	return nil
}

// RemoveWildcardSubscription is the inverse of AddWildcardSubscription.
func (b *Broker) RemoveWildcardSubscription(sink string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.wildcardSinks, sink)
	return nil
}

// Publish resolves the destination set for producer — union(explicit
// sinks of producer, wildcard sinks) minus producer itself, deduplicated —
// and enqueues one reference of msg on each destination's queue. Publish
// does not consume the caller's own reference to msg; the caller releases
// it (via Destroy) once done publishing, independent of delivery.
func (b *Broker) Publish(producer string, msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBrokerClosed
	}

	dest := make(map[string]struct{})
	for sink := range b.subscriptions[producer] {
		dest[sink] = struct{}{}
	}
	for sink := range b.wildcardSinks {
		dest[sink] = struct{}{}
	}
	delete(dest, producer) // I3: never deliver to the producer itself

	names := make([]string, 0, len(dest))
	for name := range dest {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic per-sink queue lock ordering (§5)

	mqs := make([]*moduleQueue, 0, len(names))
	for _, name := range names {
		if mq, ok := b.modules[name]; ok {
			mqs = append(mqs, mq)
		}
	}
	b.mu.RUnlock()

	for _, mq := range mqs {
		clone := msg.Clone()
		mq.mu.Lock()
		if mq.detaching {
			mq.mu.Unlock()
			clone.Destroy()
			continue
		}
		mq.queue = append(mq.queue, clone)
		mq.mu.Unlock()
		mq.cond.Signal()
	}

	return nil
}

// Close detaches every attached module and refuses further Publish calls
// (I5). Called once, by Gateway.Destroy tearing down the broker.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	names := make([]string, 0, len(b.modules))
	for name := range b.modules {
		names = append(names, name)
	}
	b.mu.Unlock()

	for _, name := range names {
		if err := b.Detach(name); err != nil {
			log.Logger.Error().Err(err).Str("module", name).Msg("broker close: detach failed")
		}
	}
	return nil
}

// AttachedNames returns the names currently attached, for GetModuleList.
func (b *Broker) AttachedNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.modules))
	for name := range b.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
