package core

import (
	"sync"
	"time"

	"github.com/gatewaymux/gatewaymux/internal/log"
)

// EventKind enumerates the lifecycle events the gateway reports (§6.5).
type EventKind int

const (
	GatewayCreated EventKind = iota
	GatewayStarted
	GatewayDestroyed
	ModuleListChanged

	eventKindCount
)

func (k EventKind) String() string {
	switch k {
	case GatewayCreated:
		return "GatewayCreated"
	case GatewayStarted:
		return "GatewayStarted"
	case GatewayDestroyed:
		return "GatewayDestroyed"
	case ModuleListChanged:
		return "ModuleListChanged"
	default:
		return "Unknown"
	}
}

// EventCallback is an observer registered against one EventKind. context
// carries event-specific data (a *ModuleSnapshot for ModuleListChanged,
// nil otherwise); userParam is whatever AddCallback was given.
type EventCallback func(gw *Gateway, kind EventKind, context any, userParam any)

type observerClosure struct {
	callback  EventCallback
	userParam any
}

type dispatchRow struct {
	gateway   *Gateway
	kind      EventKind
	callbacks []observerClosure
	context   any
	// cleanup runs once after every real observer above has been invoked
	// (or, on shutdown drain, in place of them) — the synthetic observer
	// the source appends to release a ModuleListChanged snapshot.
	cleanup func(context any)
}

// idleTimeout is the period of the dispatch worker's idle timer, mirroring
// the original gateway's THREAD_EMPTY_QUEUE_TIMEOUT_MS. When it fires the
// worker simply keeps waiting; the worker exits only once Destroy closes
// stopCh.
const idleTimeout = 200 * time.Millisecond

// dispatchQueueCapacity bounds the event system's queueing: once the
// dispatch worker falls this far behind, further reports are dropped and
// the error latch trips rather than letting Report block on a stalled
// worker (§4.3's "bounded queueing semantics").
const dispatchQueueCapacity = 1024

// EventSystem is the single-consumer dispatcher for lifecycle callbacks
// (§4.3/C6). Report never blocks on observer execution; a lazily-started
// worker goroutine drains the dispatch queue until Destroy stops it and
// joins it.
type EventSystem struct {
	mu        sync.Mutex // guards observers + errored, the "internal_change_lock"
	observers [eventKindCount][]observerClosure
	errored   bool

	rowCh  chan *dispatchRow
	stopCh chan struct{}

	workerMu sync.Mutex
	running  bool
	wg       sync.WaitGroup

	destroyOnce sync.Once
}

// Init allocates an EventSystem. No worker thread is spawned until the
// first Report.
func Init() *EventSystem {
	return &EventSystem{
		rowCh:  make(chan *dispatchRow, dispatchQueueCapacity),
		stopCh: make(chan struct{}),
	}
}

// AddCallback appends an observer for kind. Safe to call from any thread at
// any time, including from inside a callback — an observer added during
// dispatch of the current row takes effect starting with the next Report.
func (es *EventSystem) AddCallback(kind EventKind, callback EventCallback, userParam any) {
	if callback == nil {
		log.Logger.Error().Msg("eventsystem: nil callback registration ignored")
		return
	}
	es.mu.Lock()
	es.observers[kind] = append(es.observers[kind], observerClosure{callback: callback, userParam: userParam})
	es.mu.Unlock()
}

// Report snapshots the observer list for kind and, if non-empty, enqueues a
// dispatch row for the worker. context is attached as-is; cleanup (if
// non-nil) runs once after every real observer has been invoked, or
// immediately if there were no observers to begin with — used by
// ModuleListChanged to release its module-list snapshot.
func (es *EventSystem) Report(gw *Gateway, kind EventKind, context any, cleanup func(any)) {
	es.mu.Lock()
	errored := es.errored
	var callbacks []observerClosure
	if !errored {
		callbacks = make([]observerClosure, len(es.observers[kind]))
		copy(callbacks, es.observers[kind])
	}
	es.mu.Unlock()

	if errored {
		log.Logger.Error().Str("event", kind.String()).Msg("eventsystem: errored, dropping report")
		if cleanup != nil {
			cleanup(context)
		}
		return
	}

	if len(callbacks) == 0 {
		if cleanup != nil {
			cleanup(context)
		}
		return
	}

	row := &dispatchRow{gateway: gw, kind: kind, callbacks: callbacks, context: context, cleanup: cleanup}
	es.enqueue(row)
}

func (es *EventSystem) enqueue(row *dispatchRow) {
	es.ensureWorker()

	select {
	case es.rowCh <- row:
	default:
		// Queue full: the worker can't keep up. Latch the error (mirrors
		// VECTOR_push_back failing in the source's EventSystem_ReportEvent)
		// and drop this report rather than block the mutator thread.
		es.mu.Lock()
		es.errored = true
		es.mu.Unlock()
		log.Logger.Error().Str("event", row.kind.String()).Msg("eventsystem: dispatch queue full, latching error")
		if row.cleanup != nil {
			row.cleanup(row.context)
		}
	}
}

func (es *EventSystem) ensureWorker() {
	es.workerMu.Lock()
	defer es.workerMu.Unlock()
	if es.running {
		return
	}
	es.running = true
	es.wg.Add(1)
	go es.workerLoop()
}

func (es *EventSystem) workerLoop() {
	defer func() {
		es.workerMu.Lock()
		es.running = false
		es.workerMu.Unlock()
		es.wg.Done()
	}()

	timer := time.NewTimer(idleTimeout)
	defer timer.Stop()

	for {
		select {
		case row := <-es.rowCh:
			callbacksCall(row)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idleTimeout)
		case <-es.stopCh:
			// Destroy has begun: wake immediately rather than waiting out
			// the idle timeout, mirroring Condition_Post in the source's
			// destroy_event_system.
			return
		case <-timer.C:
			// Idle for idleTimeout with no shutdown requested yet; keep
			// waiting (delay_when_queue_empty stays effectively true until
			// stopCh closes).
			timer.Reset(idleTimeout)
		}
	}
}

func callbacksCall(row *dispatchRow) {
	for _, c := range row.callbacks {
		c.callback(row.gateway, row.kind, row.context, c.userParam)
	}
	if row.cleanup != nil {
		row.cleanup(row.context)
	}
}

// Destroy signals the worker to stop (it returns without waiting for the
// queue to empty), joins it, then drains any rows left in the queue,
// releasing their contexts without invoking their (now-moot) observers.
func (es *EventSystem) Destroy() {
	es.destroyOnce.Do(func() {
		close(es.stopCh)
		es.wg.Wait()

		for {
			select {
			case row := <-es.rowCh:
				if row.cleanup != nil {
					row.cleanup(row.context)
				}
			default:
				return
			}
		}
	})
}
