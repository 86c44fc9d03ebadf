package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/core"
)

func TestEventSystem_ReportWithNoObserversRunsCleanup(t *testing.T) {
	es := core.Init()
	defer es.Destroy()

	var cleaned bool
	es.Report(nil, core.GatewayCreated, "ctx", func(any) { cleaned = true })
	assert.True(t, cleaned)
}

func TestEventSystem_ObserverOrderThenCleanup(t *testing.T) {
	es := core.Init()
	defer es.Destroy()

	var mu sync.Mutex
	var order []string
	es.AddCallback(core.GatewayStarted, func(g *core.Gateway, kind core.EventKind, context any, userParam any) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	}, nil)
	es.AddCallback(core.GatewayStarted, func(g *core.Gateway, kind core.EventKind, context any, userParam any) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	}, nil)

	done := make(chan struct{})
	es.Report(nil, core.GatewayStarted, nil, func(any) {
		mu.Lock()
		order = append(order, "cleanup")
		mu.Unlock()
		close(done)
	})
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "cleanup"}, order)
}

func TestEventSystem_CallbackAddedDuringDispatchAppliesNextTime(t *testing.T) {
	es := core.Init()
	defer es.Destroy()

	var mu sync.Mutex
	var calls int
	first := make(chan struct{})
	es.AddCallback(core.ModuleListChanged, func(g *core.Gateway, kind core.EventKind, context any, userParam any) {
		mu.Lock()
		calls++
		mu.Unlock()
		es.AddCallback(core.ModuleListChanged, func(*core.Gateway, core.EventKind, any, any) {
			mu.Lock()
			calls++
			mu.Unlock()
		}, nil)
		close(first)
	}, nil)

	es.Report(nil, core.ModuleListChanged, nil, nil)
	<-first

	done := make(chan struct{})
	es.Report(nil, core.ModuleListChanged, nil, func(any) { close(done) })
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls) // 1 (first report) + 2 (second report: both observers)
}

func TestEventSystem_DestroyDrainsRemainingRows(t *testing.T) {
	es := core.Init()

	es.AddCallback(core.ModuleListChanged, func(*core.Gateway, core.EventKind, any, any) {}, nil)

	var mu sync.Mutex
	var cleaned int
	for i := 0; i < 5; i++ {
		es.Report(nil, core.ModuleListChanged, i, func(any) {
			mu.Lock()
			cleaned++
			mu.Unlock()
		})
	}
	es.Destroy()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, cleaned)
}

func TestEventSystem_NilCallbackIgnored(t *testing.T) {
	es := core.Init()
	defer es.Destroy()
	require.NotPanics(t, func() {
		es.AddCallback(core.GatewayCreated, nil, nil)
	})
}
