package core_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/mock"
)

func addModule(t *testing.T, gw *core.Gateway, resolver *mock.Resolver, name string, m *mock.Module) *core.ModuleHandle {
	t.Helper()
	loader := mock.NewLoader(name+"-loader", mock.NewFactory(m))
	resolver.Loaders[loader.Name()] = loader
	h, err := gw.AddModule(core.AddModuleRequest{Name: name, Loader: loader})
	require.NoError(t, err)
	return h
}

func TestGateway_DuplicateModuleRejected(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	addModule(t, gw, resolver, "A", mock.NewModule())

	loader := mock.NewLoader("A-loader-2", mock.NewFactory(mock.NewModule()))
	_, err = gw.AddModule(core.AddModuleRequest{Name: "A", Loader: loader})
	assert.ErrorIs(t, err, core.ErrDuplicateModule)
}

func TestGateway_RemoveModuleCascadesLinks(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	a, b := mock.NewModule(), mock.NewModule()
	ha := addModule(t, gw, resolver, "A", a)
	addModule(t, gw, resolver, "B", b)

	require.NoError(t, gw.AddLink(core.LinkRequest{Source: "A", Sink: "B"}))
	require.NoError(t, gw.RemoveModule(ha))

	snap := gw.GetModuleList()
	defer core.DestroyModuleList(snap)
	require.Len(t, snap.Modules, 1)
	assert.Equal(t, "B", snap.Modules[0].Name)
	assert.Empty(t, snap.Modules[0].Sources)

	msg := core.NewMessage([]byte("ignored"), nil)
	defer msg.Destroy()
	require.NoError(t, gw.Broker().Publish("B", msg))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, a.ReceiveCount())
}

func TestGateway_RemoveUnknownModuleErrors(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	assert.ErrorIs(t, gw.RemoveModule(&core.ModuleHandle{}), core.ErrModuleNotFound)
}

func TestGateway_RemoveLinkIdempotent(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	addModule(t, gw, resolver, "A", mock.NewModule())
	addModule(t, gw, resolver, "B", mock.NewModule())

	assert.NoError(t, gw.RemoveLink(core.LinkRequest{Source: "A", Sink: "B"}))
	require.NoError(t, gw.AddLink(core.LinkRequest{Source: "A", Sink: "B"}))
	assert.NoError(t, gw.RemoveLink(core.LinkRequest{Source: "A", Sink: "B"}))
	assert.NoError(t, gw.RemoveLink(core.LinkRequest{Source: "A", Sink: "B"}))
}

func TestGateway_ModuleListChangedOrdering(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	var mu sync.Mutex
	var snapshots []*core.ModuleSnapshot
	gw.Events().AddCallback(core.ModuleListChanged, func(g *core.Gateway, kind core.EventKind, context any, userParam any) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, context.(*core.ModuleSnapshot))
	}, nil)

	addModule(t, gw, resolver, "X", mock.NewModule())
	addModule(t, gw, resolver, "Y", mock.NewModule())

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots[0].Modules, 1)
	assert.Equal(t, "X", snapshots[0].Modules[0].Name)
	require.Len(t, snapshots[1].Modules, 2)
}

func TestGateway_StartIdempotentAcrossRepeatCalls(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	var starts int
	m := mock.NewModule()
	m.StartFunc = func() { starts++ }
	addModule(t, gw, resolver, "A", m)

	require.NoError(t, gw.Start())
	require.NoError(t, gw.Start())
	assert.Equal(t, 1, starts)
}

func TestGateway_StartModuleAlwaysInvokesOnRequest(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	var starts int
	m := mock.NewModule()
	m.StartFunc = func() { starts++ }
	h := addModule(t, gw, resolver, "A", m)

	require.NoError(t, gw.Start())
	require.NoError(t, gw.StartModule(h))
	assert.Equal(t, 2, starts)
}

func TestGateway_StartModuleNoHookIsNoop(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	plain := mock.NewModuleWithoutStart()
	loader := mock.NewLoader("plain-loader", mock.NewFactory(plain))
	resolver.Loaders[loader.Name()] = loader
	h, err := gw.AddModule(core.AddModuleRequest{Name: "P", Loader: loader})
	require.NoError(t, err)

	assert.NoError(t, gw.StartModule(h))
}

func TestGateway_CreateFromConfigTearsDownOnFailure(t *testing.T) {
	first := mock.NewModule()
	resolver := mock.NewResolver(mock.NewLoader("first-loader", mock.NewFactory(first)))
	cfg := &core.GatewayConfig{
		Modules: []core.ModuleSpec{
			{Name: "first", LoaderName: "first-loader", Config: json.RawMessage("null")},
			{Name: "A", LoaderName: "missing-loader", Config: json.RawMessage("null")},
		},
	}
	_, err := core.Create(resolver, cfg)
	assert.Error(t, err)
	assert.True(t, first.Destroyed()) // module added before the failure is torn down
}

func TestGateway_APIVersionGate(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil, core.WithAPIVersion(1))
	require.NoError(t, err)
	defer gw.Destroy()

	factory := &mock.Factory{Version: 2, CreateFunc: func(b *core.Broker, cfg any) (core.Module, error) {
		return mock.NewModule(), nil
	}}
	loader := mock.NewLoader("future-loader", factory)
	_, err = gw.AddModule(core.AddModuleRequest{Name: "future", Loader: loader})
	require.Error(t, err)
	code, ok := core.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, core.LoaderFailure, code)
}

func TestGateway_GetModuleListWildcardPriority(t *testing.T) {
	resolver := mock.NewResolver()
	gw, err := core.Create(resolver, nil)
	require.NoError(t, err)
	defer gw.Destroy()

	addModule(t, gw, resolver, "A", mock.NewModule())
	addModule(t, gw, resolver, "B", mock.NewModule())
	addModule(t, gw, resolver, "C", mock.NewModule())

	require.NoError(t, gw.AddLink(core.LinkRequest{Source: "A", Sink: "C"}))
	require.NoError(t, gw.AddLink(core.LinkRequest{Source: "*", Sink: "C"}))

	snap := gw.GetModuleList()
	defer core.DestroyModuleList(snap)

	for _, info := range snap.Modules {
		if info.Name == "C" {
			assert.Nil(t, info.Sources)
		}
	}
}
