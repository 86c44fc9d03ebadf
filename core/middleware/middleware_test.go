package middleware_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/core/middleware"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

func withCapturedLog(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(level)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLogging(t *testing.T) {
	buf := withCapturedLog(t, zerolog.DebugLevel)

	var called bool
	rf := middleware.Logging()(func(moduleName string, msg *core.Message) {
		called = true
	})

	msg := core.NewMessage([]byte("hello"), nil)
	rf("sink-a", msg)

	assert.True(t, called)
	assert.Contains(t, buf.String(), "sink-a")
	assert.Contains(t, buf.String(), msg.ID().String())
}

func TestRecovery_ContainsPanic(t *testing.T) {
	buf := withCapturedLog(t, zerolog.ErrorLevel)

	rf := middleware.Recovery()(func(moduleName string, msg *core.Message) {
		panic("boom")
	})

	require.NotPanics(t, func() {
		rf("sink-a", core.NewMessage(nil, nil))
	})
	assert.Contains(t, buf.String(), "sink-a")
	assert.True(t, strings.Contains(buf.String(), "boom") || strings.Contains(buf.String(), "panic"))
}

func TestRecovery_NoPanic(t *testing.T) {
	var called bool
	rf := middleware.Recovery()(func(moduleName string, msg *core.Message) {
		called = true
	})

	require.NotPanics(t, func() {
		rf("sink-a", core.NewMessage(nil, nil))
	})
	assert.True(t, called)
}

type collectingMetrics struct {
	module   string
	duration time.Duration
	calls    int
}

func (c *collectingMetrics) DeliveryObserved(moduleName string, duration time.Duration) {
	c.module = moduleName
	c.duration = duration
	c.calls++
}

func TestMetrics(t *testing.T) {
	collector := &collectingMetrics{}
	rf := middleware.Metrics(collector)(func(moduleName string, msg *core.Message) {
		time.Sleep(time.Millisecond)
	})

	rf("sink-a", core.NewMessage(nil, nil))

	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, "sink-a", collector.module)
	assert.Greater(t, collector.duration, time.Duration(0))
}
