package natsbridge_test

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/modules/natsbridge"
)

func TestNATSBridge_RequiresAtLeastOneSubject(t *testing.T) {
	_, err := (natsbridge.Factory{}).Create(nil, json.RawMessage(`{"url":"nats://127.0.0.1:4222"}`))
	require.Error(t, err)
}

func TestNATSBridge_RejectsNonRawMessageConfig(t *testing.T) {
	_, err := (natsbridge.Factory{}).Create(nil, 42)
	require.Error(t, err)
}

func TestNATSBridge_ConnectFailsFast(t *testing.T) {
	_, err := (natsbridge.Factory{}).Create(nil, json.RawMessage(
		`{"url":"nats://127.0.0.1:1","publish_subject":"orders"}`))
	require.Error(t, err)
}

func TestNATSBridge_LiveCreate(t *testing.T) {
	const addr = "127.0.0.1:4222"
	conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	if err != nil {
		t.Skipf("nats server not available at %s: %v", addr, err)
	}
	conn.Close()

	mod, err := (natsbridge.Factory{}).Create(nil, json.RawMessage(
		`{"url":"nats://`+addr+`","publish_subject":"gatewaymux.test"}`))
	require.NoError(t, err)
	defer mod.Destroy()
}
