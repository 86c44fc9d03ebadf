package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/config"
)

const sampleYAML = `
modules:
  - name: ingest
    loader: inprocess
    entrypoint:
      type: kafkasink
    config:
      brokers: ["localhost:9092"]
      topic: events
  - name: logger
    loader: inprocess
    entrypoint:
      type: logger
links:
  - source: "*"
    sink: logger
  - source: ingest
    sink: logger
`

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Modules, 2)
	assert.Equal(t, "ingest", cfg.Modules[0].Name)
	assert.Equal(t, "inprocess", cfg.Modules[0].LoaderName)
	assert.JSONEq(t, `{"type":"kafkasink"}`, string(cfg.Modules[0].Entrypoint))

	require.Len(t, cfg.Links, 2)
	assert.Equal(t, "*", cfg.Links[0].Source)
	assert.Equal(t, "logger", cfg.Links[0].Sink)
}

func TestFromYAML_MissingLoader(t *testing.T) {
	_, err := config.FromYAML([]byte("modules:\n  - name: a\n"))
	assert.Error(t, err)
}

func TestFromYAML_LinkDefaultsSourceToWildcard(t *testing.T) {
	cfg, err := config.FromYAML([]byte("links:\n  - sink: logger\n"))
	require.NoError(t, err)
	require.Len(t, cfg.Links, 1)
	assert.Equal(t, "*", cfg.Links[0].Source)
}
