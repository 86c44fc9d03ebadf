package core_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/core"
)

func TestBind_JSONDefault(t *testing.T) {
	type payload struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	raw, err := json.Marshal(payload{ID: 42, Name: "test"})
	require.NoError(t, err)

	m := core.NewMessage(raw, nil)
	var got payload
	require.NoError(t, core.Bind(m, &got, nil))
	assert.Equal(t, 42, got.ID)
	assert.Equal(t, "test", got.Name)
}

func TestBind_InvalidJSON(t *testing.T) {
	m := core.NewMessage([]byte("not json"), nil)
	var got map[string]any
	assert.Error(t, core.Bind(m, &got, nil))
}
