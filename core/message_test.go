package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewaymux/gatewaymux/core"
)

func TestMessage_CloneDestroyRefCount(t *testing.T) {
	m := core.NewMessage([]byte("payload"), nil)
	assert.Equal(t, int32(1), m.RefCount())

	c := m.Clone()
	assert.Equal(t, int32(2), m.RefCount())
	assert.Equal(t, int32(2), c.RefCount())

	c.Destroy()
	assert.Equal(t, int32(1), m.RefCount())

	m.Destroy()
	assert.Equal(t, int32(0), m.RefCount())
}

func TestMessage_NilPropsBecomeEmpty(t *testing.T) {
	m := core.NewMessage(nil, nil)
	assert.Equal(t, 0, m.Properties().Len())
}

func TestMessage_Equal(t *testing.T) {
	props := core.NewProperties(map[string]string{"a": "1", "b": "2"}, []string{"a", "b"})
	m1 := core.NewMessage([]byte("x"), props)
	m2 := core.NewMessage([]byte("x"), core.NewProperties(map[string]string{"b": "2", "a": "1"}, []string{"b", "a"}))

	assert.True(t, m1.Equal(m2))
	assert.NotEqual(t, m1.ID(), m2.ID())
}
