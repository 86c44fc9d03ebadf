package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewaymux/gatewaymux/core"
)

func TestPropertiesBuilder_PreservesInsertionOrderOnOverwrite(t *testing.T) {
	b := core.NewPropertiesBuilder()
	b.Set("a", "1").Set("b", "2").Set("a", "3")
	p := b.Build()

	assert.Equal(t, []string{"a", "b"}, p.Keys())
	v, ok := p.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestProperties_EqualIgnoresOrder(t *testing.T) {
	p1 := core.NewProperties(map[string]string{"a": "1", "b": "2"}, []string{"a", "b"})
	p2 := core.NewProperties(map[string]string{"b": "2", "a": "1"}, []string{"b", "a"})
	assert.True(t, p1.Equal(p2))
}

func TestProperties_EmptyProperties(t *testing.T) {
	assert.Equal(t, 0, core.EmptyProperties.Len())
	_, ok := core.EmptyProperties.Get("missing")
	assert.False(t, ok)
}
