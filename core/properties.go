package core

// Properties is an ordered set of string key/value pairs with unique keys.
// Insertion order is preserved for serialization determinism (§6.3's wire
// format iterates properties in this order), but lookup by Get carries no
// ordering guarantee by contract — callers must not depend on it.
//
// A Properties value is immutable once it is handed to NewMessage: build it
// with a PropertiesBuilder, then Build it.
type Properties struct {
	keys []string
	vals map[string]string
}

// EmptyProperties is the zero-length, always-safe-to-share property bag.
var EmptyProperties = &Properties{}

// PropertiesBuilder accumulates key/value pairs before they are frozen into
// an immutable Properties value.
type PropertiesBuilder struct {
	keys []string
	vals map[string]string
}

// NewPropertiesBuilder returns an empty builder.
func NewPropertiesBuilder() *PropertiesBuilder {
	return &PropertiesBuilder{vals: make(map[string]string)}
}

// Set records key=value, overwriting any prior value for key but keeping
// its original insertion position.
func (b *PropertiesBuilder) Set(key, value string) *PropertiesBuilder {
	if _, exists := b.vals[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = value
	return b
}

// Build freezes the accumulated pairs into an immutable Properties value.
func (b *PropertiesBuilder) Build() *Properties {
	p := &Properties{
		keys: make([]string, len(b.keys)),
		vals: make(map[string]string, len(b.vals)),
	}
	copy(p.keys, b.keys)
	for k, v := range b.vals {
		p.vals[k] = v
	}
	return p
}

// NewProperties is a convenience constructor for small, fixed property sets,
// inserting the pairs in the key order given by order (keys absent from
// pairs are skipped). With a nil order, pairs are inserted in Go's map
// iteration order, which is not defined.
func NewProperties(pairs map[string]string, order []string) *Properties {
	b := NewPropertiesBuilder()
	if order != nil {
		for _, k := range order {
			if v, ok := pairs[k]; ok {
				b.Set(k, v)
			}
		}
		return b.Build()
	}
	for k, v := range pairs {
		b.Set(k, v)
	}
	return b.Build()
}

// Get returns the value for key and whether it was present.
func (p *Properties) Get(key string) (string, bool) {
	if p == nil || p.vals == nil {
		return "", false
	}
	v, ok := p.vals[key]
	return v, ok
}

// Len returns the number of pairs.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order. The returned slice must not be
// mutated by the caller.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return p.keys
}

// Range calls fn for every pair in insertion order, stopping early if fn
// returns false.
func (p *Properties) Range(fn func(key, value string) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.vals[k]) {
			return
		}
	}
}

// Equal reports whether p and other carry the same set of (key, value)
// pairs, irrespective of insertion order — matching §6.3's round-trip
// identity contract ("equal ... on the set of property pairs").
func (p *Properties) Equal(other *Properties) bool {
	if p.Len() != other.Len() {
		return false
	}
	equal := true
	p.Range(func(k, v string) bool {
		ov, ok := other.Get(k)
		if !ok || ov != v {
			equal = false
			return false
		}
		return true
	})
	return equal
}
