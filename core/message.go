package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Message is an immutable value carrying an opaque byte payload and a
// property bag. Messages are shared by reference counting rather than
// copied: Clone is O(1) and increments the shared refcount, Destroy
// decrements it and releases the backing data at zero (I4).
//
// The zero value is not usable; construct one with NewMessage or FromBytes.
type Message struct {
	data *messageData
}

type messageData struct {
	id       uuid.UUID
	payload  []byte
	props    *Properties
	refCount int32 // atomic; 1 at construction, held by the constructing holder
}

// NewMessage constructs a Message from a payload and property bag. The
// returned Message carries exactly one reference, owned by the caller.
// payload may be zero-length. A nil props is treated as EmptyProperties.
func NewMessage(payload []byte, props *Properties) *Message {
	if props == nil {
		props = EmptyProperties
	}
	return &Message{
		data: &messageData{
			id:       uuid.New(),
			payload:  payload,
			props:    props,
			refCount: 1,
		},
	}
}

// ID returns the message's identity, used for log correlation; it plays no
// role in delivery or equality.
func (m *Message) ID() uuid.UUID { return m.data.id }

// Payload returns the opaque byte payload. The slice must not be mutated;
// messages are immutable after construction.
func (m *Message) Payload() []byte { return m.data.payload }

// Properties returns the message's property bag.
func (m *Message) Properties() *Properties { return m.data.props }

// Clone returns a new holder of the same underlying message, incrementing
// the shared reference count. O(1): no payload or property data is copied.
func (m *Message) Clone() *Message {
	atomic.AddInt32(&m.data.refCount, 1)
	return &Message{data: m.data}
}

// Destroy releases this holder's reference. The backing data is considered
// freed once the count reaches zero; callers must not use m (or any other
// clone, through a bug) as if it still held a reference afterwards.
func (m *Message) Destroy() {
	atomic.AddInt32(&m.data.refCount, -1)
}

// RefCount reports the current reference count. Exposed for tests
// verifying ref-count conservation; not meant for production control flow,
// since the count is only a snapshot at the instant it's read.
func (m *Message) RefCount() int32 {
	return atomic.LoadInt32(&m.data.refCount)
}

// Equal reports whether two messages carry the same payload bytes and the
// same set of property pairs — the equality the wire-format round trip
// (§6.3, P8) requires, deliberately ignoring ID and refcount.
func (m *Message) Equal(other *Message) bool {
	if other == nil {
		return false
	}
	if len(m.Payload()) != len(other.Payload()) {
		return false
	}
	for i := range m.Payload() {
		if m.Payload()[i] != other.Payload()[i] {
			return false
		}
	}
	return m.Properties().Equal(other.Properties())
}
