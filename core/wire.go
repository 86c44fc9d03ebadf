package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wireMagic and wireVersion identify the self-describing byte stream
// produced by ToBytes, per §6.3.
var wireMagic = [4]byte{'G', 'W', 'M', 'X'}

const wireVersion uint8 = 1

// ToBytes serializes m into the self-describing wire format: a short
// magic/version header, a uint32 property count, that many length-prefixed
// (uint32) UTF-8 key/value pairs, then a uint32 payload length and the
// payload bytes.
func (m *Message) ToBytes() []byte {
	var buf bytes.Buffer
	buf.Write(wireMagic[:])
	buf.WriteByte(wireVersion)

	keys := m.Properties().Keys()
	writeUint32(&buf, uint32(len(keys)))
	for _, k := range keys {
		v, _ := m.Properties().Get(k)
		writeLengthPrefixed(&buf, []byte(k))
		writeLengthPrefixed(&buf, []byte(v))
	}

	writeLengthPrefixed(&buf, m.Payload())
	return buf.Bytes()
}

// FromBytes parses the wire format produced by ToBytes. The returned
// Message carries a single fresh reference, owned by the caller.
func FromBytes(data []byte) (*Message, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil {
		return nil, fmt.Errorf("gatewaymux: read magic: %w", err)
	}
	if magic != wireMagic {
		return nil, fmt.Errorf("gatewaymux: bad magic %x", magic)
	}

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("gatewaymux: read version: %w", err)
	}
	if version != wireVersion {
		return nil, fmt.Errorf("gatewaymux: unsupported wire version %d", version)
	}

	count, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("gatewaymux: read property count: %w", err)
	}

	builder := NewPropertiesBuilder()
	for i := uint32(0); i < count; i++ {
		key, err := readLengthPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("gatewaymux: read property key %d: %w", i, err)
		}
		val, err := readLengthPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("gatewaymux: read property value %d: %w", i, err)
		}
		builder.Set(string(key), string(val))
	}

	payload, err := readLengthPrefixed(r)
	if err != nil {
		return nil, fmt.Errorf("gatewaymux: read payload: %w", err)
	}

	return NewMessage(payload, builder.Build()), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeLengthPrefixed(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := r.Read(tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
