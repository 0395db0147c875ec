package value

import (
	"encoding/base64"
	"fmt"
)

// Bytes is a variable-length byte blob. Its text wire form is base64; its
// binary wire form is a raw byte string.
type Bytes []byte

// String returns the base64 text form.
func (b Bytes) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// ParseBytes decodes the base64 text form.
func ParseBytes(s string) (Bytes, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, WrapError(KindDeserialization, "CV-DES-001",
			fmt.Sprintf("invalid base64 byte string %q", s), err)
	}
	return raw, nil
}

// FixedLen is the length of FixedBytes and Identifier payloads.
const FixedLen = 32

// FixedBytes is a byte blob whose length is fixed at compile time. It exists
// separately from Bytes because some domain blobs (entropy, key material) are
// always exactly FixedLen bytes; the sizing is a type-level invariant, never
// a runtime check on a correctly-typed path.
type FixedBytes [FixedLen]byte

// String returns the base64 text form.
func (b FixedBytes) String() string {
	return base64.StdEncoding.EncodeToString(b[:])
}

// FixedBytesFromSlice copies raw into a FixedBytes. Wrong-length input is a
// construction-time error, never silently truncated or padded.
func FixedBytesFromSlice(raw []byte) (FixedBytes, error) {
	var out FixedBytes
	if len(raw) != FixedLen {
		return out, NewError(KindDeserialization, "CV-DES-002",
			fmt.Sprintf("fixed byte blob must be %d bytes, got %d", FixedLen, len(raw)))
	}
	copy(out[:], raw)
	return out, nil
}

// ParseFixedBytes decodes the base64 text form into a FixedBytes.
func ParseFixedBytes(s string) (FixedBytes, error) {
	raw, err := ParseBytes(s)
	if err != nil {
		return FixedBytes{}, err
	}
	return FixedBytesFromSlice(raw)
}
