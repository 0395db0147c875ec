package value

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Identifier is a fixed-length content identifier. Its text wire form is
// base58 (the alphabet used across the CID ecosystem); its binary wire form
// is a raw byte string. It is a distinct kind from FixedBytes purely because
// of that text alphabet.
type Identifier [FixedLen]byte

// String returns the base58 text form.
func (id Identifier) String() string {
	return base58.Encode(id[:])
}

// IdentifierFromSlice copies raw into an Identifier. Wrong-length input is a
// construction-time error.
func IdentifierFromSlice(raw []byte) (Identifier, error) {
	var out Identifier
	if len(raw) != FixedLen {
		return out, NewError(KindDeserialization, "CV-DES-003",
			fmt.Sprintf("identifier must be %d bytes, got %d", FixedLen, len(raw)))
	}
	copy(out[:], raw)
	return out, nil
}

// ParseIdentifier decodes the base58 text form. Invalid alphabet content or
// a wrong decoded length is a DeserializationError.
func ParseIdentifier(s string) (Identifier, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Identifier{}, WrapError(KindDeserialization, "CV-DES-004",
			fmt.Sprintf("invalid base58 identifier %q", s), err)
	}
	return IdentifierFromSlice(raw)
}
