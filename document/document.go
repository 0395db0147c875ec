// Package document composes Value-backed system fields and a free-form
// dynamic payload into a concrete record that encodes to both canonical wire
// forms.
//
// The binary form is the canonical one: it is produced with the protocol
// version suppressed (the version is implicit in the envelope that carries
// the bytes), it is deterministic across repeated encodes, and it is the
// form that CIDs and signatures are derived from. The text form keeps the
// version and is meant for humans and JSON tooling.
package document

import (
	"crypto/ed25519"
	"fmt"
	"math"

	"xdao.co/canonval/cidutil"
	"xdao.co/canonval/codec"
	"xdao.co/canonval/keys"
	"xdao.co/canonval/value"
)

// DefaultProtocolVersion is the protocol version stamped on new documents
// and assumed for binary-decoded documents, where the version is implicit.
const DefaultProtocolVersion value.Version = 1

// Document is a typed record over the dynamic Value model. System fields
// use the $-prefixed key namespace; the payload is flattened into the same
// top-level map, so payload keys must not start with '$'.
type Document struct {
	ProtocolVersion value.Version    `dynval:"$protocolVersion"`
	ID              value.Identifier `dynval:"$id"`
	DocumentType    string           `dynval:"$type"`
	Revision        uint32           `dynval:"$revision"`
	DataContractID  value.Identifier `dynval:"$dataContractId"`
	OwnerID         value.Identifier `dynval:"$ownerId"`
	CreatedAt       *int64           `dynval:"$createdAt,omitempty"`
	UpdatedAt       *int64           `dynval:"$updatedAt,omitempty"`

	// Data is the dynamic payload, a Map (or Null for none).
	Data value.Value `dynval:",flatten"`

	// Local bookkeeping, never serialized.
	DataContract string           `dynval:"-"`
	Metadata     string           `dynval:"-"`
	Entropy      value.FixedBytes `dynval:"-"`
}

// New returns a document of the given type with default system fields and an
// empty payload.
func New(documentType string) *Document {
	return &Document{
		ProtocolVersion: DefaultProtocolVersion,
		DocumentType:    documentType,
		Data:            value.NewMap(nil),
	}
}

// ToValue builds the Value tree for this document. skipVersion selects the
// binary-form behavior of dropping the $protocolVersion entry.
func (d *Document) ToValue(skipVersion bool) (value.Value, error) {
	return value.Builder{SkipVersion: skipVersion}.Build(*d)
}

// ToJSON renders the canonical text wire form, version included.
func (d *Document) ToJSON() ([]byte, error) {
	v, err := d.ToValue(false)
	if err != nil {
		return nil, err
	}
	return codec.EncodeJSON(v)
}

// ToBytes renders the canonical binary wire form, version suppressed.
// Repeated calls on an unmodified document return identical bytes.
func (d *Document) ToBytes() ([]byte, error) {
	v, err := d.ToValue(true)
	if err != nil {
		return nil, err
	}
	return codec.EncodeBinary(v)
}

// FromBytes decodes the canonical binary wire form back into a typed
// document. This is where wrapper kinds are recovered: the $-fields are
// decoded into Identifier/Version/timestamp types, everything else becomes
// the payload.
func FromBytes(data []byte) (*Document, error) {
	v, err := codec.DecodeBinary(data)
	if err != nil {
		return nil, err
	}
	return fromValue(v, false)
}

// FromJSON decodes the text wire form.
func FromJSON(data []byte) (*Document, error) {
	v, err := codec.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return fromValue(v, true)
}

// CID returns the CIDv1 (raw + sha2-256) of the canonical binary form.
func (d *Document) CID() (string, error) {
	b, err := d.ToBytes()
	if err != nil {
		return "", err
	}
	return cidutil.CIDv1RawSHA256(b), nil
}

// DeriveID returns a content-derived Identifier for the canonical binary
// form, for documents whose primary id is content-addressed.
func (d *Document) DeriveID() (value.Identifier, error) {
	b, err := d.ToBytes()
	if err != nil {
		return value.Identifier{}, err
	}
	return cidutil.DeriveIdentifier(b), nil
}

// Sign returns a base64 Ed25519 signature over sha256 of the canonical
// binary form.
func (d *Document) Sign(priv ed25519.PrivateKey) (string, error) {
	b, err := d.ToBytes()
	if err != nil {
		return "", err
	}
	return keys.SignEd25519SHA256(b, priv), nil
}

// Verify checks a base64 Ed25519 signature over the canonical binary form.
func (d *Document) Verify(pub ed25519.PublicKey, signature string) error {
	b, err := d.ToBytes()
	if err != nil {
		return err
	}
	return keys.VerifyEd25519SHA256(b, pub, signature)
}

// Equal reports field-for-field equality. An absent payload (Null) compares
// equal to an empty one, since the wire forms cannot tell them apart.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.ProtocolVersion != o.ProtocolVersion ||
		d.ID != o.ID ||
		d.DocumentType != o.DocumentType ||
		d.Revision != o.Revision ||
		d.DataContractID != o.DataContractID ||
		d.OwnerID != o.OwnerID ||
		!int64PtrEqual(d.CreatedAt, o.CreatedAt) ||
		!int64PtrEqual(d.UpdatedAt, o.UpdatedAt) {
		return false
	}
	return normalizePayload(d.Data).Equal(normalizePayload(o.Data))
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func normalizePayload(v value.Value) value.Value {
	if v.Kind() == value.KindNull {
		return value.NewMap(nil)
	}
	return v
}

func fromValue(v value.Value, text bool) (*Document, error) {
	if v.Kind() != value.KindMap {
		return nil, value.NewError(value.KindDeserialization, "CV-DES-030",
			fmt.Sprintf("document must decode from a map, got %s", v.Kind()))
	}

	d := &Document{ProtocolVersion: DefaultProtocolVersion}
	payload := make(map[string]value.Value)

	for k, e := range v.Entries() {
		var err error
		switch k {
		case "$protocolVersion":
			var u uint64
			if u, err = uintField(k, e, math.MaxUint32); err == nil {
				d.ProtocolVersion = value.Version(u)
			}
		case "$id":
			d.ID, err = identifierField(k, e, text)
		case "$type":
			d.DocumentType, err = stringField(k, e)
		case "$revision":
			var u uint64
			if u, err = uintField(k, e, math.MaxUint32); err == nil {
				d.Revision = uint32(u)
			}
		case "$dataContractId":
			d.DataContractID, err = identifierField(k, e, text)
		case "$ownerId":
			d.OwnerID, err = identifierField(k, e, text)
		case "$createdAt":
			d.CreatedAt, err = timestampField(k, e)
		case "$updatedAt":
			d.UpdatedAt, err = timestampField(k, e)
		default:
			payload[k] = e
		}
		if err != nil {
			return nil, err
		}
	}

	d.Data = value.NewMap(payload)
	return d, nil
}

func stringField(name string, v value.Value) (string, error) {
	if v.Kind() != value.KindString {
		return "", fieldShapeErr(name, "a string", v)
	}
	return v.Str(), nil
}

func uintField(name string, v value.Value, max uint64) (uint64, error) {
	var u uint64
	switch v.Kind() {
	case value.KindUInteger:
		u = v.Uint()
	case value.KindVersion:
		u = uint64(v.VersionTag())
	case value.KindInteger:
		if v.Int() < 0 {
			return 0, fieldShapeErr(name, "an unsigned integer", v)
		}
		u = uint64(v.Int())
	default:
		return 0, fieldShapeErr(name, "an unsigned integer", v)
	}
	if u > max {
		return 0, fieldRangeErr(name, u, max)
	}
	return u, nil
}

func timestampField(name string, v value.Value) (*int64, error) {
	var t int64
	switch v.Kind() {
	case value.KindInteger:
		t = v.Int()
	case value.KindUInteger:
		if v.Uint() > math.MaxInt64 {
			return nil, fieldRangeErr(name, v.Uint(), math.MaxInt64)
		}
		t = int64(v.Uint())
	default:
		return nil, fieldShapeErr(name, "an integer timestamp", v)
	}
	return &t, nil
}

func identifierField(name string, v value.Value, text bool) (value.Identifier, error) {
	if text {
		if v.Kind() != value.KindString {
			return value.Identifier{}, fieldShapeErr(name, "a base58 string", v)
		}
		id, err := value.ParseIdentifier(v.Str())
		if err != nil {
			return value.Identifier{}, value.WrapError(value.KindDeserialization, "CV-DES-031",
				fmt.Sprintf("field %s is not a valid identifier", name), err)
		}
		return id, nil
	}
	if v.Kind() != value.KindBytes {
		return value.Identifier{}, fieldShapeErr(name, "a byte string", v)
	}
	id, err := value.IdentifierFromSlice(v.ByteSlice())
	if err != nil {
		return value.Identifier{}, value.WrapError(value.KindDeserialization, "CV-DES-031",
			fmt.Sprintf("field %s is not a valid identifier", name), err)
	}
	return id, nil
}

func fieldShapeErr(name, want string, v value.Value) error {
	return value.NewError(value.KindDeserialization, "CV-DES-032",
		fmt.Sprintf("field %s must be %s, got %s", name, want, v.Kind()))
}

// fieldRangeErr rejects wire values that would truncate or wrap in the typed
// field; a lossy decode must never succeed silently.
func fieldRangeErr(name string, got, max uint64) error {
	return value.NewError(value.KindDeserialization, "CV-DES-033",
		fmt.Sprintf("field %s value %d exceeds maximum %d", name, got, max))
}
