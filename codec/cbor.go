package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/canonval/value"
)

// encMode is the CBOR encoder configured with Core Deterministic Encoding
// (RFC 8949 §4.2): smallest integer encoding, preferred float encoding, no
// indefinite-length items. Map ordering is not delegated to it; EncodeBinary
// emits map heads and entries itself so the canonical order is explicit.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Maps decoded into any-typed targets become
// map[string]any, the only map shape the Value model carries.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeBinary serializes a Value tree to the canonical binary wire form.
func EncodeBinary(v value.Value) ([]byte, error) {
	return appendBinary(nil, v)
}

func appendBinary(buf []byte, v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return append(buf, 0xf6), nil
	case value.KindBool:
		if v.Bool() {
			return append(buf, 0xf5), nil
		}
		return append(buf, 0xf4), nil
	case value.KindInteger:
		return appendMarshaled(buf, v.Int())
	case value.KindUInteger:
		return appendMarshaled(buf, v.Uint())
	case value.KindVersion:
		// Suppression, if any, happened in the Builder; here a Version is a
		// plain unsigned integer.
		return appendMarshaled(buf, uint64(v.VersionTag()))
	case value.KindFloat:
		return appendMarshaled(buf, v.Float())
	case value.KindString:
		return appendMarshaled(buf, v.Str())
	case value.KindBytes:
		raw := v.ByteSlice()
		buf = appendHead(buf, 2, uint64(len(raw)))
		return append(buf, raw...), nil
	case value.KindFixedBytes:
		raw := v.Fixed()
		buf = appendHead(buf, 2, uint64(len(raw)))
		return append(buf, raw[:]...), nil
	case value.KindIdentifier:
		raw := v.ID()
		buf = appendHead(buf, 2, uint64(len(raw)))
		return append(buf, raw[:]...), nil
	case value.KindArray:
		elems := v.Elems()
		buf = appendHead(buf, 4, uint64(len(elems)))
		var err error
		for _, el := range elems {
			if buf, err = appendBinary(buf, el); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case value.KindMap:
		entries := v.Entries()
		buf = appendHead(buf, 5, uint64(len(entries)))
		var err error
		for _, k := range canonicalKeys(entries) {
			if buf, err = appendMarshaled(buf, k); err != nil {
				return nil, err
			}
			if buf, err = appendBinary(buf, entries[k]); err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, value.NewError(value.KindInternal, "CV-INT-001",
			fmt.Sprintf("unknown value kind %d", v.Kind()))
	}
}

func appendMarshaled(buf []byte, x any) ([]byte, error) {
	raw, err := encMode.Marshal(x)
	if err != nil {
		return nil, value.WrapError(value.KindSerialization, "CV-SER-004",
			"CBOR leaf encoding failed", err)
	}
	return append(buf, raw...), nil
}

// appendHead writes a CBOR definite-length item head for the given major
// type, using the shortest argument encoding (RFC 8949 §4.2.1).
func appendHead(buf []byte, major byte, n uint64) []byte {
	mt := major << 5
	switch {
	case n < 24:
		return append(buf, mt|byte(n))
	case n <= 0xff:
		return append(buf, mt|24, byte(n))
	case n <= 0xffff:
		buf = append(buf, mt|25)
		return binary.BigEndian.AppendUint16(buf, uint16(n))
	case n <= 0xffffffff:
		buf = append(buf, mt|26)
		return binary.BigEndian.AppendUint32(buf, uint32(n))
	default:
		buf = append(buf, mt|27)
		return binary.BigEndian.AppendUint64(buf, n)
	}
}

// DecodeBinary reconstructs a Value tree from the binary wire form. Byte
// strings become Bytes; integers decode as Integer when they fit an int64 and
// as UInteger only beyond that, the same rule DecodeJSON applies. Wrapper
// kinds are not recovered here.
func DecodeBinary(data []byte) (value.Value, error) {
	var wire any
	if err := decMode.Unmarshal(data, &wire); err != nil {
		return value.Value{}, value.WrapError(value.KindDeserialization, "CV-DES-010",
			"invalid CBOR document", err)
	}
	return fromBinaryWire(wire)
}

func fromBinaryWire(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.NewBool(t), nil
	case string:
		return value.NewString(t), nil
	case uint64:
		if t <= math.MaxInt64 {
			return value.NewInteger(int64(t)), nil
		}
		return value.NewUInteger(t), nil
	case int64:
		return value.NewInteger(t), nil
	case float64:
		return value.NewFloat(t), nil
	case float32:
		return value.NewFloat(float64(t)), nil
	case []byte:
		return value.NewBytes(t), nil
	case []any:
		elems := make([]value.Value, len(t))
		for i, el := range t {
			ev, err := fromBinaryWire(el)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = ev
		}
		return value.NewArray(elems...), nil
	case map[string]any:
		m := make(map[string]value.Value, len(t))
		for k, el := range t {
			ev, err := fromBinaryWire(el)
			if err != nil {
				return value.Value{}, err
			}
			m[k] = ev
		}
		return value.NewMap(m), nil
	default:
		return value.Value{}, value.NewError(value.KindDeserialization, "CV-DES-011",
			fmt.Sprintf("CBOR item of type %T has no Value representation", x))
	}
}
