package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mr-tron/base58"

	"xdao.co/canonval/value"
)

// EncodeJSON serializes a Value tree to the canonical text wire form: a
// compact JSON document with map keys in canonical order, Identifier leaves
// as base58 strings, Bytes/FixedBytes leaves as base64 strings, and Version
// leaves as plain numbers.
func EncodeJSON(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		buf.WriteString("null")
		return nil
	case value.KindBool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case value.KindString:
		if !utf8.ValidString(v.Str()) {
			return value.NewError(value.KindSerialization, "CV-SER-005",
				"string leaf is not valid UTF-8")
		}
		writeJSONString(buf, v.Str())
		return nil
	case value.KindInteger:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
		return nil
	case value.KindUInteger:
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
		return nil
	case value.KindVersion:
		buf.WriteString(strconv.FormatUint(uint64(v.VersionTag()), 10))
		return nil
	case value.KindFloat:
		s, err := formatFloat(v.Float())
		if err != nil {
			return err
		}
		buf.WriteString(s)
		return nil
	case value.KindBytes:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(v.ByteSlice()))
		return nil
	case value.KindFixedBytes:
		raw := v.Fixed()
		writeJSONString(buf, base64.StdEncoding.EncodeToString(raw[:]))
		return nil
	case value.KindIdentifier:
		raw := v.ID()
		writeJSONString(buf, base58.Encode(raw[:]))
		return nil
	case value.KindArray:
		buf.WriteByte('[')
		for i, el := range v.Elems() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case value.KindMap:
		entries := v.Entries()
		buf.WriteByte('{')
		for i, k := range canonicalKeys(entries) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if !utf8.ValidString(k) {
				return value.NewError(value.KindSerialization, "CV-SER-005",
					fmt.Sprintf("map key %q is not valid UTF-8", k))
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if err := writeJSON(buf, entries[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return value.NewError(value.KindInternal, "CV-INT-001",
			fmt.Sprintf("unknown value kind %d", v.Kind()))
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r <= 0x1F:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// formatFloat renders a float in the shortest ECMAScript-compatible form.
// NaN and infinities have no JSON representation.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", value.NewError(value.KindSerialization, "CV-SER-003",
			"NaN and Infinity have no canonical text form")
	}
	if f == 0 {
		return "0", nil
	}
	abs := math.Abs(f)
	var s string
	if abs >= 1e21 || abs < 1e-6 {
		s = normalizeExponent(strconv.FormatFloat(f, 'e', -1, 64))
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s == "-0" {
		return "0", nil
	}
	return s, nil
}

// normalizeExponent strips the zero padding Go puts in exponents (1e-06)
// down to the ECMAScript form (1e-6).
func normalizeExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	sign := s[i+1]
	exp := s[i+2:]
	j := 0
	for j < len(exp)-1 && exp[j] == '0' {
		j++
	}
	return s[:i+1] + string(sign) + exp[j:]
}

// DecodeJSON reconstructs a Value tree from the text wire form. Numbers
// decode as Integer when they fit an int64, UInteger when they only fit a
// uint64, and Float otherwise; strings stay strings (base58/base64 wrapper
// recovery is typed decoding's job, not this decoder's).
func DecodeJSON(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var wire any
	if err := dec.Decode(&wire); err != nil {
		return value.Value{}, value.WrapError(value.KindDeserialization, "CV-DES-020",
			"invalid JSON document", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return value.Value{}, value.NewError(value.KindDeserialization, "CV-DES-021",
			"trailing data after JSON document")
	}
	return fromJSONWire(wire)
}

func fromJSONWire(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.NewBool(t), nil
	case string:
		return value.NewString(t), nil
	case json.Number:
		return numberToValue(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, el := range t {
			ev, err := fromJSONWire(el)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = ev
		}
		return value.NewArray(elems...), nil
	case map[string]any:
		m := make(map[string]value.Value, len(t))
		for k, el := range t {
			ev, err := fromJSONWire(el)
			if err != nil {
				return value.Value{}, err
			}
			m[k] = ev
		}
		return value.NewMap(m), nil
	default:
		return value.Value{}, value.NewError(value.KindDeserialization, "CV-DES-022",
			fmt.Sprintf("JSON item of type %T has no Value representation", x))
	}
}

func numberToValue(n json.Number) (value.Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.NewInteger(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return value.NewUInteger(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, value.WrapError(value.KindDeserialization, "CV-DES-023",
			fmt.Sprintf("unrepresentable JSON number %q", s), err)
	}
	return value.NewFloat(f), nil
}
