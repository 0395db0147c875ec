package codec

import (
	"bytes"
	"encoding/hex"
	"math"
	"testing"

	"xdao.co/canonval/value"
)

func testIdentifier() value.Identifier {
	var id value.Identifier
	for i := range id {
		id[i] = 0x0B
	}
	return id
}

// sampleMap covers every key-length class the ordering rule distinguishes:
// "a" sorts before the two-byte keys, and "ba" before "bb" lexicographically.
func sampleMap() value.Value {
	return value.NewMap(map[string]value.Value{
		"bb": value.NewString("x"),
		"id": value.NewIdentifier(testIdentifier()),
		"a":  value.NewInteger(1),
		"ba": value.NewBytes([]byte{1, 2}),
	})
}

const sampleMapCBOR = "a4616101626261420102626262617862696458200b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b"

const sampleMapJSON = `{"a":1,"ba":"AQI=","bb":"x","id":"k7FaK87WHGVXzkaoHb7CdVPgkKDQhZ29VLDeBVbDfYn"}`

func TestCanonicalKeys_LengthThenLexicographic(t *testing.T) {
	m := map[string]value.Value{
		"b":  value.Null(),
		"aa": value.Null(),
		"ab": value.Null(),
		"":   value.Null(),
		"ba": value.Null(),
		"a":  value.Null(),
	}
	got := canonicalKeys(m)
	want := []string{"", "a", "b", "aa", "ab", "ba"}
	if len(got) != len(want) {
		t.Fatalf("got %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order %v, want %v", got, want)
		}
	}
}

func TestEncodeBinary_Golden(t *testing.T) {
	raw, err := EncodeBinary(sampleMap())
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if got := hex.EncodeToString(raw); got != sampleMapCBOR {
		t.Fatalf("binary form\n got %s\nwant %s", got, sampleMapCBOR)
	}
}

func TestEncodeBinary_InsertionOrderIrrelevant(t *testing.T) {
	permuted := value.NewMap(nil)
	permuted.Set("id", value.NewIdentifier(testIdentifier()))
	permuted.Set("a", value.NewInteger(1))
	permuted.Set("bb", value.NewString("x"))
	permuted.Set("ba", value.NewBytes([]byte{1, 2}))

	a, err := EncodeBinary(sampleMap())
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	b, err := EncodeBinary(permuted)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("insertion order leaked into the wire form")
	}
}

func TestEncodeBinary_Scalars(t *testing.T) {
	cases := []struct {
		v   value.Value
		hex string
	}{
		{value.Null(), "f6"},
		{value.NewBool(false), "f4"},
		{value.NewBool(true), "f5"},
		{value.NewInteger(0), "00"},
		{value.NewInteger(-1), "20"},
		{value.NewInteger(-500), "3901f3"},
		{value.NewUInteger(23), "17"},
		{value.NewUInteger(24), "1818"},
		{value.NewVersion(1), "01"},
		{value.NewString(""), "60"},
		{value.NewBytes(nil), "40"},
		{value.NewFloat(0.5), "f93800"},
		{value.NewArray(), "80"},
		{value.NewMap(nil), "a0"},
	}
	for _, c := range cases {
		raw, err := EncodeBinary(c.v)
		if err != nil {
			t.Fatalf("EncodeBinary(%s): %v", c.v.Kind(), err)
		}
		if got := hex.EncodeToString(raw); got != c.hex {
			t.Fatalf("EncodeBinary(%s) = %s, want %s", c.v.Kind(), got, c.hex)
		}
	}
}

func TestDecodeBinary_RoundTrip(t *testing.T) {
	raw, err := EncodeBinary(sampleMap())
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	got, err := DecodeBinary(raw)
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}

	// Wrapper kinds are not recovered: the identifier comes back as Bytes.
	if got.Key("id").Kind() != value.KindBytes {
		t.Fatalf("id decoded as %s", got.Key("id").Kind())
	}
	if len(got.Key("id").ByteSlice()) != 32 {
		t.Fatalf("id payload length = %d", len(got.Key("id").ByteSlice()))
	}
	if got.Key("a").Kind() != value.KindInteger || got.Key("a").Int() != 1 {
		t.Fatalf("a decoded as %s", got.Key("a").Kind())
	}
	if got.Key("ba").Kind() != value.KindBytes {
		t.Fatalf("ba decoded as %s", got.Key("ba").Kind())
	}
	if got.Key("bb").Str() != "x" {
		t.Fatalf("bb = %q", got.Key("bb").Str())
	}

	// Re-encoding the decoded tree reproduces the same bytes.
	again, err := EncodeBinary(got)
	if err != nil {
		t.Fatalf("EncodeBinary(decoded): %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Fatalf("re-encode diverged")
	}
}

func TestDecodeBinary_IntegerKindSelection(t *testing.T) {
	// Both decoders resolve the integer-kind ambiguity the same way: signed
	// whenever the value fits an int64, unsigned only beyond that.
	cases := []struct {
		v    value.Value
		kind value.Kind
	}{
		{value.NewInteger(1), value.KindInteger},
		{value.NewUInteger(1), value.KindInteger},
		{value.NewUInteger(math.MaxInt64), value.KindInteger},
		{value.NewUInteger(math.MaxInt64 + 1), value.KindUInteger},
		{value.NewUInteger(math.MaxUint64), value.KindUInteger},
	}
	for _, c := range cases {
		raw, err := EncodeBinary(c.v)
		if err != nil {
			t.Fatalf("EncodeBinary: %v", err)
		}
		got, err := DecodeBinary(raw)
		if err != nil {
			t.Fatalf("DecodeBinary: %v", err)
		}
		if got.Kind() != c.kind {
			t.Fatalf("decode of %s = %s, want %s", c.v.Kind(), got.Kind(), c.kind)
		}
	}
}

func TestDecodeBinary_NegativeIntegerStaysSigned(t *testing.T) {
	raw, err := EncodeBinary(value.NewInteger(-7))
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	got, err := DecodeBinary(raw)
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}
	if got.Kind() != value.KindInteger || got.Int() != -7 {
		t.Fatalf("got %s", got.Kind())
	}
}

func TestDecodeBinary_InvalidInput(t *testing.T) {
	_, err := DecodeBinary([]byte{0xff, 0xff})
	if err == nil {
		t.Fatalf("expected error for malformed CBOR")
	}
	if !value.IsKind(err, value.KindDeserialization) {
		t.Fatalf("expected Deserialization kind, got %v", err)
	}
	if value.RuleID(err) != "CV-DES-010" {
		t.Fatalf("RuleID = %q", value.RuleID(err))
	}
}

func TestEncodeJSON_Golden(t *testing.T) {
	raw, err := EncodeJSON(sampleMap())
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if string(raw) != sampleMapJSON {
		t.Fatalf("text form\n got %s\nwant %s", raw, sampleMapJSON)
	}
}

func TestEncodeJSON_FloatFormatting(t *testing.T) {
	cases := []struct {
		f    float64
		want string
	}{
		{0, "0"},
		{0.5, "0.5"},
		{1, "1"},
		{-2.25, "-2.25"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1e-6, "0.000001"},
		{1e-7, "1e-7"},
		{math.Copysign(0, -1), "0"},
	}
	for _, c := range cases {
		raw, err := EncodeJSON(value.NewFloat(c.f))
		if err != nil {
			t.Fatalf("EncodeJSON(%g): %v", c.f, err)
		}
		if string(raw) != c.want {
			t.Fatalf("EncodeJSON(%g) = %s, want %s", c.f, raw, c.want)
		}
	}
}

func TestEncodeJSON_NonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EncodeJSON(value.NewFloat(f))
		if err == nil {
			t.Fatalf("expected error for %g", f)
		}
		if value.RuleID(err) != "CV-SER-003" {
			t.Fatalf("RuleID = %q", value.RuleID(err))
		}
	}
}

func TestEncodeJSON_StringEscaping(t *testing.T) {
	raw, err := EncodeJSON(value.NewString("a\"b\\c\n\t\x01é"))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	want := `"a\"b\\c\n\té"`
	if string(raw) != want {
		t.Fatalf("escaped string = %s, want %s", raw, want)
	}
}

func TestEncodeJSON_RejectsInvalidUTF8(t *testing.T) {
	if _, err := EncodeJSON(value.NewString("ok\xff")); err == nil {
		t.Fatalf("expected error for invalid UTF-8 string leaf")
	} else if value.RuleID(err) != "CV-SER-005" {
		t.Fatalf("RuleID = %q", value.RuleID(err))
	}

	bad := value.NewMap(map[string]value.Value{"k\xff": value.Null()})
	if _, err := EncodeJSON(bad); err == nil {
		t.Fatalf("expected error for invalid UTF-8 map key")
	} else if value.RuleID(err) != "CV-SER-005" {
		t.Fatalf("RuleID = %q", value.RuleID(err))
	}
}

func TestDecodeJSON_NumberKinds(t *testing.T) {
	cases := []struct {
		in   string
		kind value.Kind
	}{
		{"0", value.KindInteger},
		{"-5", value.KindInteger},
		{"9223372036854775807", value.KindInteger},
		{"9223372036854775808", value.KindUInteger},
		{"18446744073709551615", value.KindUInteger},
		{"1.5", value.KindFloat},
		{"1e3", value.KindFloat},
		{"1E-2", value.KindFloat},
	}
	for _, c := range cases {
		v, err := DecodeJSON([]byte(c.in))
		if err != nil {
			t.Fatalf("DecodeJSON(%s): %v", c.in, err)
		}
		if v.Kind() != c.kind {
			t.Fatalf("DecodeJSON(%s) kind = %s, want %s", c.in, v.Kind(), c.kind)
		}
	}
}

func TestDecodeJSON_RoundTrip(t *testing.T) {
	v, err := DecodeJSON([]byte(sampleMapJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	// Strings stay strings; no base58/base64 recovery at this layer.
	if v.Key("id").Kind() != value.KindString {
		t.Fatalf("id decoded as %s", v.Key("id").Kind())
	}
	raw, err := EncodeJSON(v)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if string(raw) != sampleMapJSON {
		t.Fatalf("re-encode diverged:\n got %s\nwant %s", raw, sampleMapJSON)
	}
}

func TestDecodeJSON_TrailingData(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"a":1} garbage`))
	if err == nil {
		t.Fatalf("expected error for trailing data")
	}
	if value.RuleID(err) != "CV-DES-021" {
		t.Fatalf("RuleID = %q", value.RuleID(err))
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"a":`))
	if err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
	if value.RuleID(err) != "CV-DES-020" {
		t.Fatalf("RuleID = %q", value.RuleID(err))
	}
}

func TestWireForms_AgreeOnOrdering(t *testing.T) {
	// The same canonical order drives both encoders.
	v := value.NewMap(map[string]value.Value{
		"zz":  value.NewInteger(1),
		"y":   value.NewInteger(2),
		"aaa": value.NewInteger(3),
	})
	text, err := EncodeJSON(v)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if want := `{"y":2,"zz":1,"aaa":3}`; string(text) != want {
		t.Fatalf("text order %s, want %s", text, want)
	}
	bin, err := EncodeBinary(v)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if got := hex.EncodeToString(bin); got != "a3617902627a7a016361616103" {
		t.Fatalf("binary order %s", got)
	}
}
