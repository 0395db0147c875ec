package value

import (
	"bytes"
	"testing"
)

const idBase58 = "k7FaK87WHGVXzkaoHb7CdVPgkKDQhZ29VLDeBVbDfYn"

func TestIdentifier_Base58RoundTrip(t *testing.T) {
	var id Identifier
	for i := range id {
		id[i] = 0x0B
	}
	if got := id.String(); got != idBase58 {
		t.Fatalf("text form = %s, want %s", got, idBase58)
	}
	back, err := ParseIdentifier(idBase58)
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if back != id {
		t.Fatalf("round trip lost bytes")
	}
}

func TestIdentifier_ZeroBytesTextForm(t *testing.T) {
	var id Identifier
	want := "11111111111111111111111111111111"
	if got := id.String(); got != want {
		t.Fatalf("zero identifier = %s, want %s", got, want)
	}
}

func TestParseIdentifier_Errors(t *testing.T) {
	// '0', 'O', 'I', 'l' are outside the base58 alphabet.
	if _, err := ParseIdentifier("0OIl"); err == nil {
		t.Fatalf("expected error for invalid alphabet")
	} else if RuleID(err) != "CV-DES-004" {
		t.Fatalf("RuleID = %q", RuleID(err))
	}

	// Valid base58, wrong decoded length.
	if _, err := ParseIdentifier("abc"); err == nil {
		t.Fatalf("expected error for short identifier")
	} else if RuleID(err) != "CV-DES-003" {
		t.Fatalf("RuleID = %q", RuleID(err))
	}
}

func TestIdentifierFromSlice_LengthCheck(t *testing.T) {
	raw := bytes.Repeat([]byte{1}, FixedLen)
	id, err := IdentifierFromSlice(raw)
	if err != nil {
		t.Fatalf("IdentifierFromSlice: %v", err)
	}
	if !bytes.Equal(id[:], raw) {
		t.Fatalf("bytes not copied")
	}
	if _, err := IdentifierFromSlice(raw[:31]); err == nil {
		t.Fatalf("expected error for 31 bytes")
	}
}

func TestBytes_Base64RoundTrip(t *testing.T) {
	b := Bytes{1, 2}
	if b.String() != "AQI=" {
		t.Fatalf("text form = %s", b.String())
	}
	back, err := ParseBytes("AQI=")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if !bytes.Equal(back, b) {
		t.Fatalf("round trip lost bytes")
	}
	if _, err := ParseBytes("not base64!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	} else if RuleID(err) != "CV-DES-001" {
		t.Fatalf("RuleID = %q", RuleID(err))
	}
}

func TestParseFixedBytes_LengthCheck(t *testing.T) {
	var fx FixedBytes
	fx[0] = 9
	back, err := ParseFixedBytes(fx.String())
	if err != nil {
		t.Fatalf("ParseFixedBytes: %v", err)
	}
	if back != fx {
		t.Fatalf("round trip lost bytes")
	}
	// "AQI=" decodes to 2 bytes.
	if _, err := ParseFixedBytes("AQI="); err == nil {
		t.Fatalf("expected error for wrong length")
	} else if RuleID(err) != "CV-DES-002" {
		t.Fatalf("RuleID = %q", RuleID(err))
	}
}
