// Package testkit holds conformance suites shared by every CAS backend.
//
// The fixtures are canonical document bytes, not arbitrary blobs: a backend
// that passes here is known to preserve the bytes that CIDs and signatures
// are derived from.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/canonval/cidutil"
	"xdao.co/canonval/document"
	"xdao.co/canonval/storage"
	"xdao.co/canonval/value"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// docBytes returns the canonical binary form of a small document whose
// payload distinguishes the fixture.
func docBytes(t *testing.T, label string) []byte {
	t.Helper()
	d := document.New("fixture")
	d.Data.Set("label", value.NewString(label))
	b, err := d.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes failed: %v", err)
	}
	return b
}

// RunCASConformance runs the byte-level contract every backend must meet:
// CIDs derived from the stored bytes, idempotent writes, ErrNotFound on
// absent CIDs.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := docBytes(t, "round-trip")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		gotID, err := cidutil.CIDv1RawSHA256CID(got)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID(got) failed: %v", err)
		}
		if gotID != id {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := docBytes(t, "idempotent")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := docBytes(t, "absent")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		_, err = cas.Put(b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}

// RunArchiveConformance runs the document-level contract on top of a backend:
// storing a document yields its canonical CID, payload insertion order never
// produces a second object, and loading reconstructs an equal document.
func RunArchiveConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetDocument", func(t *testing.T) {
		ar := storage.NewArchive(newCAS(t))

		d := document.New("profile")
		d.Data.Set("name", value.NewString("alice"))
		d.Data.Set("age", value.NewInteger(30))

		id, err := ar.PutDocument(d)
		if err != nil {
			t.Fatalf("PutDocument failed: %v", err)
		}
		wantCID, err := d.CID()
		if err != nil {
			t.Fatalf("CID failed: %v", err)
		}
		if id.String() != wantCID {
			t.Fatalf("stored CID %s, want %s", id, wantCID)
		}
		if !ar.HasDocument(id) {
			t.Fatalf("HasDocument returned false after PutDocument")
		}

		got, err := ar.GetDocument(id)
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		if !got.Equal(d) {
			t.Fatalf("loaded document differs from stored one")
		}
	})

	t.Run("PayloadOrderOneObject", func(t *testing.T) {
		ar := storage.NewArchive(newCAS(t))

		a := document.New("profile")
		a.Data.Set("x", value.NewInteger(1))
		a.Data.Set("y", value.NewInteger(2))

		b := document.New("profile")
		b.Data.Set("y", value.NewInteger(2))
		b.Data.Set("x", value.NewInteger(1))

		ida, err := ar.PutDocument(a)
		if err != nil {
			t.Fatalf("PutDocument(a) failed: %v", err)
		}
		idb, err := ar.PutDocument(b)
		if err != nil {
			t.Fatalf("PutDocument(b) failed: %v", err)
		}
		if ida != idb {
			t.Fatalf("same logical document stored under two CIDs: %s vs %s", ida, idb)
		}
	})

	t.Run("MissingDocument", func(t *testing.T) {
		ar := storage.NewArchive(newCAS(t))
		id, err := cidutil.CIDv1RawSHA256CID([]byte("never stored"))
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if _, err := ar.GetDocument(id); !storage.IsNotFound(err) {
			t.Fatalf("GetDocument missing: got err=%v want ErrNotFound", err)
		}
	})
}
