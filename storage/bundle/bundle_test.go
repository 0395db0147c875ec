package bundle_test

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/canonval/cidutil"
	"xdao.co/canonval/document"
	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/bundle"
	"xdao.co/canonval/storage/localfs"
	"xdao.co/canonval/storage/memcas"
	"xdao.co/canonval/value"
)

func storeDocument(t *testing.T, ar *storage.Archive, docType, body string) (*document.Document, cid.Cid) {
	t.Helper()
	d := document.New(docType)
	d.Data.Set("body", value.NewString(body))
	id, err := ar.PutDocument(d)
	if err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	return d, id
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	cas := memcas.New()
	ar := storage.NewArchive(cas)

	_, id1 := storeDocument(t, ar, "note", "first")
	_, id2 := storeDocument(t, ar, "note", "second")

	var outA bytes.Buffer
	if err := bundle.Export(&outA, cas, []cid.Cid{id2, id1}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := bundle.Export(&outB, cas, []cid.Cid{id1, id2}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected identical bundle bytes regardless of id order")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := memcas.New()
	d, id := storeDocument(t, storage.NewArchive(src), "note", "travels by bundle")

	var buf bytes.Buffer
	if err := bundle.Export(&buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	dst, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := bundle.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatal(err)
	}

	got, err := storage.NewArchive(dst).GetDocument(id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d) {
		t.Fatalf("imported document differs from exported one")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	d := document.New("note")
	d.Data.Set("body", value.NewString("genuine"))
	data, err := d.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	otherCID, err := cidutil.CIDv1RawSHA256CID([]byte("something else"))
	if err != nil {
		t.Fatal(err)
	}

	// Entry path claims otherCID but carries the document's bytes.
	bundleBytes := makeDeterministicTar(t, "blocks/"+otherCID.String(), data)

	if err := bundle.Import(bytes.NewReader(bundleBytes), memcas.New()); err != storage.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
