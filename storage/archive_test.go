package storage_test

import (
	"testing"

	"xdao.co/canonval/document"
	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/memcas"
	"xdao.co/canonval/value"
)

func TestArchive_RoundTrip(t *testing.T) {
	arch := storage.NewArchive(memcas.New())

	d := document.New("note")
	d.Revision = 2
	d.Data.Set("title", value.NewString("meeting notes"))
	d.Data.Set("tags", value.NewArray(value.NewString("work"), value.NewString("q3")))

	id, err := arch.PutDocument(d)
	if err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	wantCID, err := d.CID()
	if err != nil {
		t.Fatalf("CID: %v", err)
	}
	if id.String() != wantCID {
		t.Fatalf("archive CID %s does not match document CID %s", id, wantCID)
	}
	if !arch.HasDocument(id) {
		t.Fatalf("HasDocument: expected true after put")
	}

	got, err := arch.GetDocument(id)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("document changed across the archive round trip")
	}
}

func TestArchive_PutIsIdempotentAcrossKeyOrder(t *testing.T) {
	arch := storage.NewArchive(memcas.New())

	a := document.New("note")
	a.Data.Set("x", value.NewInteger(1))
	a.Data.Set("longerKey", value.NewBool(true))

	b := document.New("note")
	b.Data.Set("longerKey", value.NewBool(true))
	b.Data.Set("x", value.NewInteger(1))

	idA, err := arch.PutDocument(a)
	if err != nil {
		t.Fatalf("PutDocument(a): %v", err)
	}
	idB, err := arch.PutDocument(b)
	if err != nil {
		t.Fatalf("PutDocument(b): %v", err)
	}
	if idA != idB {
		t.Fatalf("insertion order changed the stored CID: %s vs %s", idA, idB)
	}
}
