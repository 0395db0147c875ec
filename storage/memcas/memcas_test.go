package memcas

import (
	"testing"

	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/testkit"
)

func newCAS(t *testing.T) storage.CAS {
	t.Helper()
	return New()
}

func TestMemCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, newCAS)
}

func TestMemCAS_ArchiveConformance(t *testing.T) {
	testkit.RunArchiveConformance(t, newCAS)
}

func TestMemCAS_GetReturnsCopy(t *testing.T) {
	cas := New()
	id, err := cas.Put([]byte("immutable"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got[0] = 'X'

	again, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(again) != "immutable" {
		t.Fatalf("stored object was mutated through a returned slice")
	}
}
