package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS reads through an ordered list of backends and writes only to the
// first. Slice order is the fallback order; callers supply it explicitly so
// retrieval never depends on map-iteration nondeterminism.
//
// Because objects are keyed by the CID of their canonical bytes, a document
// found in any backend is the document that was asked for; later backends
// are only consulted when earlier ones report ErrNotFound.
type MultiCAS struct {
	Adapters []CAS
}

func (m MultiCAS) Put(data []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no adapters")
	}
	return m.Adapters[0].Put(data)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range m.Adapters {
		data, err := cas.Get(id)
		if err == nil {
			return data, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, cas := range m.Adapters {
		if cas.Has(id) {
			return true
		}
	}
	return false
}
