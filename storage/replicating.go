package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/canonval/cidutil"
)

// NamedCAS pairs a backend with a stable alias so multi-backend callers can
// report per-backend outcomes (replication maps, audit output).
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS fans a write out to every backend and requires each one to
// return the CID derived from the canonical bytes; any disagreement is an
// ErrCIDMismatch rather than a partially-diverged archive. Reads fall back
// in backend order.
//
// Use PutAll when the per-backend CID map is needed.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = (*ReplicatingCAS)(nil)

// PutAll writes data to all backends and returns the canonical CID together
// with each backend's reported CID.
func (r ReplicatingCAS) PutAll(data []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingCAS has no backends")
	}

	reported := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(data)
		if err != nil {
			return cid.Undef, nil, err
		}
		reported[b.Name] = got
		if got != want {
			return cid.Undef, reported, ErrCIDMismatch
		}
	}
	return want, reported, nil
}

func (r ReplicatingCAS) Put(data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(data)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		data, err := b.CAS.Get(id)
		if err == nil {
			return data, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}
