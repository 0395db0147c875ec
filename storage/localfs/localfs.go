// Package localfs stores canonical document bytes as immutable read-only
// files under a sharded directory tree.
//
// The layout is <root>/<cid[:2]>/<cid>. Objects are written once with O_EXCL
// and mode 0444; a Put that lands on an existing path verifies the stored
// bytes instead of overwriting them, and a Get re-derives the CID so that
// out-of-band corruption surfaces as ErrCIDMismatch rather than as silently
// wrong document bytes. The store never uses the network and never depends
// on wall-clock time.
package localfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/canonval/cidutil"
	"xdao.co/canonval/storage"
)

type Store struct {
	root string
}

// New opens (creating if needed) a store rooted at root.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}

	path := s.objectPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			return s.verifyExisting(id, data)
		}
		return cid.Undef, err
	}

	if _, err := f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

// verifyExisting resolves a Put collision: the same bytes make the Put an
// idempotent no-op, anything else is an immutability violation.
func (s *Store) verifyExisting(id cid.Cid, data []byte) (cid.Cid, error) {
	existing, err := s.Get(id)
	if err != nil {
		return cid.Undef, storage.ErrImmutable
	}
	if !bytes.Equal(existing, data) {
		return cid.Undef, storage.ErrImmutable
	}
	return id, nil
}

func (s *Store) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	data, err := os.ReadFile(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrCIDMismatch
	}
	return data, nil
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(s.objectPath(id))
	return err == nil
}

func (s *Store) objectPath(id cid.Cid) string {
	name := id.String()
	if len(name) < 2 {
		return filepath.Join(s.root, name)
	}
	return filepath.Join(s.root, name[:2], name)
}
