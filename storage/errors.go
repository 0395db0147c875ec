package storage

import "errors"

// Sentinel errors shared by every backend. Callers branch on these rather
// than on backend-specific failures.
var (
	// ErrNotFound: no object is stored under the requested CID.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidCID: the CID is undefined or could not be derived.
	ErrInvalidCID = errors.New("storage: invalid cid")
	// ErrCIDMismatch: stored bytes no longer hash to their CID; the object
	// was corrupted or forged after writing.
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	// ErrImmutable: a write would replace an existing object with different
	// bytes, which the canonical-bytes contract forbids.
	ErrImmutable = errors.New("storage: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
