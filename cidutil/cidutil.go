// Package cidutil derives content identifiers from canonical wire bytes.
//
// Callers are responsible for supplying canonical bytes (the binary wire
// form); deriving an identifier from non-canonical bytes breaks the
// one-document-one-identifier property.
package cidutil

import (
	"crypto/sha256"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/canonval/value"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// DeriveIdentifier returns the sha2-256 digest of canonical bytes as a
// 32-byte Identifier, for records whose primary id is content-derived.
func DeriveIdentifier(data []byte) value.Identifier {
	return value.Identifier(sha256.Sum256(data))
}
