package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/canonval/document"
)

// Archive stores documents in a CAS keyed by the CID of their canonical
// binary form. Because the binary form is deterministic, storing the same
// logical document twice always yields the same CID.
type Archive struct {
	CAS CAS
}

func NewArchive(cas CAS) *Archive {
	return &Archive{CAS: cas}
}

// PutDocument encodes d to canonical bytes and stores them.
func (a *Archive) PutDocument(d *document.Document) (cid.Cid, error) {
	b, err := d.ToBytes()
	if err != nil {
		return cid.Undef, err
	}
	return a.CAS.Put(b)
}

// GetDocument loads and decodes the document stored under id.
func (a *Archive) GetDocument(id cid.Cid) (*document.Document, error) {
	b, err := a.CAS.Get(id)
	if err != nil {
		return nil, err
	}
	return document.FromBytes(b)
}

// HasDocument reports whether a document is stored under id.
func (a *Archive) HasDocument(id cid.Cid) bool {
	return a.CAS.Has(id)
}
