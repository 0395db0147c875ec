// Command vectorgen prints conformance vectors for the canonical wire forms:
// for each sample document it emits the canonical JSON, the hex of the
// canonical binary bytes, and the CID. The output is pasted into the codec
// and document conformance tests.
package main

import (
	"encoding/hex"
	"fmt"

	"xdao.co/canonval/document"
	"xdao.co/canonval/value"
)

func sampleDocuments() map[string]*document.Document {
	var id value.Identifier
	for i := range id {
		id[i] = 0x0B
	}

	minimal := document.New("note")

	typical := document.New("profile")
	typical.ID = id
	typical.OwnerID = id
	typical.Revision = 1
	typical.Data.Set("a", value.NewInteger(1))
	typical.Data.Set("bb", value.NewString("x"))

	nested := document.New("record")
	nested.ID = id
	nested.Data.Set("items", value.NewArray(
		value.NewInteger(-1),
		value.NewFloat(0.5),
		value.NewBytes([]byte{1, 2, 3}),
	))
	nested.Data.Set("meta", value.NewMap(map[string]value.Value{
		"ok":  value.NewBool(true),
		"tag": value.Null(),
	}))

	return map[string]*document.Document{
		"minimal": minimal,
		"typical": typical,
		"nested":  nested,
	}
}

func main() {
	for name, d := range sampleDocuments() {
		text, err := d.ToJSON()
		if err != nil {
			panic(err)
		}
		bin, err := d.ToBytes()
		if err != nil {
			panic(err)
		}
		cid, err := d.CID()
		if err != nil {
			panic(err)
		}
		fmt.Printf("=== %s ===\n", name)
		fmt.Printf("json: %s\n", text)
		fmt.Printf("cbor: %s\n", hex.EncodeToString(bin))
		fmt.Printf("cid:  %s\n", cid)
	}
}
