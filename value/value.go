// Package value implements the dynamic Value tree at the center of the
// canonical codec: a tagged union covering scalars, domain wrapper scalars
// (Identifier, Bytes, FixedBytes, Version), arrays, and string-keyed maps.
//
// A Value tree is constructed either by a Builder (from a typed record) or by
// the generic decoder in the codec package (from wire bytes). Sub-trees are
// exclusively owned by their parent container; Builder and decoder always
// allocate fresh trees.
package value

import (
	"bytes"
	"fmt"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindString
	KindInteger
	KindUInteger
	KindFloat
	KindVersion
	KindBytes
	KindFixedBytes
	KindIdentifier
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindUInteger:
		return "uinteger"
	case KindFloat:
		return "float"
	case KindVersion:
		return "version"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "fixedbytes"
	case KindIdentifier:
		return "identifier"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a dynamic tagged-union tree node. The zero Value is Null.
//
// Maps carry no key ordering; the canonical order is imposed at encode time
// by the codec package.
type Value struct {
	kind Kind

	b  bool
	i  int64
	u  uint64 // UInteger and Version
	f  float64
	s  string
	by Bytes
	fx FixedBytes
	id Identifier

	arr []Value
	m   map[string]Value
}

// Constructors

// Null returns the absent-data value.
func Null() Value { return Value{kind: KindNull} }

func NewBool(v bool) Value      { return Value{kind: KindBool, b: v} }
func NewString(v string) Value  { return Value{kind: KindString, s: v} }
func NewInteger(v int64) Value  { return Value{kind: KindInteger, i: v} }
func NewUInteger(v uint64) Value { return Value{kind: KindUInteger, u: v} }
func NewFloat(v float64) Value  { return Value{kind: KindFloat, f: v} }

// NewVersion returns a Version leaf. Semantically an unsigned integer, but
// filterable by Builder.SkipVersion and therefore a distinct kind.
func NewVersion(v Version) Value { return Value{kind: KindVersion, u: uint64(v)} }

// NewBytes returns a variable-length byte leaf. The input is copied so the
// tree exclusively owns its data.
func NewBytes(v []byte) Value {
	return Value{kind: KindBytes, by: append(Bytes(nil), v...)}
}

func NewFixedBytes(v FixedBytes) Value { return Value{kind: KindFixedBytes, fx: v} }
func NewIdentifier(v Identifier) Value { return Value{kind: KindIdentifier, id: v} }

// NewArray returns an Array over the given elements.
func NewArray(elems ...Value) Value {
	return Value{kind: KindArray, arr: elems}
}

// NewMap returns a Map over the given entries. A nil map is treated as empty.
func NewMap(entries map[string]Value) Value {
	if entries == nil {
		entries = make(map[string]Value)
	}
	return Value{kind: KindMap, m: entries}
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Scalar accessors. Each panics when the value holds a different variant;
// use these only on paths where the kind is already known. Untrusted paths
// should switch on Kind first or use Get/Index.

func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.b
}

func (v Value) Int() int64 {
	v.mustBe(KindInteger)
	return v.i
}

func (v Value) Uint() uint64 {
	v.mustBe(KindUInteger)
	return v.u
}

func (v Value) Float() float64 {
	v.mustBe(KindFloat)
	return v.f
}

func (v Value) Str() string {
	v.mustBe(KindString)
	return v.s
}

func (v Value) VersionTag() Version {
	v.mustBe(KindVersion)
	return Version(v.u)
}

func (v Value) ByteSlice() Bytes {
	v.mustBe(KindBytes)
	return v.by
}

func (v Value) Fixed() FixedBytes {
	v.mustBe(KindFixedBytes)
	return v.fx
}

func (v Value) ID() Identifier {
	v.mustBe(KindIdentifier)
	return v.id
}

// Elems returns the backing slice of an Array.
func (v Value) Elems() []Value {
	v.mustBe(KindArray)
	return v.arr
}

// Entries returns the backing map of a Map.
func (v Value) Entries() map[string]Value {
	v.mustBe(KindMap)
	return v.m
}

// Len returns the element count of an Array or entry count of a Map, and 0
// for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// At returns the i-th element of an Array. It panics when the value is not
// an Array or the index is out of range.
func (v Value) At(i int) Value {
	v.mustBe(KindArray)
	return v.arr[i]
}

// Key returns the entry for key k of a Map. It panics when the value is not
// a Map or the key is absent.
func (v Value) Key(k string) Value {
	v.mustBe(KindMap)
	e, ok := v.m[k]
	if !ok {
		panic(fmt.Sprintf("value: map has no key %q", k))
	}
	return e
}

// Get is the option-returning counterpart of Key for untrusted access paths.
// It returns false when the value is not a Map or the key is absent.
func (v Value) Get(k string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.m[k]
	return e, ok
}

// Index is the option-returning counterpart of At.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Set replaces or inserts the entry for key k of a Map. It panics when the
// value is not a Map.
func (v Value) Set(k string, e Value) {
	v.mustBe(KindMap)
	v.m[k] = e
}

// Delete removes the entry for key k of a Map. It panics when the value is
// not a Map.
func (v Value) Delete(k string) {
	v.mustBe(KindMap)
	delete(v.m, k)
}

// SetIndex replaces the i-th element of an Array. It panics when the value
// is not an Array or the index is out of range.
func (v Value) SetIndex(i int, e Value) {
	v.mustBe(KindArray)
	v.arr[i] = e
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: expected %s, got %s", k, v.kind))
	}
}

// Equal reports deep semantic equality. Map comparison is key-set based and
// therefore independent of any insertion order. There is no coercion between
// numeric kinds: Integer(1) is not equal to UInteger(1).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindInteger:
		return v.i == o.i
	case KindUInteger, KindVersion:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f
	case KindBytes:
		return bytes.Equal(v.by, o.by)
	case KindFixedBytes:
		return v.fx == o.fx
	case KindIdentifier:
		return v.id == o.id
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy; the result shares no backing storage with the
// receiver.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		c := v
		c.by = append(Bytes(nil), v.by...)
		return c
	case KindArray:
		c := v
		c.arr = make([]Value, len(v.arr))
		for i := range v.arr {
			c.arr[i] = v.arr[i].Clone()
		}
		return c
	case KindMap:
		c := v
		c.m = make(map[string]Value, len(v.m))
		for k, e := range v.m {
			c.m[k] = e.Clone()
		}
		return c
	default:
		return v
	}
}

func (v Value) isContainer() bool {
	return v.kind == KindArray || v.kind == KindMap
}

func (v Value) isByteLeaf() bool {
	return v.kind == KindBytes || v.kind == KindFixedBytes || v.kind == KindIdentifier
}

// BytesAsArrays returns a copy of the tree in which every Bytes, FixedBytes,
// and Identifier leaf is replaced by an Array of UInteger byte values
// (0-255). All other leaves are left untouched, so the transform is a no-op
// on trees without byte-ish leaves.
//
// The traversal runs over an explicit work-list rather than the call stack,
// so tree depth is bounded only by memory. Work-list order is unspecified;
// the transform is leaf-local, so order cannot be observed.
func (v Value) BytesAsArrays() Value {
	root := v.Clone()
	if root.isByteLeaf() {
		return byteLeafToArray(root)
	}
	if !root.isContainer() {
		return root
	}

	// Container copies pushed here share backing storage with root, so leaf
	// replacements below remain visible through root.
	work := []Value{root}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		switch cur.kind {
		case KindArray:
			for i, el := range cur.arr {
				if el.isContainer() {
					work = append(work, el)
					continue
				}
				if el.isByteLeaf() {
					cur.arr[i] = byteLeafToArray(el)
				}
			}
		case KindMap:
			for k, el := range cur.m {
				if el.isContainer() {
					work = append(work, el)
					continue
				}
				if el.isByteLeaf() {
					cur.m[k] = byteLeafToArray(el)
				}
			}
		}
	}
	return root
}

func byteLeafToArray(v Value) Value {
	var raw []byte
	switch v.kind {
	case KindBytes:
		raw = v.by
	case KindFixedBytes:
		raw = v.fx[:]
	case KindIdentifier:
		raw = v.id[:]
	default:
		return v
	}
	elems := make([]Value, len(raw))
	for i, b := range raw {
		elems[i] = NewUInteger(uint64(b))
	}
	return NewArray(elems...)
}
