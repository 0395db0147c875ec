// Package codec serializes Value trees to the two canonical wire forms and
// reconstructs trees from either form without a target type.
//
// The text form is a JSON document; the binary form is deterministic CBOR.
// In both forms map entries are emitted in canonical order: ascending key
// byte-length, then lexicographic byte order. The order is recomputed on
// every encode, so two independent producers of the same tree always emit
// identical bytes. The binary form is the one that gets hashed and signed.
//
// Generic decoding is deliberately lossy about wrapper kinds: byte strings
// decode to Bytes, never to Identifier or FixedBytes, and version tags come
// back as plain integers. Those kinds are only recovered by typed decoding
// (see the document package). Integers decode as Integer whenever they fit
// an int64; UInteger is reserved for the range only a uint64 can hold.
package codec
