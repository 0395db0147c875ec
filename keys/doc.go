// Package keys provides signing helpers for canonical document bytes.
//
// Stable:
//   - Pure, deterministic primitives: digest selection, signatures over
//     canonical bytes, signer-key formatting, role-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions). These
//     are local-first utilities, not part of the long-term contract.
package keys
