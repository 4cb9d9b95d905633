// Package keys provides the signing primitives used by ledger transactions.
//
// Stable:
//   - PublicKey, Signature and KeyPair: fixed-size Ed25519 values with value
//     equality and a zero default.
//   - Deterministic role-seed derivation and the "ed25519:<base64>" text form.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first utility
//     for the CLI and is not part of the transaction protocol.
package keys
