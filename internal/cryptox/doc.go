// Package cryptox implements the vault's CipherBox and the sources of its key.
//
// A Box seals opaque secret strings with an AEAD (AES-256-GCM or
// XChaCha20-Poly1305) under one process-held key. Every call draws a fresh
// nonce. The serialized form is
//
//	version(1) | algorithm(1) | nonce | ciphertext || tag
//
// and the two header bytes are authenticated as additional data, so a flip of
// any byte makes Decrypt fail with common.ErrDecryption.
//
// Key material comes from a KeySource: an ephemeral per-process key, a key
// file (optionally age-encrypted with a passphrase), or a data key wrapped by
// AWS KMS. The master key is never used directly; DeriveSubkey splits it into
// purpose-bound keys with HKDF.
package cryptox
