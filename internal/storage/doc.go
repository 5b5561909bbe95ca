// Package storage provides the BBolt document catalog for cryptopad.
//
// The catalog lives in the workspace root and uses two buckets:
//   - config: schema version and created/modified timestamps
//   - index: one DocumentEntry per document, keyed by its relative path
//
// Nothing in the catalog is secret. Document contents stay in the documents
// themselves, either as plain files or as encrypted containers; the catalog
// only lets status and info answer without a password and gives each
// document a stable ID for the keyring.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
