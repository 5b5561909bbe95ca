// Package core provides the cryptopad document operations.
//
// A Pad works on one workspace directory. Documents are ordinary files
// that are either plain or WinZip AES containers; the load rule decides
// which by parsing, so no separate metadata is needed to read them.
//
// Core operations include:
//   - Lock/Unlock: Encrypt or decrypt a document in place
//   - Cat/Edit: Read a document, or round-trip it through $EDITOR
//   - ChangePassword: Re-seal a document under a new password
//   - Diff: Compare the decoded contents of two documents
//   - Info/Status: Inspect documents and the catalog without a password
//
// The catalog (.cryptopad, bbolt) remembers documents so status can list
// them and the keyring can key saved passwords by a stable ID. It is never
// needed to decrypt anything.
//
// When a document changes on disk during an edit, the conflict can be
// resolved by keeping mine, using the disk version, editing a merge with
// git-style conflict markers, or keeping both (mine is saved as .mine).
package core
