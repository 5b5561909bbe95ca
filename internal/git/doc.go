// Package git provides git exposure checks for cryptopad documents.
//
// Checks performed:
//   - Whether unlocked (plaintext) documents are tracked by git (should not be)
//   - Whether unlocked documents are in .gitignore (should be)
//   - Whether locked documents and the catalog are tracked (informational)
//
// These checks help users avoid committing a document while it is decrypted.
package git
