// Package keyring caches document passwords in the OS keyring, one entry
// per document ID.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "cryptopad"

// ErrNotFound is returned when no password is stored for a document.
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password in the OS keyring
func SavePassword(docID string, password string) error {
	return keyring.Set(serviceName, docID, password)
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(docID string) (string, error) {
	return keyring.Get(serviceName, docID)
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(docID string) error {
	return keyring.Delete(serviceName, docID)
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(docID string) bool {
	_, err := keyring.Get(serviceName, docID)
	return err == nil
}

// Forget removes a stored password, treating a missing entry as success.
func Forget(docID string) error {
	err := keyring.Delete(serviceName, docID)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// UseMemory replaces the OS keyring with an in-process store. Tests use it
// to avoid touching the real keyring.
func UseMemory() {
	keyring.MockInit()
}
