package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DocumentEntry is the catalog record for one document. It holds nothing
// secret: only what status and info need without a password.
type DocumentEntry struct {
	ID            string    `json:"id"`   // stable key for the keyring entry
	Path          string    `json:"path"` // workspace-relative, forward slashes
	Size          int64     `json:"size"` // plaintext bytes
	ContainerSize int64     `json:"containerSize,omitempty"`
	Strength      int       `json:"strength,omitempty"`  // AES key bits
	AEVersion     int       `json:"aeVersion,omitempty"` // 1 or 2
	CRC32         uint32    `json:"crc32,omitempty"`
	Locked        bool      `json:"locked"` // file on disk is a container
	Sealed        time.Time `json:"sealed,omitzero"`
}

// NewDocumentID returns a random 128-bit hex identifier.
func NewDocumentID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate document ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MarkLocked records that the file now holds a container.
func (e *DocumentEntry) MarkLocked(containerSize int64, strength, aeVersion int, crc uint32, sealed time.Time) {
	e.Locked = true
	e.ContainerSize = containerSize
	e.Strength = strength
	e.AEVersion = aeVersion
	e.CRC32 = crc
	e.Sealed = sealed
}

// MarkUnlocked records that the file now holds plaintext. The last sealed
// parameters are kept for reference.
func (e *DocumentEntry) MarkUnlocked(size int64) {
	e.Locked = false
	e.Size = size
}

// State is the short label shown by status.
func (e *DocumentEntry) State() string {
	if e.Locked {
		return "locked"
	}
	return "unlocked"
}
