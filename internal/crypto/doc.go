// Package crypto provides the cryptographic primitives of the WinZip AE-x
// encryption scheme used by cryptopad documents.
//
// Key derivation uses PBKDF2-HMAC-SHA1 with:
//   - an 8, 12 or 16 byte random salt selecting AES-128, AES-192 or AES-256
//   - 1000 iterations
//   - one output buffer split as [AES key | MAC key | 2-byte verifier]
//
// Encryption is AES in counter mode with a little-endian 128-bit counter
// whose first keystream block is counter value 1. There is no IV; a fresh
// salt per encryption is what keeps keystreams from repeating.
//
// Authentication is HMAC-SHA1 over the ciphertext truncated to 10 bytes.
// The 2-byte verifier only rejects most wrong passwords early; the MAC is
// the authoritative check.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Keys.Destroy() once derived keys are no longer needed
package crypto
