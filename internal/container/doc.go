// Package container reads and writes cryptopad documents: single-entry ZIP
// archives holding one Deflate-compressed, WinZip AES encrypted member
// named "data".
//
// Layout (all integers little-endian):
//
//	local header (30) | "data" | AES extra field (11)
//	salt (8/12/16) | verifier (2) | ciphertext | MAC (10)
//	central header (46) | "data" | AES extra field (11)
//	end of central directory (22)
//
// Write and Read follow a two-phase protocol: called with a nil destination
// they only report the number of bytes the real call needs, without any
// cryptographic work. Seal and Open wrap both phases and return an owned
// buffer.
//
// Read checks, in order: structure, password verifier, MAC over the
// ciphertext, and (AE-1 only) CRC-32 over the recovered plaintext. The
// verifier is a 16-bit hint, so a wrong password can surface as
// ErrAuthentication rather than ErrBadPassword.
package container
