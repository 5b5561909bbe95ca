package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"hash/crc32"
)

// MACSize is the length of the truncated HMAC-SHA1 authentication code.
const MACSize = 10

// MAC computes HMAC-SHA1 over data and returns its first 10 bytes.
func MAC(key, data []byte) []byte {
	h := hmac.New(sha1.New, key)
	h.Write(data)
	return h.Sum(nil)[:MACSize]
}

// CheckMAC reports whether tag authenticates data under key.
func CheckMAC(key, data, tag []byte) bool {
	return hmac.Equal(MAC(key, data), tag)
}

// Checksum returns the ZIP CRC-32 (IEEE) of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
