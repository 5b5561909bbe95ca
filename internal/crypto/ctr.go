package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
)

const (
	// parallelThreshold is the payload size above which keystream blocks are
	// generated by several goroutines.
	parallelThreshold = 256 << 10
	chunkSize         = 64 << 10 // multiple of aes.BlockSize
)

// Crypt encrypts or decrypts src into dst with AES in WinZip counter mode.
// The operation is its own inverse. dst must be at least len(src) bytes and
// may alias src exactly.
//
// Block i of the payload is XORed with AES(counter i+1), the counter being
// serialized little-endian. Every keystream block depends only on its index,
// so chunks are processed independently and the output never depends on
// scheduling.
func Crypt(key, dst, src []byte) error {
	if len(dst) < len(src) {
		return fmt.Errorf("output buffer too small: %d < %d", len(dst), len(src))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(src) < parallelThreshold {
		xorBlocks(block, dst, src, 0)
		return nil
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for off := 0; off < len(src); off += chunkSize {
		end := min(off+chunkSize, len(src))
		wg.Add(1)
		sem <- struct{}{}
		go func(off, end int) {
			defer wg.Done()
			defer func() { <-sem }()
			xorBlocks(block, dst[off:end], src[off:end], uint64(off/aes.BlockSize))
		}(off, end)
	}
	wg.Wait()

	return nil
}

// xorBlocks handles a run of blocks starting at block index first. The last
// block may be partial; only its remaining bytes are consumed.
func xorBlocks(block cipher.Block, dst, src []byte, first uint64) {
	var ctr, ks [aes.BlockSize]byte
	idx := first
	for off := 0; off < len(src); off += aes.BlockSize {
		idx++
		binary.LittleEndian.PutUint64(ctr[:8], idx)
		block.Encrypt(ks[:], ctr[:])
		end := min(off+aes.BlockSize, len(src))
		subtle.XORBytes(dst[off:end], src[off:end], ks[:end-off])
	}
	ClearBytes(ks[:])
}
