package crypto

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

// referenceKeystream builds the keystream one block at a time with a
// byte-wise little-endian increment, the way WinZip describes it.
func referenceKeystream(t *testing.T, key []byte, n int) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	var ctr [aes.BlockSize]byte
	out := make([]byte, 0, n+aes.BlockSize)
	ks := make([]byte, aes.BlockSize)
	for len(out) < n {
		for i := range ctr {
			ctr[i]++
			if ctr[i] != 0 {
				break
			}
		}
		block.Encrypt(ks, ctr[:])
		out = append(out, ks...)
	}
	return out[:n]
}

func TestCryptMatchesReference(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 31, 32, 4097, 256 * 16} {
		src := bytes.Repeat([]byte{0}, n)
		dst := make([]byte, n)
		require.NoError(t, Crypt(testKey, dst, src))
		assert.Equal(t, referenceKeystream(t, testKey, n), dst, "length %d", n)
	}
}

func TestCryptFirstBlockUsesCounterOne(t *testing.T) {
	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)
	one := make([]byte, aes.BlockSize)
	one[0] = 1
	want := make([]byte, aes.BlockSize)
	block.Encrypt(want, one)

	got := make([]byte, aes.BlockSize)
	require.NoError(t, Crypt(testKey, got, make([]byte, aes.BlockSize)))
	assert.Equal(t, want, got)
}

func TestCryptIsInvolution(t *testing.T) {
	plain := []byte("hello, world: not a multiple of sixteen")
	ct := make([]byte, len(plain))
	require.NoError(t, Crypt(testKey, ct, plain))
	assert.NotEqual(t, plain, ct)

	back := make([]byte, len(ct))
	require.NoError(t, Crypt(testKey, back, ct))
	assert.Equal(t, plain, back)
}

func TestCryptInPlace(t *testing.T) {
	buf := []byte("in place transform")
	want := make([]byte, len(buf))
	require.NoError(t, Crypt(testKey, want, buf))

	require.NoError(t, Crypt(testKey, buf, buf))
	assert.Equal(t, want, buf)
}

func TestCryptParallelEqualsSerial(t *testing.T) {
	n := 3*parallelThreshold + 7
	src := make([]byte, n)
	for i := range src {
		src[i] = byte(i * 31)
	}

	parallel := make([]byte, n)
	require.NoError(t, Crypt(testKey, parallel, src))

	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)
	serial := make([]byte, n)
	xorBlocks(block, serial, src, 0)

	assert.Equal(t, serial, parallel)
}

func TestCryptErrors(t *testing.T) {
	assert.Error(t, Crypt(testKey, make([]byte, 1), make([]byte, 2)))
	assert.Error(t, Crypt([]byte("short"), make([]byte, 2), make([]byte, 2)))
}
