package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-password"

func seal(t *testing.T, plaintext string, opts ...Option) []byte {
	t.Helper()
	c, err := Seal([]byte(plaintext), []byte(testPassword), opts...)
	require.NoError(t, err)
	return c
}

func TestExampleRoundTrip(t *testing.T) {
	c := seal(t, "hello, world")

	got, err := Open(c, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(got))

	got, err = Open(c, []byte("wrong-password"))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, Status(err) == CodeBadPassword || Status(err) == CodeAuthentication, "got %v", err)
}

func TestRoundTripLengths(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 32, 1000, 70000} {
		plaintext := make([]byte, n)
		for i := range plaintext {
			plaintext[i] = byte(i % 251)
		}
		c, err := Seal(plaintext, []byte("pass"))
		require.NoError(t, err, "length %d", n)

		got, err := Open(c, []byte("pass"))
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, plaintext, got, "length %d", n)
	}
}

func TestRoundTripIncompressible(t *testing.T) {
	plaintext, err := crypto.GenerateRandom(parallelPayload)
	require.NoError(t, err)

	c, err := Seal(plaintext, []byte("pass"))
	require.NoError(t, err)
	got, err := Open(c, []byte("pass"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plaintext, got))
}

// large enough for the parallel keystream path
const parallelPayload = 600 << 10

func TestSizingProtocol(t *testing.T) {
	plaintext := []byte(strings.Repeat("sizing protocol ", 50))

	n1, err := Write(nil, plaintext, nil)
	require.NoError(t, err, "size query needs no password")
	n2, err := Write(nil, plaintext, []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, n1, n2)

	dst := make([]byte, n1)
	n, err := Write(dst, plaintext, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, n1, n)

	r1, err := Read(nil, dst, nil)
	require.NoError(t, err)
	r2, err := Read(nil, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Equal(t, len(plaintext), r1)

	out := make([]byte, r1+10)
	m, err := Read(out, dst, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, plaintext, out[:m])
}

func TestWriteLargerBufferReportsUsedBytes(t *testing.T) {
	size, err := Write(nil, []byte("abc"), nil)
	require.NoError(t, err)

	dst := make([]byte, size+100)
	n, err := Write(dst, []byte("abc"), []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, size, n)

	got, err := Open(dst[:n], []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestCallerContractErrors(t *testing.T) {
	plaintext := []byte("payload")
	size, err := Write(nil, plaintext, nil)
	require.NoError(t, err)

	_, err = Write(make([]byte, size-1), plaintext, []byte("pw"))
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = Write(make([]byte, size), plaintext, nil)
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = Seal(plaintext, nil)
	assert.ErrorIs(t, err, ErrNoPassword)

	c := seal(t, "payload")
	_, err = Read(make([]byte, 3), c, []byte(testPassword))
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = Read(make([]byte, 7), c, nil)
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = Read(nil, nil, []byte("pw"))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = Write(nil, plaintext, nil, WithVersion(3))
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestTamperedCiphertextFailsAuthentication(t *testing.T) {
	c := seal(t, strings.Repeat("tamper evident ", 20))
	h, err := Inspect(c)
	require.NoError(t, err)
	_, _, ctOff, macOff := h.payloadOffsets()

	for off := ctOff; off < macOff; off++ {
		for bit := 0; bit < 8; bit += 3 {
			bad := bytes.Clone(c)
			bad[off] ^= 1 << bit
			got, err := Open(bad, []byte(testPassword))
			require.ErrorIs(t, err, ErrAuthentication, "offset %d bit %d", off, bit)
			require.Nil(t, got)
		}
	}
}

func TestTamperedMACFailsAuthentication(t *testing.T) {
	c := seal(t, "short")
	h, err := Inspect(c)
	require.NoError(t, err)
	_, _, _, macOff := h.payloadOffsets()

	c[macOff+macSize-1] ^= 0x80
	_, err = Open(c, []byte(testPassword))
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestWrongPasswordNeverReturnsData(t *testing.T) {
	c := seal(t, "secret text")
	for _, pw := range []string{"wrong-password", "correct-passwore", "x", "correct-password "} {
		got, err := Open(c, []byte(pw))
		require.Error(t, err, pw)
		assert.Nil(t, got)
		assert.Contains(t, []Code{CodeBadPassword, CodeAuthentication}, Status(err))
	}
}

func TestStrengths(t *testing.T) {
	for _, s := range []crypto.Strength{crypto.AES128, crypto.AES192, crypto.AES256} {
		t.Run(s.String(), func(t *testing.T) {
			c := seal(t, "strength "+s.String(), withStrength(s))

			h, err := Inspect(c)
			require.NoError(t, err)
			assert.Equal(t, s, h.Strength)
			assert.Equal(t, len(c), h.Size)
			assert.Equal(t, Size(h.CiphertextSize(), s), len(c))

			got, err := Open(c, []byte(testPassword))
			require.NoError(t, err)
			assert.Equal(t, "strength "+s.String(), string(got))

			_, err = Open(c, []byte("nope"))
			assert.Error(t, err)
		})
	}
}

func TestDefaultStrengthIs256(t *testing.T) {
	c := seal(t, "default")
	h, err := Inspect(c)
	require.NoError(t, err)
	assert.Equal(t, crypto.AES256, h.Strength)
	assert.Equal(t, 16+verifierSize+h.CiphertextSize()+macSize, int(h.CompressedSize))
}

func TestFreshSaltPerWrite(t *testing.T) {
	a := seal(t, "same input")
	b := seal(t, "same input")
	assert.Equal(t, len(a), len(b))
	assert.NotEqual(t, a, b)
}

func TestCRCMismatchIsIntegrityFailure(t *testing.T) {
	c := seal(t, "crc protected")
	h, err := Inspect(c)
	require.NoError(t, err)

	patchBoth32(c, h, 14, 16, h.CRC32^1)
	_, err = Open(c, []byte(testPassword))
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestAE2SkipsCRC(t *testing.T) {
	c := seal(t, "ae-2 document", WithVersion(AE2))
	h, err := Inspect(c)
	require.NoError(t, err)
	assert.Equal(t, AE2, h.Version)
	assert.Zero(t, h.CRC32)

	got, err := Open(c, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, "ae-2 document", string(got))
}

func TestDeclaredSizeMismatchIsCodecFailure(t *testing.T) {
	c := seal(t, "twelve bytes")
	h, err := Inspect(c)
	require.NoError(t, err)

	longer := bytes.Clone(c)
	patchBoth32(longer, h, 22, 24, h.UncompressedSize+1)
	_, err = Open(longer, []byte(testPassword))
	assert.ErrorIs(t, err, ErrCodec)

	shorter := bytes.Clone(c)
	patchBoth32(shorter, h, 22, 24, h.UncompressedSize-1)
	_, err = Open(shorter, []byte(testPassword))
	assert.ErrorIs(t, err, ErrCodec)
}

func TestVerify(t *testing.T) {
	c := seal(t, "verify me")
	assert.NoError(t, Verify(c, []byte(testPassword)))
	assert.ErrorIs(t, Verify(c, nil), ErrNoPassword)
	assert.Error(t, Verify(c, []byte("other")))
	assert.ErrorIs(t, Verify([]byte("plain text"), []byte("pw")), ErrNotContainer)
}

func TestIsContainer(t *testing.T) {
	assert.True(t, IsContainer(seal(t, "x")))
	assert.False(t, IsContainer([]byte("PK")))
	assert.False(t, IsContainer([]byte("just some text")))
}

func TestStatusMessages(t *testing.T) {
	assert.Equal(t, CodeSuccess, Status(nil))
	assert.Equal(t, CodeUnknown, Status(assert.AnError))
	for _, ce := range codeErrors {
		assert.Equal(t, ce.code, Status(ce.err))
		assert.NotEmpty(t, ce.code.String())
		assert.NotContains(t, ce.code.String(), "unknown")
	}
	assert.Equal(t, CodeNoPassword, Code(13))
	assert.Equal(t, CodeNotContainer, Code(9))
	assert.True(t, IsPasswordError(ErrNoPassword))
	assert.False(t, IsPasswordError(ErrAuthentication))
}

// patchBoth32 overwrites a uint32 field in the local header (at localOff) and
// in the central header (at centralOff from its start).
func patchBoth32(c []byte, h *Header, localOff, centralOff int, v uint32) {
	central := headerLen + int(h.CompressedSize)
	binary.LittleEndian.PutUint32(c[localOff:], v)
	binary.LittleEndian.PutUint32(c[central+centralOff:], v)
}

func TestSizingProtocolEmptyDestination(t *testing.T) {
	plaintext := []byte("hello, world")
	size, err := Write(nil, plaintext, nil)
	require.NoError(t, err)

	n, err := Write([]byte{}, plaintext, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, size, n)

	n, err = Write([]byte{}, plaintext, nil)
	require.NoError(t, err, "size query needs no password")
	assert.Equal(t, size, n)

	c := seal(t, "hello, world")
	n, err = Read([]byte{}, c, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, len(plaintext), n)

	n, err = Read([]byte{}, c, nil)
	require.NoError(t, err)
	assert.Equal(t, len(plaintext), n)
}

func TestEmptyDocumentIsAuthenticated(t *testing.T) {
	c := seal(t, "")

	got, err := Open(c, []byte(testPassword))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Open(c, []byte("wrong-password"))
	assert.True(t, IsPasswordError(err) || errors.Is(err, ErrAuthentication), "got %v", err)

	_, err = Open(c, nil)
	assert.ErrorIs(t, err, ErrNoPassword)
}

// withComments inserts a file comment into the central header and an
// archive comment after the end record, as other ZIP writers may.
func withComments(t *testing.T, c []byte, fileComment, archiveComment string) []byte {
	t.Helper()
	h, err := Inspect(c)
	require.NoError(t, err)

	central := headerLen + int(h.CompressedSize)
	dirLen := centralHeaderLen + len(entryName) + aesExtraLen
	end := central + dirLen

	out := make([]byte, 0, len(c)+len(fileComment)+len(archiveComment))
	out = append(out, c[:end]...)
	out = append(out, fileComment...)
	out = append(out, c[end:]...)
	out = append(out, archiveComment...)

	binary.LittleEndian.PutUint16(out[central+32:], uint16(len(fileComment)))
	eocd := end + len(fileComment)
	binary.LittleEndian.PutUint32(out[eocd+12:], uint32(dirLen+len(fileComment)))
	binary.LittleEndian.PutUint16(out[eocd+20:], uint16(len(archiveComment)))
	return out
}

func TestCommentsAreSkipped(t *testing.T) {
	c := withComments(t, seal(t, "commented"), "a file comment", "an archive comment")

	h, err := Inspect(c)
	require.NoError(t, err)
	assert.Equal(t, len(c), h.Size)

	got, err := Open(c, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, "commented", string(got))
}

func TestImplausibleDeclaredSizeIsRejected(t *testing.T) {
	c := seal(t, "tiny")
	h, err := Inspect(c)
	require.NoError(t, err)

	patchBoth32(c, h, 22, 24, 0xFFFFFFFF)
	_, err = Inspect(c)
	assert.ErrorIs(t, err, ErrNotContainer)
	_, err = Open(c, []byte(testPassword))
	assert.ErrorIs(t, err, ErrNotContainer)
	_, err = Read(nil, c, nil)
	assert.ErrorIs(t, err, ErrNotContainer)
}
