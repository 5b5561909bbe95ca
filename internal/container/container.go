package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/illarion/cryptopad/internal/crypto"
)

// options controls how a container is written.
type options struct {
	version  Version
	strength crypto.Strength
	modTime  time.Time
}

// Option configures Write and Seal.
type Option func(*options)

// WithVersion selects AE-1 (default, CRC kept) or AE-2 (CRC zeroed).
func WithVersion(v Version) Option {
	return func(o *options) { o.version = v }
}

// WithModTime stamps the entry's DOS date and time fields.
func WithModTime(t time.Time) Option {
	return func(o *options) { o.modTime = t }
}

// withStrength overrides the key strength. Documents are always written
// with AES-256; smaller strengths exist for reading older files and tests.
func withStrength(s crypto.Strength) Option {
	return func(o *options) { o.strength = s }
}

func newOptions(opts []Option) (options, error) {
	o := options{version: AE1, strength: crypto.AES256}
	for _, opt := range opts {
		opt(&o)
	}
	if o.version != AE1 && o.version != AE2 {
		return o, fmt.Errorf("%w: version %d", ErrInvalidParameters, o.version)
	}
	if !o.strength.Valid() {
		return o, fmt.Errorf("%w: strength %d", ErrInvalidParameters, o.strength)
	}
	return o, nil
}

// IsContainer reports whether src starts with a ZIP local header signature,
// i.e. whether it is worth trying Read on it.
func IsContainer(src []byte) bool {
	return len(src) >= 4 && binary.LittleEndian.Uint32(src) == localHeaderSignature
}

// Size returns the container size for a given compressed length and strength.
func Size(compressedLen int, s crypto.Strength) int {
	return headerLen + s.SaltSize() + verifierSize + compressedLen + macSize + trailerLen
}

// Write compresses, encrypts and packages plaintext into dst.
//
// With an empty dst, Write only compresses and returns the exact number of
// bytes the container needs; no salt is drawn and no password is required.
// Otherwise dst must hold at least that many bytes, and Write returns the
// number of bytes written. On error the contents of dst are unspecified.
func Write(dst, plaintext, password []byte, opts ...Option) (int, error) {
	o, err := newOptions(opts)
	if err != nil {
		return 0, err
	}
	if uint64(len(plaintext)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: plaintext of %d bytes needs ZIP64", ErrInvalidParameters, len(plaintext))
	}

	compressed, err := deflate(plaintext)
	if err != nil {
		return 0, err
	}
	defer crypto.ClearBytes(compressed)

	payload := uint64(o.strength.SaltSize()) + payloadOverhead + uint64(len(compressed))
	if uint64(headerLen)+payload > math.MaxUint32 {
		return 0, fmt.Errorf("%w: compressed payload of %d bytes needs ZIP64", ErrInvalidParameters, payload)
	}
	size := Size(len(compressed), o.strength)

	if len(dst) == 0 {
		return size, nil
	}
	if len(password) == 0 {
		return 0, ErrNoPassword
	}
	if len(dst) < size {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrBufferTooSmall, len(dst), size)
	}

	if err := build(dst[:size], plaintext, compressed, password, o); err != nil {
		return 0, err
	}
	return size, nil
}

// build lays out a complete container into dst, which is exactly sized.
func build(dst, plaintext, compressed, password []byte, o options) error {
	salt, err := crypto.NewSalt(o.strength)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSalt, err)
	}

	keys, err := crypto.DeriveKeys(password, salt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	defer keys.Destroy()

	h := &Header{
		Version:          o.version,
		Strength:         o.strength,
		Method:           methodDeflate,
		CompressedSize:   uint32(o.strength.SaltSize() + payloadOverhead + len(compressed)),
		UncompressedSize: uint32(len(plaintext)),
		Size:             len(dst),
	}
	if o.version == AE1 {
		h.CRC32 = crypto.Checksum(plaintext)
	}
	saltOff, vvOff, ctOff, macOff := h.payloadOffsets()

	ciphertext := dst[ctOff:macOff]
	if err := crypto.Crypt(keys.AES, ciphertext, compressed); err != nil {
		return fmt.Errorf("%w: %v", ErrCipher, err)
	}
	if len(keys.MAC) == 0 {
		return ErrMAC
	}
	copy(dst[macOff:], crypto.MAC(keys.MAC, ciphertext))
	copy(dst[saltOff:], salt)
	copy(dst[vvOff:], keys.Verifier)

	date, tm := toDOSTime(o.modTime)
	extra := aesExtraField{
		ID:       aesExtraID,
		DataSize: aesExtraDataSize,
		Version:  uint16(h.Version),
		Vendor:   aesVendor,
		Strength: uint8(h.Strength),
		Method:   h.Method,
	}
	centralOffset := headerLen + int(h.CompressedSize)

	w := &recordWriter{buf: dst}
	w.record(localFileHeader{
		Signature:        localHeaderSignature,
		VersionNeeded:    zipVersion,
		Flags:            flagEncrypted,
		Method:           methodAES,
		ModTime:          tm,
		ModDate:          date,
		CRC32:            h.CRC32,
		CompressedSize:   h.CompressedSize,
		UncompressedSize: h.UncompressedSize,
		NameLength:       uint16(len(entryName)),
		ExtraLength:      uint16(aesExtraLen),
	})
	w.bytes([]byte(entryName))
	w.record(extra)
	w.skip(int(h.CompressedSize))
	w.record(centralDirHeader{
		Signature:         centralHeaderSignature,
		VersionMadeBy:     zipVersion,
		VersionNeeded:     zipVersion,
		Flags:             flagEncrypted,
		Method:            methodAES,
		ModTime:           tm,
		ModDate:           date,
		CRC32:             h.CRC32,
		CompressedSize:    h.CompressedSize,
		UncompressedSize:  h.UncompressedSize,
		NameLength:        uint16(len(entryName)),
		ExtraLength:       uint16(aesExtraLen),
		ExternalAttrs:     attrArchive,
		LocalHeaderOffset: 0,
	})
	w.bytes([]byte(entryName))
	w.record(extra)
	w.record(endOfCentralDir{
		EntriesOnDisk:    1,
		TotalEntries:     1,
		Signature:        endOfCentralDirSignature,
		CentralDirSize:   uint32(centralHeaderLen + len(entryName) + aesExtraLen),
		CentralDirOffset: uint32(centralOffset),
	})
	if w.err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, w.err)
	}
	if w.off != len(dst) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrInvalidParameters, w.off, len(dst))
	}
	return nil
}

// Inspect parses and validates the container structure without the password.
func Inspect(src []byte) (*Header, error) {
	if len(src) == 0 {
		return nil, ErrInvalidParameters
	}
	return parse(src)
}

// parse validates every structural field and returns the header. All checks
// happen before any cryptographic work.
func parse(src []byte) (*Header, error) {
	if len(src) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrNotContainer, len(src))
	}

	r := &recordReader{buf: src}
	var lh localFileHeader
	r.record(&lh)
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotContainer, r.err)
	}
	switch {
	case lh.Signature != localHeaderSignature:
		return nil, fmt.Errorf("%w: bad local header signature %#08x", ErrNotContainer, lh.Signature)
	case lh.Method != methodAES:
		return nil, fmt.Errorf("%w: compression method %d is not AES", ErrNotContainer, lh.Method)
	case lh.NameLength != uint16(len(entryName)):
		return nil, fmt.Errorf("%w: name length %d", ErrNotContainer, lh.NameLength)
	case lh.ExtraLength != uint16(aesExtraLen):
		return nil, fmt.Errorf("%w: extra field length %d", ErrNotContainer, lh.ExtraLength)
	}

	name := r.bytes(int(lh.NameLength))
	extraRaw := r.bytes(aesExtraLen)
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotContainer, r.err)
	}
	var extra aesExtraField
	er := &recordReader{buf: extraRaw}
	er.record(&extra)
	if er.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotContainer, er.err)
	}
	if err := checkExtra(extra); err != nil {
		return nil, err
	}

	h := &Header{
		Version:          Version(extra.Version),
		Strength:         crypto.Strength(extra.Strength),
		Method:           extra.Method,
		CRC32:            lh.CRC32,
		CompressedSize:   lh.CompressedSize,
		UncompressedSize: lh.UncompressedSize,
		Modified:         fromDOSTime(lh.ModDate, lh.ModTime),
	}
	if h.Method != methodDeflate && h.Method != methodStored {
		return nil, fmt.Errorf("%w: unsupported compression method %d", ErrNotContainer, h.Method)
	}
	if int(h.CompressedSize) < h.Strength.SaltSize()+payloadOverhead {
		return nil, fmt.Errorf("%w: compressed size %d below AES overhead", ErrNotContainer, h.CompressedSize)
	}

	if uint64(h.UncompressedSize) > h.maxPlaintext() {
		return nil, fmt.Errorf("%w: %d plaintext bytes cannot come from %d compressed bytes",
			ErrNotContainer, h.UncompressedSize, h.CiphertextSize())
	}

	payloadEnd := uint64(headerLen) + uint64(h.CompressedSize)
	if uint64(len(src)) < payloadEnd {
		return nil, fmt.Errorf("%w: truncated payload, have %d bytes, need %d", ErrNotContainer, len(src), payloadEnd)
	}
	r.bytes(int(h.CompressedSize))

	if err := checkTrailer(r, &lh, name, extraRaw, int(payloadEnd)); err != nil {
		return nil, err
	}
	h.Size = r.off

	return h, nil
}

func checkExtra(extra aesExtraField) error {
	switch {
	case extra.ID != aesExtraID:
		return fmt.Errorf("%w: extra field id %#04x", ErrNotContainer, extra.ID)
	case extra.DataSize != aesExtraDataSize:
		return fmt.Errorf("%w: extra field size %d", ErrNotContainer, extra.DataSize)
	case extra.Vendor != aesVendor:
		return fmt.Errorf("%w: vendor %#04x", ErrNotContainer, extra.Vendor)
	case !crypto.Strength(extra.Strength).Valid():
		return fmt.Errorf("%w: strength %d", ErrNotContainer, extra.Strength)
	}
	switch Version(extra.Version) {
	case AE1, AE2:
		return nil
	}
	return fmt.Errorf("%w: AE version %d", ErrNotContainer, extra.Version)
}

// checkTrailer verifies the central header mirrors the local one and the end
// record points at it.
func checkTrailer(r *recordReader, lh *localFileHeader, name, extraRaw []byte, centralOffset int) error {
	var ch centralDirHeader
	r.record(&ch)
	cname := r.bytes(int(ch.NameLength))
	cextra := r.bytes(int(ch.ExtraLength))
	r.bytes(int(ch.CommentLength))
	var end endOfCentralDir
	r.record(&end)
	r.bytes(int(end.CommentLength))
	if r.err != nil {
		return fmt.Errorf("%w: central directory: %v", ErrNotContainer, r.err)
	}

	switch {
	case ch.Signature != centralHeaderSignature:
		return fmt.Errorf("%w: bad central header signature %#08x", ErrNotContainer, ch.Signature)
	case ch.Method != lh.Method,
		ch.CRC32 != lh.CRC32,
		ch.CompressedSize != lh.CompressedSize,
		ch.UncompressedSize != lh.UncompressedSize:
		return fmt.Errorf("%w: central header disagrees with local header", ErrNotContainer)
	case ch.LocalHeaderOffset != 0:
		return fmt.Errorf("%w: local header offset %d", ErrNotContainer, ch.LocalHeaderOffset)
	case !bytes.Equal(cname, name), !bytes.Equal(cextra, extraRaw):
		return fmt.Errorf("%w: central header name or extra field differs", ErrNotContainer)
	case end.Signature != endOfCentralDirSignature:
		return fmt.Errorf("%w: bad end record signature %#08x", ErrNotContainer, end.Signature)
	case end.EntriesOnDisk != 1, end.TotalEntries != 1:
		return fmt.Errorf("%w: %d entries", ErrNotContainer, end.TotalEntries)
	case end.CentralDirOffset != uint32(centralOffset):
		return fmt.Errorf("%w: central directory offset %d, want %d", ErrNotContainer, end.CentralDirOffset, centralOffset)
	case int(end.CentralDirSize) != centralHeaderLen+len(cname)+len(cextra)+int(ch.CommentLength):
		return fmt.Errorf("%w: central directory size %d", ErrNotContainer, end.CentralDirSize)
	}
	return nil
}

// Read authenticates, decrypts and decompresses the container in src into dst.
//
// With an empty dst, Read validates the structure and returns the plaintext
// size without deriving keys; no password is required. Otherwise dst must
// hold at least that many bytes and Read returns the plaintext length.
// On error the contents of dst are unspecified.
func Read(dst, src, password []byte) (int, error) {
	h, size, err := plaintextSize(src)
	if err != nil {
		return 0, err
	}

	if len(dst) == 0 {
		return size, nil
	}
	if len(dst) < size {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrBufferTooSmall, len(dst), size)
	}
	if len(password) == 0 {
		return 0, ErrNoPassword
	}

	if err := extract(dst[:size], src, password, h); err != nil {
		return 0, err
	}
	return size, nil
}

func plaintextSize(src []byte) (*Header, int, error) {
	if len(src) == 0 {
		return nil, 0, ErrInvalidParameters
	}
	h, err := parse(src)
	if err != nil {
		return nil, 0, err
	}
	if uint64(h.UncompressedSize) > uint64(math.MaxInt) {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, h.UncompressedSize)
	}
	return h, int(h.UncompressedSize), nil
}

// authenticate derives keys and runs the verifier and MAC checks.
// The caller owns the returned keys.
func authenticate(src, password []byte, h *Header) (*crypto.Keys, error) {
	saltOff, vvOff, ctOff, macOff := h.payloadOffsets()

	keys, err := crypto.DeriveKeys(password, src[saltOff:vvOff])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	if !keys.CheckVerifier(src[vvOff:ctOff]) {
		keys.Destroy()
		return nil, ErrBadPassword
	}
	if !crypto.CheckMAC(keys.MAC, src[ctOff:macOff], src[macOff:macOff+macSize]) {
		keys.Destroy()
		return nil, ErrAuthentication
	}
	return keys, nil
}

func extract(dst, src, password []byte, h *Header) error {
	keys, err := authenticate(src, password, h)
	if err != nil {
		return err
	}
	defer keys.Destroy()

	_, _, ctOff, macOff := h.payloadOffsets()
	compressed := make([]byte, macOff-ctOff)
	defer crypto.ClearBytes(compressed)

	if err := crypto.Crypt(keys.AES, compressed, src[ctOff:macOff]); err != nil {
		return fmt.Errorf("%w: %v", ErrCipher, err)
	}
	if err := inflate(dst, compressed, h.Method); err != nil {
		return err
	}

	// AE-2 writers zero the CRC; the MAC already covered the data.
	if h.Version == AE1 && crypto.Checksum(dst) != h.CRC32 {
		return ErrIntegrity
	}
	return nil
}

// Verify checks the password and the MAC without decrypting or inflating.
func Verify(src, password []byte) error {
	if len(src) == 0 {
		return ErrInvalidParameters
	}
	h, err := parse(src)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return ErrNoPassword
	}
	keys, err := authenticate(src, password, h)
	if err != nil {
		return err
	}
	keys.Destroy()
	return nil
}

// Seal returns a newly allocated container holding plaintext.
func Seal(plaintext, password []byte, opts ...Option) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrNoPassword
	}
	size, err := Write(nil, plaintext, password, opts...)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, size)
	n, err := Write(dst, plaintext, password, opts...)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// Open returns a newly allocated copy of the plaintext stored in src.
// An empty document is still authenticated.
func Open(src, password []byte) ([]byte, error) {
	h, size, err := plaintextSize(src)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, ErrNoPassword
	}
	dst := make([]byte, size)
	if err := extract(dst, src, password, h); err != nil {
		crypto.ClearBytes(dst)
		return nil, err
	}
	return dst, nil
}
