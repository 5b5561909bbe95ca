package container

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/illarion/cryptopad/internal/crypto"
)

// Record signatures, "PK" followed by the record type.
const (
	localHeaderSignature     uint32 = 0x04034b50
	centralHeaderSignature   uint32 = 0x02014b50
	endOfCentralDirSignature uint32 = 0x06054b50
)

const (
	methodStored  uint16 = 0
	methodDeflate uint16 = 8
	methodAES     uint16 = 99 // "must decrypt first"; real method lives in the extra field

	aesExtraID       uint16 = 0x9901
	aesExtraDataSize uint16 = 7
	aesVendor        uint16 = 0x4541 // "AE"

	zipVersion       uint16 = 51 // 5.1, AES encryption
	flagEncrypted    uint16 = 0x0001
	attrArchive      uint32 = 0x20
	entryName               = "data"
	verifierSize            = crypto.VerifierSize
	macSize                 = crypto.MACSize
	payloadOverhead         = verifierSize + macSize

	// Deflate cannot expand data by more than about 1032:1.
	maxDeflateRatio = 1032
)

// Version is the AE-x variant recorded in the extra field.
type Version uint16

const (
	AE1 Version = 1 // CRC-32 of the plaintext is stored and checked
	AE2 Version = 2 // CRC-32 field is zero, the MAC alone protects the data
)

func (v Version) String() string {
	switch v {
	case AE1:
		return "AE-1"
	case AE2:
		return "AE-2"
	}
	return fmt.Sprintf("AE-%d?", uint16(v))
}

// The record structs below are the field tables of the format: field order,
// width and byte order are all declared here and encoded or decoded by
// encoding/binary, so no offsets appear anywhere else.

type localFileHeader struct {
	Signature        uint32
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16
}

type centralDirHeader struct {
	Signature         uint32
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            uint16
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	NameLength        uint16
	ExtraLength       uint16
	CommentLength     uint16
	DiskNumberStart   uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32
}

type endOfCentralDir struct {
	Signature        uint32
	DiskNumber       uint16
	CentralDirDisk   uint16
	EntriesOnDisk    uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	CommentLength    uint16
}

type aesExtraField struct {
	ID       uint16
	DataSize uint16
	Version  uint16
	Vendor   uint16
	Strength uint8
	Method   uint16
}

var (
	localHeaderLen   = binary.Size(localFileHeader{})
	centralHeaderLen = binary.Size(centralDirHeader{})
	endRecordLen     = binary.Size(endOfCentralDir{})
	aesExtraLen      = binary.Size(aesExtraField{})

	// Bytes in front of the payload and behind it.
	headerLen  = localHeaderLen + len(entryName) + aesExtraLen
	trailerLen = centralHeaderLen + len(entryName) + aesExtraLen + endRecordLen
)

// Header is the structural description of a container, available without
// the password.
type Header struct {
	Version          Version
	Strength         crypto.Strength
	Method           uint16 // compression method applied before encryption
	CRC32            uint32
	CompressedSize   uint32 // salt + verifier + ciphertext + MAC
	UncompressedSize uint32
	Modified         time.Time // zero when the writer left the DOS fields empty
	Size             int       // total bytes occupied by the container
}

// CiphertextSize is the length of the encrypted compressed data.
func (h *Header) CiphertextSize() int {
	return int(h.CompressedSize) - h.Strength.SaltSize() - payloadOverhead
}

// maxPlaintext bounds the uncompressed size the ciphertext can decode to.
func (h *Header) maxPlaintext() uint64 {
	ct := uint64(h.CiphertextSize())
	if h.Method == methodStored {
		return ct
	}
	return ct * maxDeflateRatio
}

// payloadOffsets returns the offsets of the salt, verifier, ciphertext and MAC.
func (h *Header) payloadOffsets() (salt, verifier, ciphertext, mac int) {
	salt = headerLen
	verifier = salt + h.Strength.SaltSize()
	ciphertext = verifier + verifierSize
	mac = ciphertext + h.CiphertextSize()
	return
}

// recordWriter encodes records back to back into a pre-sized buffer.
type recordWriter struct {
	buf []byte
	off int
	err error
}

func (w *recordWriter) record(v any) {
	if w.err != nil {
		return
	}
	n, err := binary.Encode(w.buf[w.off:], binary.LittleEndian, v)
	if err != nil {
		w.err = fmt.Errorf("encode %T: %w", v, err)
		return
	}
	w.off += n
}

func (w *recordWriter) bytes(p []byte) {
	if w.err != nil {
		return
	}
	if len(w.buf)-w.off < len(p) {
		w.err = fmt.Errorf("short buffer writing %d bytes at %d", len(p), w.off)
		return
	}
	w.off += copy(w.buf[w.off:], p)
}

// skip advances past a region filled in separately.
func (w *recordWriter) skip(n int) {
	if w.err != nil {
		return
	}
	if len(w.buf)-w.off < n {
		w.err = fmt.Errorf("short buffer skipping %d bytes at %d", n, w.off)
		return
	}
	w.off += n
}

// recordReader decodes records back to back from a buffer.
type recordReader struct {
	buf []byte
	off int
	err error
}

func (r *recordReader) record(v any) {
	if r.err != nil {
		return
	}
	n, err := binary.Decode(r.buf[r.off:], binary.LittleEndian, v)
	if err != nil {
		r.err = fmt.Errorf("decode %T at %d: %w", v, r.off, err)
		return
	}
	r.off += n
}

func (r *recordReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("truncated at %d: want %d bytes", r.off, n)
		return nil
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p
}

// toDOSTime converts t to MS-DOS date and time fields. Times before 1980
// cannot be represented and yield zero fields.
func toDOSTime(t time.Time) (date, tm uint16) {
	if t.IsZero() || t.Year() < 1980 {
		return 0, 0
	}
	date = uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	tm = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return date, tm
}

func fromDOSTime(date, tm uint16) time.Time {
	if date == 0 && tm == 0 {
		return time.Time{}
	}
	return time.Date(
		int(date>>9)+1980,
		time.Month(date>>5&0xf),
		int(date&0x1f),
		int(tm>>11),
		int(tm>>5&0x3f),
		int(tm&0x1f)*2,
		0,
		time.Local,
	)
}
