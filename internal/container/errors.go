package container

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned for empty input or values the format cannot represent.
	ErrInvalidParameters = errors.New("container: invalid parameters")

	// ErrCodec is returned when Deflate compression or decompression fails.
	ErrCodec = errors.New("container: compression codec failure")

	// ErrSalt is returned when a random salt cannot be generated.
	ErrSalt = errors.New("container: salt generation failed")

	// ErrKeyDerivation is returned when keys cannot be derived from the password.
	ErrKeyDerivation = errors.New("container: key derivation failed")

	// ErrCipher is returned when the AES stream cipher cannot be set up.
	ErrCipher = errors.New("container: AES encryption failed")

	// ErrMAC is returned when the authentication code cannot be computed.
	ErrMAC = errors.New("container: HMAC computation failed")

	// ErrOutOfMemory is returned when the declared size cannot be allocated on this platform.
	ErrOutOfMemory = errors.New("container: not enough memory")

	// ErrBufferTooSmall is returned when the destination is shorter than the required size.
	ErrBufferTooSmall = errors.New("container: destination buffer too small")

	// ErrNotContainer is returned when the input is not a recognized document container.
	ErrNotContainer = errors.New("container: not a recognized container")

	// ErrBadPassword is returned when the password verifier does not match.
	ErrBadPassword = errors.New("container: bad password")

	// ErrAuthentication is returned when the ciphertext MAC does not match.
	ErrAuthentication = errors.New("container: authentication failed, wrong password or corrupted data")

	// ErrNoPassword is returned when an operation needing a password gets none.
	ErrNoPassword = errors.New("container: no password supplied")

	// ErrIntegrity is returned when the CRC-32 of the recovered data does not match.
	ErrIntegrity = errors.New("container: CRC-32 mismatch on extracted data")
)

// Code is the numeric status of a container operation.
type Code int

const (
	CodeSuccess Code = iota
	CodeInvalidParameters
	CodeCodec
	CodeSalt
	CodeKeyDerivation
	CodeCipher
	CodeMAC
	CodeOutOfMemory
	CodeBufferTooSmall
	CodeNotContainer
	CodeBadPassword
	CodeAuthentication
	CodeIntegrity
	CodeNoPassword
	CodeUnknown = -1
)

var codeErrors = []struct {
	code Code
	err  error
}{
	{CodeInvalidParameters, ErrInvalidParameters},
	{CodeCodec, ErrCodec},
	{CodeSalt, ErrSalt},
	{CodeKeyDerivation, ErrKeyDerivation},
	{CodeCipher, ErrCipher},
	{CodeMAC, ErrMAC},
	{CodeOutOfMemory, ErrOutOfMemory},
	{CodeBufferTooSmall, ErrBufferTooSmall},
	{CodeNotContainer, ErrNotContainer},
	{CodeBadPassword, ErrBadPassword},
	{CodeAuthentication, ErrAuthentication},
	{CodeIntegrity, ErrIntegrity},
	{CodeNoPassword, ErrNoPassword},
}

// Status maps an error returned by this package to its Code.
// A nil error is CodeSuccess; foreign errors are CodeUnknown.
func Status(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeUnknown
}

// String returns the one-line message for the code.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeInvalidParameters:
		return "bad parameters"
	case CodeCodec:
		return "Deflate codec error"
	case CodeSalt:
		return "could not generate random salt"
	case CodeKeyDerivation:
		return "could not derive keys from password"
	case CodeCipher:
		return "AES encryption error"
	case CodeMAC:
		return "HMAC-SHA1 computation error"
	case CodeOutOfMemory:
		return "not enough memory"
	case CodeBufferTooSmall:
		return "destination buffer too small"
	case CodeNotContainer:
		return "not a compatible encrypted document"
	case CodeBadPassword:
		return "bad password"
	case CodeAuthentication:
		return "authentication failed, bad password or corrupted data"
	case CodeIntegrity:
		return "CRC-32 mismatch on extracted data"
	case CodeNoPassword:
		return "a password is required"
	}
	return fmt.Sprintf("unknown error %d", int(c))
}

// IsPasswordError reports whether err means the caller should ask for the
// password again rather than report corruption.
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrBadPassword) || errors.Is(err, ErrNoPassword)
}
