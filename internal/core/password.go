package core

import (
	"fmt"
	"os"
	"syscall"

	"github.com/illarion/cryptopad/internal/config"
	"github.com/illarion/cryptopad/internal/crypto"
	"golang.org/x/term"
)

// ReadPassword reads a password from the terminal without echoing. The
// prompt goes to stderr so stdout stays usable for cat.
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Enter new password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	if len(password1) == 0 {
		return nil, fmt.Errorf("password must not be empty")
	}

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads the password from CRYPTOPAD_PASSWORD
func GetPasswordFromEnv() []byte {
	password := os.Getenv(config.EnvPassword)
	if password == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(password))
	copy(result, password)
	return result
}
