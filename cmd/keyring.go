package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/keyring"
)

// KeyringSave saves a document's password to the OS keyring
func KeyringSave(file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)

	// Prompt for password
	password, err := core.ReadPassword(fmt.Sprintf("Password for %s: ", path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	if err := pad.VerifyPassword(path, password); err != nil {
		HandleError(err)
	}

	// Get document ID (catalog it if needed)
	docID, err := pad.DocumentID(path)
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(docID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(ExitError)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes a document's password from the OS keyring
func KeyringDelete(file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	entry, err := pad.LookupEntry(path)
	if err != nil || entry == nil {
		fmt.Println("No password stored in keyring")
		return
	}

	if err := keyring.DeletePassword(entry.ID); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a document's password is stored in the keyring
func KeyringStatus(file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	entry, err := pad.LookupEntry(path)
	if err != nil || entry == nil {
		fmt.Println("Password: not stored")
		return
	}

	if keyring.HasPassword(entry.ID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
