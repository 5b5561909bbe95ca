package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/keyring"
)

// Passwd changes the password of a locked document
func Passwd(ctx context.Context, file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	locked, err := pad.IsLocked(path)
	if err != nil {
		HandleError(err)
	}
	if !locked {
		HandleError(fmt.Errorf("%w: %s", core.ErrNotLocked, path))
	}

	// Get current password with retry on stale keyring
	currentPassword, _, err := unlockPassword(pad, path, nil)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(currentPassword)

	// The environment password is the current one, so always prompt here
	newPassword, err := core.ReadPasswordConfirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
	defer crypto.ClearBytes(newPassword)

	entry, err := pad.ChangePassword(ctx, path, currentPassword, newPassword)
	if err != nil {
		HandleError(err)
	}

	// Keep an existing keyring entry in step with the new password
	if entry != nil && settings.Keyring && keyring.HasPassword(entry.ID) {
		if err := keyring.SavePassword(entry.ID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	fmt.Printf("password changed: %s\n", path)
}
