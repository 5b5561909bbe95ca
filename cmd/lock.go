package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/crypto"
)

// Lock encrypts documents in place. All of them get the same new password.
// aeVersion overrides the configured AE version when non-zero.
func Lock(ctx context.Context, files []string, aeVersion int) {
	if len(files) == 0 {
		usageError("cryptopad lock [--version 1|2] <file> [file...]")
	}
	if aeVersion != 0 {
		if aeVersion != int(container.AE1) && aeVersion != int(container.AE2) {
			usageError("--version must be 1 or 2")
		}
		settings.AEVersion = aeVersion
	}

	pad := openPad()
	defer pad.Close()

	paths := make([]string, 0, len(files))
	for _, file := range files {
		path := resolve(pad, file)
		locked, err := pad.IsLocked(path)
		if err != nil {
			HandleError(err)
		}
		if locked {
			fmt.Printf("skipped: %s is already locked\n", path)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return
	}

	password, source, err := GetNewPassword()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	var ids []string
	for _, path := range paths {
		entry, err := pad.Lock(ctx, path, password)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("locked: %s\n", path)
		if entry != nil {
			ids = append(ids, entry.ID)
		}
	}

	if source == SourcePrompt {
		OfferToSavePassword(ids, password)
	}
}
