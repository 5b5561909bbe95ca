package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/cryptopad/internal/crypto"
)

// Unlock decrypts documents in place
func Unlock(ctx context.Context, files []string) {
	if len(files) == 0 {
		usageError("cryptopad unlock <file> [file...]")
	}

	pad := openPad()
	defer pad.Close()

	var previous []byte
	defer func() { crypto.ClearBytes(previous) }()

	unlocked, skipped := 0, 0
	for _, file := range files {
		path := resolve(pad, file)
		locked, err := pad.IsLocked(path)
		if err != nil {
			HandleError(err)
		}
		if !locked {
			fmt.Printf("skipped: %s is not locked\n", path)
			skipped++
			continue
		}

		password, source, err := unlockPassword(pad, path, previous)
		if err != nil {
			HandleError(err)
		}
		crypto.ClearBytes(previous)
		previous = password

		entry, err := pad.Unlock(ctx, path, password)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("unlocked: %s\n", path)
		unlocked++

		// Offer to save password if it was entered manually
		if source == SourcePrompt && entry != nil {
			OfferToSavePassword([]string{entry.ID}, password)
		}
	}

	if len(files) > 1 {
		fmt.Printf("\nunlocked: %d, skipped: %d\n", unlocked, skipped)
	}
}
