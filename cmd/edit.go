package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/crypto"
)

// Edit opens a document in the editor and saves it back. With newDoc a
// plain or missing file is sealed under a new password.
func Edit(ctx context.Context, file string, newDoc, keepMine, useDisk, keepBoth, abort bool) {
	// Validate mutually exclusive flags
	if boolToInt(keepMine)+boolToInt(useDisk)+boolToInt(keepBoth)+boolToInt(abort) > 1 {
		fmt.Fprintf(os.Stderr, "error: --keep-mine, --use-disk, --keep-both and --abort-on-conflict are mutually exclusive\n")
		os.Exit(ExitUsage)
	}

	var strategy core.MergeStrategy
	switch {
	case keepMine:
		strategy = core.StrategyKeepMine
	case useDisk:
		strategy = core.StrategyUseDisk
	case keepBoth:
		strategy = core.StrategyKeepBoth
	case abort:
		strategy = core.StrategyAbort
	default:
		strategy = core.StrategyAsk
	}

	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	locked, err := pad.IsLocked(path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		HandleError(err)
	}
	if missing && !newDoc {
		fmt.Fprintf(os.Stderr, "Error: %s does not exist\n", path)
		fmt.Fprintf(os.Stderr, "Use 'cryptopad edit --new %s' to create a protected document\n", file)
		os.Exit(ExitError)
	}

	var password []byte
	source := SourceEnv
	switch {
	case locked:
		password, source, err = unlockPassword(pad, path, nil)
	case newDoc:
		password, source, err = GetNewPassword()
	}
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	result, err := pad.Edit(ctx, path, password, strategy)
	if err != nil {
		HandleError(err)
	}

	switch {
	case result.SavedAs != "":
		fmt.Printf("kept both: your edit is in %s\n", result.SavedAs)
	case result.Conflict && !result.Changed:
		fmt.Printf("discarded: %s (%s)\n", path, result.Resolution)
	case !result.Changed:
		fmt.Printf("no changes: %s\n", path)
	case result.Locked:
		fmt.Printf("saved: %s (locked)\n", path)
	default:
		fmt.Printf("saved: %s\n", path)
	}

	if source == SourcePrompt && result.Entry != nil {
		OfferToSavePassword([]string{result.Entry.ID}, password)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
