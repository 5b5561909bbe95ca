package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/cryptopad/internal/keyring"
)

// Forget removes documents from the catalog and drops their saved
// passwords. The files themselves are not touched.
func Forget(files []string) {
	if len(files) == 0 {
		usageError("cryptopad forget <file> [file...]")
	}

	pad := openPad()
	defer pad.Close()

	for _, file := range files {
		path := resolve(pad, file)
		entry, err := pad.Forget(path)
		if err != nil {
			HandleError(err)
		}
		if err := keyring.Forget(entry.ID); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove keyring entry: %s\n", err)
		}
		fmt.Printf("forgot: %s\n", path)
	}
}
