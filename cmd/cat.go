package cmd

import (
	"os"

	"github.com/illarion/cryptopad/internal/crypto"
)

// Cat writes the decoded contents of a document to stdout
func Cat(file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	locked, err := pad.IsLocked(path)
	if err != nil {
		HandleError(err)
	}

	var password []byte
	if locked {
		password, _, err = unlockPassword(pad, path, nil)
		if err != nil {
			HandleError(err)
		}
		defer crypto.ClearBytes(password)
	}

	data, err := pad.Cat(path, password)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(data)

	if _, err := os.Stdout.Write(data); err != nil {
		HandleError(err)
	}
}
