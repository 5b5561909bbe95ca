package cmd

import (
	"fmt"

	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/crypto"
)

// Diff compares the decoded contents of two documents. Each locked side is
// opened with its own password.
func Diff(fileA, fileB string) {
	pad := openPad()
	defer pad.Close()

	pathA := resolve(pad, fileA)
	pathB := resolve(pad, fileB)

	passwordA := diffPassword(pad, pathA, nil)
	defer crypto.ClearBytes(passwordA)
	passwordB := diffPassword(pad, pathB, passwordA)
	defer crypto.ClearBytes(passwordB)

	out, err := pad.Diff(pathA, passwordA, pathB, passwordB)
	if err != nil {
		HandleError(err)
	}
	if out == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(out)
}

// diffPassword returns the password for path, or nil when it is plain.
func diffPassword(pad *core.Pad, path string, previous []byte) []byte {
	locked, err := pad.IsLocked(path)
	if err != nil {
		HandleError(err)
	}
	if !locked {
		return nil
	}
	password, _, err := unlockPassword(pad, path, previous)
	if err != nil {
		HandleError(err)
	}
	return password
}
