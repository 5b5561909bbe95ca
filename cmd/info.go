package cmd

import (
	"fmt"
	"time"

	"github.com/illarion/cryptopad/internal/keyring"
)

// Info shows what is known about a file without asking for a password
func Info(file string) {
	pad := openPad()
	defer pad.Close()

	path := resolve(pad, file)
	info, err := pad.Info(path)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("%s\n", info.Path)
	fmt.Printf("  Size on disk: %s\n", formatSize(info.Size))
	if !info.Locked {
		fmt.Printf("  State:        unlocked (plain file)\n")
	} else {
		h := info.Header
		fmt.Printf("  State:        locked\n")
		fmt.Printf("  Encryption:   WinZip %s (%s)\n", h.Strength, h.Version)
		fmt.Printf("  Compression:  %s -> %s\n", formatSize(int64(h.UncompressedSize)), formatSize(int64(h.CompressedSize)))
		if h.CRC32 != 0 {
			fmt.Printf("  CRC-32:       %08x\n", h.CRC32)
		}
		if !h.Modified.IsZero() {
			fmt.Printf("  Modified:     %s\n", h.Modified.Format(time.RFC3339))
		}
	}

	if info.Entry == nil {
		fmt.Printf("  Catalog:      not cataloged\n")
		return
	}
	fmt.Printf("  Catalog ID:   %s\n", info.Entry.ID)
	if !info.Entry.Sealed.IsZero() {
		fmt.Printf("  Last sealed:  %s\n", info.Entry.Sealed.Format(time.RFC3339))
	}
	if settings.Keyring {
		stored := "not stored"
		if keyring.HasPassword(info.Entry.ID) {
			stored = "stored in keyring"
		}
		fmt.Printf("  Password:     %s\n", stored)
	}
}
