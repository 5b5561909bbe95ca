package cmd

import (
	"fmt"
	"os"
)

// Compact compacts the catalog to reclaim unused space
func Compact() {
	pad := openPad()
	defer pad.Close()

	// Get file size before
	info, err := os.Stat(pad.CatalogPath())
	if os.IsNotExist(err) {
		fmt.Println("No catalog to compact")
		return
	}
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := pad.Compact(); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(pad.CatalogPath())
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
