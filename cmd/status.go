package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/git"
)

// Status shows every cataloged document and its state (no password required)
func Status(ctx context.Context) {
	pad := openPad()
	defer pad.Close()

	status, err := pad.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	if len(status.Documents) == 0 {
		fmt.Println("No documents cataloged in this directory")
		fmt.Println("Run 'cryptopad lock <file>' to protect one")
		return
	}

	fmt.Printf("Catalog: %s\n", status.Catalog)
	fmt.Printf("  Documents:  %d (%d locked, %d unlocked, %d missing)\n",
		len(status.Documents), status.LockedCount, status.UnlockedCount, status.MissingCount)
	fmt.Printf("  Total size: %s\n", formatSize(status.TotalSize))
	fmt.Printf("  Encryption: %s\n", status.Algorithm)
	if !status.Modified.IsZero() {
		fmt.Printf("  Updated:    %s\n", status.Modified.Format(time.RFC3339))
	}

	fmt.Println("\nDocuments:")
	for _, doc := range status.Documents {
		fmt.Printf("  %s %s (%s)%s\n", stateIcon(doc.State), doc.Path, doc.State, driftNote(doc))
	}

	if status.GitStatus != nil {
		fmt.Print(git.FormatGitStatus(status.GitStatus))
	}
}

func stateIcon(state string) string {
	switch state {
	case core.StateLocked:
		return "*"
	case core.StateUnlocked:
		return "."
	case core.StateMissing:
		return "-"
	}
	return "!"
}

func driftNote(doc core.DocumentStatus) string {
	if !doc.Drift {
		return ""
	}
	if doc.State == core.StateUnlocked {
		return " warning: catalog says locked"
	}
	return " warning: changed since last sealed here"
}
