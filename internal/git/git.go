package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitStatus contains git integration status information
type GitStatus struct {
	IsRepo             bool
	Catalog            string   // catalog file name
	CatalogTracked     bool     // catalog is committed (fine either way)
	TrackedPlaintext   []string // unlocked documents tracked by git (bad)
	UnignoredPlaintext []string // unlocked documents git would pick up (warning)
	LockedTracked      []string // locked documents tracked by git (fine)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckGitIntegration probes git for the catalog and every document.
// Only unlocked documents are exposure risks: a locked one is a container
// and may be committed.
func CheckGitIntegration(workDir, catalog string, unlocked, locked []string) (*GitStatus, error) {
	status := &GitStatus{Catalog: catalog}

	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true
	status.CatalogTracked = IsTracked(workDir, catalog)

	for _, file := range unlocked {
		if IsTracked(workDir, file) {
			status.TrackedPlaintext = append(status.TrackedPlaintext, file)
			continue
		}
		if !IsIgnored(workDir, file) {
			status.UnignoredPlaintext = append(status.UnignoredPlaintext, file)
		}
	}
	for _, file := range locked {
		if IsTracked(workDir, file) {
			status.LockedTracked = append(status.LockedTracked, file)
		}
	}

	return status, nil
}

// Exposed reports whether any plaintext document could end up in git.
func (s *GitStatus) Exposed() bool {
	return len(s.TrackedPlaintext) > 0 || len(s.UnignoredPlaintext) > 0
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	if status.CatalogTracked {
		result.WriteString(fmt.Sprintf("   ok: %s is tracked by git\n", status.Catalog))
	}

	if len(status.TrackedPlaintext) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d unlocked document(s) tracked by git:\n", len(status.TrackedPlaintext)))
		for _, file := range status.TrackedPlaintext {
			result.WriteString(fmt.Sprintf("      - %s (run: cryptopad lock %s)\n", file, file))
		}
	}

	for _, file := range status.UnignoredPlaintext {
		result.WriteString(fmt.Sprintf("   warning: unlocked %s not in .gitignore\n", file))
	}

	if len(status.LockedTracked) > 0 {
		result.WriteString(fmt.Sprintf("   ok: %d locked document(s) tracked by git\n", len(status.LockedTracked)))
	}

	if !status.Exposed() {
		result.WriteString("   ok: no plaintext documents exposed to git\n")
	}

	return result.String()
}
