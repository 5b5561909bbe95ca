package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatGitStatus_NotRepo(t *testing.T) {
	if got := FormatGitStatus(&GitStatus{}); got != "" {
		t.Errorf("Expected empty output outside a repo, got %q", got)
	}
}

func TestFormatGitStatus_Exposed(t *testing.T) {
	status := &GitStatus{
		IsRepo:             true,
		Catalog:            ".cryptopad",
		CatalogTracked:     true,
		TrackedPlaintext:   []string{"secret.txt"},
		UnignoredPlaintext: []string{"notes.txt"},
		LockedTracked:      []string{"a.txt", "b.txt"},
	}
	out := FormatGitStatus(status)

	for _, want := range []string{
		"ok: .cryptopad is tracked by git",
		"error: 1 unlocked document(s) tracked by git",
		"secret.txt (run: cryptopad lock secret.txt)",
		"warning: unlocked notes.txt not in .gitignore",
		"ok: 2 locked document(s) tracked by git",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "no plaintext documents exposed") {
		t.Error("Exposed status must not claim safety")
	}
}

func TestFormatGitStatus_Clean(t *testing.T) {
	status := &GitStatus{IsRepo: true, Catalog: ".cryptopad"}
	if status.Exposed() {
		t.Fatal("Empty status should not be exposed")
	}
	if out := FormatGitStatus(status); !strings.Contains(out, "no plaintext documents exposed") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestCheckGitIntegration_NotRepo(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	status, err := CheckGitIntegration(dir, ".cryptopad", []string{"a.txt"}, nil)
	if err != nil {
		t.Fatalf("CheckGitIntegration: %v", err)
	}
	if status.IsRepo {
		t.Error("Temp dir should not be a repo")
	}
	if status.Exposed() {
		t.Error("Nothing is exposed outside a repo")
	}
}

func TestCheckGitIntegration_Repo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	run("init", "-q")
	write(".gitignore", "ignored.txt\n")
	write("tracked.txt", "plain")
	write("loose.txt", "plain")
	write("ignored.txt", "plain")
	write("locked.txt", "PK")
	run("add", "tracked.txt", "locked.txt")

	status, err := CheckGitIntegration(dir, ".cryptopad",
		[]string{"tracked.txt", "loose.txt", "ignored.txt"}, []string{"locked.txt"})
	if err != nil {
		t.Fatalf("CheckGitIntegration: %v", err)
	}

	if !status.IsRepo {
		t.Fatal("Expected a repo")
	}
	if len(status.TrackedPlaintext) != 1 || status.TrackedPlaintext[0] != "tracked.txt" {
		t.Errorf("TrackedPlaintext: %v", status.TrackedPlaintext)
	}
	if len(status.UnignoredPlaintext) != 1 || status.UnignoredPlaintext[0] != "loose.txt" {
		t.Errorf("UnignoredPlaintext: %v", status.UnignoredPlaintext)
	}
	if len(status.LockedTracked) != 1 || status.LockedTracked[0] != "locked.txt" {
		t.Errorf("LockedTracked: %v", status.LockedTracked)
	}
	if status.CatalogTracked {
		t.Error("Catalog was never added")
	}
}
