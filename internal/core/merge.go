package core

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text files
)

// MineSuffix is appended to the document path when both versions are kept.
const MineSuffix = ".mine"

// MergeStrategy defines how to handle a document that changed on disk
// while it was being edited
type MergeStrategy int

const (
	StrategyAsk      MergeStrategy = iota // Ask the user
	StrategyKeepMine                      // Always keep the edited version
	StrategyUseDisk                       // Always keep the version on disk
	StrategyKeepBoth                      // Save the edit next to the document as .mine
	StrategyAbort                         // Fail on any conflict
)

// ConflictResolution defines the user's choice for a specific conflict
type ConflictResolution int

const (
	ResolutionKeepMine ConflictResolution = iota
	ResolutionUseDisk
	ResolutionEditMerged
	ResolutionKeepBoth
	ResolutionSkip
)

func (r ConflictResolution) String() string {
	switch r {
	case ResolutionKeepMine:
		return "keep mine"
	case ResolutionUseDisk:
		return "use disk"
	case ResolutionEditMerged:
		return "edit merged"
	case ResolutionKeepBoth:
		return "keep both"
	}
	return "skip"
}

// ConflictResult contains the resolution and optionally merged data
type ConflictResult struct {
	Resolution ConflictResolution
	MergedData []byte // Populated when Resolution == ResolutionEditMerged
}

// DetectFileType determines if a file is likely text or binary.
// Returns true if the file appears to be text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary (executables, images, etc.)
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func DetectFileType(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	// Check for null bytes (strong indicator of binary)
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	// Sample first portion for analysis
	sampleSize := BinarySampleSize
	if len(data) < sampleSize {
		sampleSize = len(data)
	}
	sample := data[:sampleSize]

	// Check if valid UTF-8
	if !utf8.Valid(sample) {
		return false
	}

	// Count non-printable characters
	nonPrintable := 0
	for _, b := range sample {
		// Allow common whitespace: space, tab, newline, carriage return
		if b < 32 && b != 9 && b != 10 && b != 13 {
			nonPrintable++
		}
		if b == 127 { // DEL character
			nonPrintable++
		}
	}

	// If more than threshold % non-printable, likely binary
	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}

// CompareFiles checks if two file contents are identical
// Returns true if files are identical (based on SHA-256 hash)
func CompareFiles(a, b []byte) bool {
	aHash := sha256.Sum256(a)
	bHash := sha256.Sum256(b)
	return bytes.Equal(aHash[:], bHash[:])
}

// HandleConflict resolves a document that changed on disk during an edit.
// mine is the edited plaintext, disk the plaintext now on disk.
func HandleConflict(path string, mine, disk []byte, strategy MergeStrategy, editor string) (*ConflictResult, error) {
	switch strategy {
	case StrategyKeepMine:
		return &ConflictResult{Resolution: ResolutionKeepMine}, nil
	case StrategyUseDisk:
		return &ConflictResult{Resolution: ResolutionUseDisk}, nil
	case StrategyKeepBoth:
		return &ConflictResult{Resolution: ResolutionKeepBoth}, nil
	case StrategyAbort:
		return &ConflictResult{Resolution: ResolutionSkip}, fmt.Errorf("%w: %s", ErrConcurrentChange, path)
	}

	// Strategy is StrategyAsk - prompt user
	isText := DetectFileType(mine) && DetectFileType(disk)

	fmt.Printf("\nwarning: conflict detected: %s\n", path)
	fmt.Printf("   The document changed on disk while you were editing it\n")

	fileType := "binary"
	if isText {
		fileType = "text"
	}
	fmt.Printf("   File type: %s\n", fileType)
	fmt.Printf("\nOptions:\n")
	fmt.Printf("  [m] Keep mine (overwrite disk)\n")
	fmt.Printf("  [d] Use disk version (discard my edit)\n")
	if isText {
		fmt.Printf("  [e] Edit merged (opens in $EDITOR)\n")
	}
	fmt.Printf("  [b] Keep both (save mine as %s)\n", filepath.Base(path)+MineSuffix)
	fmt.Printf("  [x] Skip (leave disk, discard my edit)\n")

	for {
		fmt.Printf("\nYour choice: ")
		choice, err := readChoice()
		if err != nil {
			return &ConflictResult{Resolution: ResolutionSkip}, err
		}

		switch choice {
		case "m":
			return &ConflictResult{Resolution: ResolutionKeepMine}, nil
		case "d":
			return &ConflictResult{Resolution: ResolutionUseDisk}, nil
		case "e":
			if !isText {
				fmt.Printf("Cannot edit merge for binary files\n")
				continue
			}
			mergedData, err := handleEditMerge(path, mine, disk, editor)
			if err != nil {
				fmt.Printf("Error during merge: %v\n", err)
				continue
			}
			return &ConflictResult{Resolution: ResolutionEditMerged, MergedData: mergedData}, nil
		case "b":
			return &ConflictResult{Resolution: ResolutionKeepBoth}, nil
		case "x":
			return &ConflictResult{Resolution: ResolutionSkip}, nil
		default:
			validOptions := "m, d, b, x"
			if isText {
				validOptions = "m, d, e, b, x"
			}
			fmt.Printf("Invalid choice. Please enter %s\n", validOptions)
		}
	}
}

// readChoice reads a single character choice from the terminal
func readChoice() (string, error) {
	// Try to use raw mode for single-key input
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		// Fallback to regular input
		var input string
		_, err := fmt.Scanln(&input)
		if err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(input)), nil
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	buf := make([]byte, 1)
	_, err = os.Stdin.Read(buf)
	if err != nil {
		return "", err
	}

	choice := strings.ToLower(string(buf[0]))
	fmt.Printf("%s\n", choice) // Echo the choice
	return choice, nil
}

// getEditor returns the editor command line: the configured override,
// then VISUAL, then EDITOR, then a platform default
func getEditor(override string) string {
	if override != "" {
		return override
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	// Fall back to EDITOR
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	// Platform-specific defaults
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// createLineDiff creates a line-level diff with conflict markers only around differences.
// This produces git-style output where common lines appear once, and only differing
// sections are wrapped in conflict markers.
func createLineDiff(mine, disk []byte) []byte {
	dmp := diffmatchpatch.New()

	// Line-mode diff (more efficient for text files)
	a, b, lineArray := dmp.DiffLinesToChars(string(mine), string(disk))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return buildConflictFromDiffs(diffs)
}

// buildConflictFromDiffs converts diff output to conflict-marked content.
// Equal sections pass through unchanged, while delete/insert pairs become conflict hunks.
func buildConflictFromDiffs(diffs []diffmatchpatch.Diff) []byte {
	var buf bytes.Buffer

	i := 0
	for i < len(diffs) {
		d := diffs[i]

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			buf.WriteString(d.Text)
			i++

		case diffmatchpatch.DiffDelete, diffmatchpatch.DiffInsert:
			// Collect consecutive delete/insert as a conflict hunk
			buf.WriteString("<<<<<<< mine\n")

			// Write mine (delete) lines
			for i < len(diffs) && diffs[i].Type == diffmatchpatch.DiffDelete {
				text := diffs[i].Text
				buf.WriteString(text)
				// Ensure newline after mine section
				if len(text) > 0 && text[len(text)-1] != '\n' {
					buf.WriteByte('\n')
				}
				i++
			}

			buf.WriteString("=======\n")

			// Write disk (insert) lines
			for i < len(diffs) && diffs[i].Type == diffmatchpatch.DiffInsert {
				text := diffs[i].Text
				buf.WriteString(text)
				// Ensure newline after disk section
				if len(text) > 0 && text[len(text)-1] != '\n' {
					buf.WriteByte('\n')
				}
				i++
			}

			buf.WriteString(">>>>>>> disk\n")
		}
	}

	return buf.Bytes()
}

// createTempFile writes data to a 0600 temp file named after path, keeping
// the extension for syntax highlighting. The caller removes it with
// scrubTempFile.
func createTempFile(prefix, path string, data []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", prefix+"-*"+filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmpFile.Name()
	if err := os.Chmod(name, 0600); err != nil {
		tmpFile.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		scrubTempFile(name)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		scrubTempFile(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}

// scrubTempFile overwrites a plaintext temp file with zeros before removing it.
func scrubTempFile(name string) {
	if info, err := os.Stat(name); err == nil && info.Size() > 0 {
		if f, err := os.OpenFile(name, os.O_WRONLY, 0); err == nil {
			f.Write(make([]byte, info.Size()))
			f.Sync()
			f.Close()
		}
	}
	os.Remove(name)
}

// createConflictFile creates a temporary file with git-style conflict markers.
// Uses line-level diff to show only differences.
func createConflictFile(path string, mine, disk []byte) (string, error) {
	return createTempFile("cryptopad-merge", path, createLineDiff(mine, disk))
}

// invokeEditor opens the editor and waits for the user to finish. The
// editor setting may carry arguments, e.g. "code --wait".
func invokeEditor(editorSetting, filename string) error {
	args := strings.Fields(getEditor(editorSetting))
	if len(args) == 0 {
		return fmt.Errorf("no editor configured")
	}
	editor := args[0]

	// Check if editor is available
	if _, err := exec.LookPath(editor); err != nil {
		return fmt.Errorf("editor '%s' not found: %w\nPlease set VISUAL or EDITOR environment variable", editor, err)
	}

	cmd := exec.Command(editor, append(args[1:], filename)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
	}
	return err
}

// handleEditMerge orchestrates the editor-based merge workflow
func handleEditMerge(path string, mine, disk []byte, editor string) ([]byte, error) {
	// Create temp file with conflict markers
	tmpName, err := createConflictFile(path, mine, disk)
	if err != nil {
		return nil, err
	}
	defer scrubTempFile(tmpName)

	fmt.Printf("\nopening editor for merge...\n")

	if err := invokeEditor(editor, tmpName); err != nil {
		return nil, err
	}

	// Read the edited result
	mergedData, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}

	// Warn if file is empty
	if len(mergedData) == 0 {
		fmt.Printf("\nwarning: edited file is empty\n")
		fmt.Printf("Use this empty content? [y/N]: ")
		choice, err := readChoice()
		if err != nil {
			return nil, err
		}
		if choice != "y" {
			return nil, fmt.Errorf("merge aborted by user")
		}
	}

	// Check if conflict markers are still present
	if hasConflictMarkers(mergedData) {
		fmt.Printf("\nwarning: conflict markers still present in file\n")
		fmt.Printf("Continue anyway? [y/N]: ")
		choice, err := readChoice()
		if err != nil {
			return nil, err
		}
		if choice != "y" {
			return nil, fmt.Errorf("merge aborted by user")
		}
	}

	return mergedData, nil
}

// hasConflictMarkers checks if content still contains unresolved conflict markers
func hasConflictMarkers(data []byte) bool {
	return bytes.Contains(data, []byte("<<<<<<<")) ||
		bytes.Contains(data, []byte("=======")) ||
		bytes.Contains(data, []byte(">>>>>>>"))
}

// GenerateUnifiedDiff generates a unified diff between the decoded contents
// of two documents. Returns an empty string if they are identical.
func GenerateUnifiedDiff(pathA, pathB string, aData, bData []byte) (string, error) {
	if CompareFiles(aData, bData) {
		return "", nil
	}

	// Check if binary
	if !DetectFileType(aData) || !DetectFileType(bData) {
		return fmt.Sprintf("Binary files %s and %s differ\n", pathA, pathB), nil
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	aStr, bStr := string(aData), string(bData)
	a, b, lineArray := dmp.DiffLinesToChars(aStr, bStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	// Create patches and format
	patches := dmp.PatchMake(aStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	// Add file headers and format output
	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s\n", pathA))
	result.WriteString(fmt.Sprintf("+++ b/%s\n", pathB))
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}
