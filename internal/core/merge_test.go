package core

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestDetectFileType_Text(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "plain ASCII text",
			content: []byte("Hello, World!\nThis is a test."),
			want:    true,
		},
		{
			name:    "UTF-8 with special chars",
			content: []byte("Hello 世界! Ñoño café"),
			want:    true,
		},
		{
			name:    "empty file",
			content: []byte(""),
			want:    true,
		},
		{
			name:    "newlines and spaces",
			content: []byte("\n\n  \t  \n"),
			want:    true,
		},
		{
			name:    "JSON content",
			content: []byte(`{"key": "value", "number": 123}`),
			want:    true,
		},
		{
			name:    "code with symbols",
			content: []byte("func main() {\n\tfmt.Println(\"test\")\n}"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFileType(tt.content)
			if got != tt.want {
				t.Errorf("DetectFileType() for %s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDetectFileType_Binary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "content with null bytes",
			content: []byte("Hello\x00World"),
			want:    false,
		},
		{
			name:    "random binary data",
			content: []byte{0xFF, 0xFE, 0x00, 0x01, 0xAB, 0xCD},
			want:    false,
		},
		{
			name:    "non-UTF-8 sequences",
			content: []byte{0x80, 0x81, 0x82, 0x83, 0x84},
			want:    false,
		},
		{
			name:    "binary with lots of non-printable",
			content: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFileType(tt.content)
			if got != tt.want {
				t.Errorf("DetectFileType() for %s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCompareFiles_Identical(t *testing.T) {
	tests := []struct {
		name     string
		content1 []byte
		content2 []byte
	}{
		{
			name:     "identical text",
			content1: []byte("Hello, World!"),
			content2: []byte("Hello, World!"),
		},
		{
			name:     "identical empty files",
			content1: []byte(""),
			content2: []byte(""),
		},
		{
			name:     "identical binary data",
			content1: []byte{0x00, 0x01, 0x02, 0xFF},
			content2: []byte{0x00, 0x01, 0x02, 0xFF},
		},
		{
			name:     "identical multiline text",
			content1: []byte("line1\nline2\nline3"),
			content2: []byte("line1\nline2\nline3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !CompareFiles(tt.content1, tt.content2) {
				t.Errorf("CompareFiles() for %s should return true for identical content", tt.name)
			}
		})
	}
}

func TestCompareFiles_Different(t *testing.T) {
	tests := []struct {
		name     string
		content1 []byte
		content2 []byte
	}{
		{
			name:     "different text",
			content1: []byte("data1"),
			content2: []byte("data2"),
		},
		{
			name:     "different length",
			content1: []byte("short"),
			content2: []byte("much longer content"),
		},
		{
			name:     "empty vs non-empty",
			content1: []byte(""),
			content2: []byte("content"),
		},
		{
			name:     "different binary data",
			content1: []byte{0x00, 0x01},
			content2: []byte{0x00, 0x02},
		},
		{
			name:     "case difference",
			content1: []byte("Hello"),
			content2: []byte("hello"),
		},
		{
			name:     "whitespace difference",
			content1: []byte("Hello World"),
			content2: []byte("Hello  World"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CompareFiles(tt.content1, tt.content2) {
				t.Errorf("CompareFiles() for %s should return false for different content", tt.name)
			}
		})
	}
}

func TestCreateLineDiff_SingleLineChange(t *testing.T) {
	mine := []byte("line1\nline2\nline3\n")
	disk := []byte("line1\nmodified\nline3\n")

	result := string(createLineDiff(mine, disk))

	// Should contain unchanged lines and only the difference in markers
	for _, want := range []string{"line1\n", "line3\n", "<<<<<<< mine", "=======", ">>>>>>> disk", "line2", "modified"} {
		if !strings.Contains(result, want) {
			t.Errorf("Result should contain %q:\n%s", want, result)
		}
	}
	if strings.Count(result, "line1") != 1 {
		t.Error("Unchanged lines should appear once")
	}
}

func TestCreateLineDiff_IdenticalFiles(t *testing.T) {
	content := []byte("line1\nline2\nline3\n")

	result := createLineDiff(content, content)

	if hasConflictMarkers(result) {
		t.Error("Identical files should not have conflict markers")
	}
	if string(result) != string(content) {
		t.Errorf("Identical files should return same content.\nGot: %q\nWant: %q", result, content)
	}
}

func TestCreateLineDiff_MultipleChanges(t *testing.T) {
	mine := []byte("line1\nline2\nline3\nline4\nline5\n")
	disk := []byte("line1\nchanged2\nline3\nchanged4\nline5\n")

	result := string(createLineDiff(mine, disk))

	if count := strings.Count(result, "<<<<<<< mine"); count != 2 {
		t.Errorf("Expected 2 conflict sections, got %d", count)
	}
}

func TestCreateLineDiff_AddedAndRemovedLines(t *testing.T) {
	added := string(createLineDiff([]byte("line1\nline2\n"), []byte("line1\nline2\nline3\n")))
	if !strings.Contains(added, "<<<<<<< mine") || !strings.Contains(added, "line3") {
		t.Errorf("Addition not marked:\n%s", added)
	}

	removed := string(createLineDiff([]byte("line1\nline2\nline3\n"), []byte("line1\nline3\n")))
	if !strings.Contains(removed, "<<<<<<< mine\nline2\n=======") {
		t.Errorf("Removal not marked:\n%s", removed)
	}
}

func TestHasConflictMarkers(t *testing.T) {
	if !hasConflictMarkers([]byte("a\n<<<<<<< mine\nb\n")) {
		t.Error("Opening marker not detected")
	}
	if hasConflictMarkers([]byte("plain text\n")) {
		t.Error("Plain text flagged as conflicted")
	}
}

func TestHandleConflict_Strategies(t *testing.T) {
	mine, disk := []byte("mine\n"), []byte("disk\n")

	tests := []struct {
		strategy MergeStrategy
		want     ConflictResolution
	}{
		{StrategyKeepMine, ResolutionKeepMine},
		{StrategyUseDisk, ResolutionUseDisk},
		{StrategyKeepBoth, ResolutionKeepBoth},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			result, err := HandleConflict("notes.txt", mine, disk, tt.strategy, "")
			if err != nil {
				t.Fatalf("HandleConflict: %v", err)
			}
			if result.Resolution != tt.want {
				t.Errorf("Resolution = %v, want %v", result.Resolution, tt.want)
			}
		})
	}

	result, err := HandleConflict("notes.txt", mine, disk, StrategyAbort, "")
	if !errors.Is(err, ErrConcurrentChange) {
		t.Errorf("Abort: got %v, want ErrConcurrentChange", err)
	}
	if result.Resolution != ResolutionSkip {
		t.Errorf("Abort resolution = %v, want skip", result.Resolution)
	}
}

func TestGetEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")

	if got := getEditor("code --wait"); got != "code --wait" {
		t.Errorf("Override ignored: %q", got)
	}
	if got := getEditor(""); got != "nano" {
		t.Errorf("EDITOR ignored: %q", got)
	}
	t.Setenv("VISUAL", "vim")
	if got := getEditor(""); got != "vim" {
		t.Errorf("VISUAL should win over EDITOR: %q", got)
	}
}

func TestCreateTempFile_Scrub(t *testing.T) {
	name, err := createTempFile("cryptopad-test", "notes.md", []byte("secret"))
	if err != nil {
		t.Fatalf("createTempFile: %v", err)
	}
	if !strings.HasSuffix(name, ".md") {
		t.Errorf("Extension not kept: %s", name)
	}
	info, err := os.Stat(name)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Temp file mode = %v, want 0600", info.Mode().Perm())
	}

	scrubTempFile(name)
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Error("Temp file not removed")
	}
}

func TestGenerateUnifiedDiff(t *testing.T) {
	out, err := GenerateUnifiedDiff("a.txt", "b.txt", []byte("same\n"), []byte("same\n"))
	if err != nil || out != "" {
		t.Errorf("Identical inputs: %q, %v", out, err)
	}

	out, err = GenerateUnifiedDiff("a.txt", "b.txt", []byte("one\ntwo\n"), []byte("one\nthree\n"))
	if err != nil {
		t.Fatalf("GenerateUnifiedDiff: %v", err)
	}
	for _, want := range []string{"--- a/a.txt", "+++ b/b.txt", "@@", "-two", "+three"} {
		if !strings.Contains(out, want) {
			t.Errorf("Diff missing %q:\n%s", want, out)
		}
	}

	out, _ = GenerateUnifiedDiff("a.bin", "b.bin", []byte{0, 1}, []byte{0, 2})
	if out != "Binary files a.bin and b.bin differ\n" {
		t.Errorf("Binary diff: %q", out)
	}
}
