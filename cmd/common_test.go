package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/core"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"bad password", fmt.Errorf("notes.txt: %w", container.ErrBadPassword), ExitPassword},
		{"no password", container.ErrNoPassword, ExitPassword},
		{"authentication", container.ErrAuthentication, ExitPassword},
		{"crc mismatch", fmt.Errorf("notes.txt: %w", container.ErrIntegrity), ExitCorrupt},
		{"codec", container.ErrCodec, ExitCorrupt},
		{"already locked", core.ErrAlreadyLocked, ExitError},
		{"foreign", errors.New("disk full"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestGetPasswordWithRetry_Env(t *testing.T) {
	t.Setenv("CRYPTOPAD_PASSWORD", "secret")

	var seen string
	password, source, err := GetPasswordWithRetry("unused: ", "", func(pw []byte) error {
		seen = string(pw)
		return nil
	})
	if err != nil {
		t.Fatalf("GetPasswordWithRetry: %v", err)
	}
	if source != SourceEnv || string(password) != "secret" || seen != "secret" {
		t.Errorf("source=%v password=%q seen=%q", source, password, seen)
	}

	_, _, err = GetPasswordWithRetry("unused: ", "", func([]byte) error {
		return container.ErrBadPassword
	})
	if !errors.Is(err, container.ErrBadPassword) {
		t.Errorf("Wrong env password: got %v", err)
	}
}
