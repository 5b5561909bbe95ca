package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/cryptopad/internal/config"
	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/core"
	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/keyring"
	"github.com/illarion/cryptopad/internal/security"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitPassword = 3 // wrong or missing password
	ExitCorrupt  = 4 // the container is damaged
)

// PasswordSource tells where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
	SourceReused // accepted for an earlier document in the same command
)

var (
	settings = config.Default()
	logger   = logrus.New()
)

// Configure installs the settings and logger used by every command.
func Configure(cfg *config.Config, log *logrus.Logger) {
	settings = cfg
	logger = log
}

// openPad opens the workspace in the current directory, exiting on error.
func openPad() *core.Pad {
	pad, err := core.New(".", core.OptionsFromConfig(settings, logger))
	if err != nil {
		HandleError(err)
	}
	return pad
}

// resolve turns a command-line argument into a document path, exiting on error.
func resolve(pad *core.Pad, arg string) string {
	path, err := pad.Resolve(arg)
	if err != nil {
		HandleError(err)
	}
	return path
}

// usageError prints a usage message and exits.
func usageError(usage string) {
	fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
	os.Exit(ExitUsage)
}

// keyringID returns the catalog ID of a document for keyring lookups, or ""
// when the keyring is disabled or the document is not cataloged.
func keyringID(pad *core.Pad, path string) string {
	if !settings.Keyring {
		return ""
	}
	entry, err := pad.LookupEntry(path)
	if err != nil || entry == nil {
		return ""
	}
	return entry.ID
}

// GetPasswordWithRetry obtains a password that passes verify. It tries
// CRYPTOPAD_PASSWORD, then the keyring entry for docID, then prompts up to
// max_attempts times. A keyring entry that no longer works is removed.
// The caller is responsible for calling crypto.ClearBytes on the result.
func GetPasswordWithRetry(prompt, docID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, fmt.Errorf("%s: %w", config.EnvPassword, err)
		}
		return password, SourceEnv, nil
	}

	if docID != "" {
		if stored, err := keyring.GetPassword(docID); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !container.IsPasswordError(err) {
				return nil, SourceKeyring, err
			}
			logger.WithField("id", docID).Warn("stored keyring password no longer works; removing it")
			_ = keyring.Forget(docID)
		}
	}

	attempts := settings.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		password, err := core.ReadPassword(prompt)
		if err != nil {
			return nil, SourcePrompt, err
		}
		err = verify(password)
		if err == nil {
			return password, SourcePrompt, nil
		}
		crypto.ClearBytes(password)
		if !container.IsPasswordError(err) {
			return nil, SourcePrompt, err
		}
		lastErr = err
		if i < attempts-1 {
			fmt.Fprintln(os.Stderr, "Wrong password, try again.")
		}
	}
	return nil, SourcePrompt, lastErr
}

// GetNewPassword returns the password for newly protected documents:
// CRYPTOPAD_PASSWORD if set, otherwise a confirmed prompt.
func GetNewPassword() ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}
	password, err := core.ReadPasswordConfirm()
	return password, SourcePrompt, err
}

// unlockPassword gets the password for a locked document, trying previous
// first so several documents sharing a password prompt only once.
func unlockPassword(pad *core.Pad, path string, previous []byte) ([]byte, PasswordSource, error) {
	verify := func(pw []byte) error { return pad.VerifyPassword(path, pw) }
	if previous != nil && verify(previous) == nil {
		password := make([]byte, len(previous))
		copy(password, previous)
		return password, SourceReused, nil
	}
	return GetPasswordWithRetry(fmt.Sprintf("Password for %s: ", path), keyringID(pad, path), verify)
}

// OfferToSavePassword asks whether to store a prompted password in the
// keyring for the given documents. It does nothing when the keyring is
// disabled or stdin is not a terminal.
func OfferToSavePassword(docIDs []string, password []byte) {
	if !settings.Keyring || len(docIDs) == 0 || !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	fmt.Fprint(os.Stderr, "Save password to keyring? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	if response != "y" && response != "yes" {
		return
	}

	for _, id := range docIDs {
		if err := keyring.SavePassword(id, string(password)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
			return
		}
	}
	fmt.Fprintln(os.Stderr, "Password saved to keyring")
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch container.Status(err) {
	case container.CodeBadPassword, container.CodeNoPassword, container.CodeAuthentication:
		return ExitPassword
	case container.CodeIntegrity, container.CodeCodec, container.CodeNotContainer, container.CodeOutOfMemory:
		return ExitCorrupt
	}
	return ExitError
}

// HandleError prints err with a hint where one helps and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNoCatalog):
		fmt.Fprintf(os.Stderr, "Error: no documents cataloged in this directory\n")
		fmt.Fprintf(os.Stderr, "Run 'cryptopad lock <file>' first\n")
	case errors.Is(err, core.ErrAlreadyLocked):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'cryptopad edit' to change it or 'cryptopad passwd' to change its password\n")
	case errors.Is(err, core.ErrNotLocked):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'cryptopad lock' to protect it\n")
	case errors.Is(err, security.ErrPathEscapes), errors.Is(err, security.ErrAbsolutePath):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Documents must live under the current directory\n")
	case container.IsPasswordError(err), errors.Is(err, container.ErrAuthentication):
		fmt.Fprintf(os.Stderr, "Error: wrong password (%s)\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(ExitCode(err))
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
