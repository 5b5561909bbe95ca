package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/cryptopad/cmd"
	"github.com/illarion/cryptopad/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(cmd.ExitUsage)
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(cmd.ExitError)
	}
	cmd.Configure(cfg, cfg.NewLogger(os.Stderr))

	switch os.Args[1] {
	case "lock":
		runLock(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "cat":
		runCat(ctx, os.Args[2:])
	case "edit":
		runEdit(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "info":
		runInfo(ctx, os.Args[2:])
	case "ls", "status":
		runStatus(ctx, os.Args[2:])
	case "forget":
		runForget(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(cmd.ExitUsage)
	}
}

// parseArgs parses flags for a subcommand and checks the positional count.
// max < 0 means no upper bound.
func parseArgs(fs *flag.FlagSet, args []string, min, max int, usage string) []string {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(cmd.ExitUsage)
	}
	rest := fs.Args()
	if len(rest) < min || (max >= 0 && len(rest) > max) {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(cmd.ExitUsage)
	}
	return rest
}

func runLock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	version := fs.Int("version", 0, "AE version for new containers (1 or 2)")
	files := parseArgs(fs, args, 1, -1, "cryptopad lock [--version 1|2] <file> [file...]")

	cmd.Lock(ctx, files, *version)
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	files := parseArgs(fs, args, 1, -1, "cryptopad unlock <file> [file...]")

	cmd.Unlock(ctx, files)
}

func runCat(_ context.Context, args []string) {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	files := parseArgs(fs, args, 1, 1, "cryptopad cat <file>")

	cmd.Cat(files[0])
}

func runEdit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	newDoc := fs.Bool("new", false, "Start protecting a plain or new file")
	keepMine := fs.Bool("keep-mine", false, "On conflict, keep the edited version")
	useDisk := fs.Bool("use-disk", false, "On conflict, keep the version on disk")
	keepBoth := fs.Bool("keep-both", false, "On conflict, save the edit as <file>.mine")
	abort := fs.Bool("abort-on-conflict", false, "On conflict, fail without writing anything")
	files := parseArgs(fs, args, 1, 1, "cryptopad edit [--new] [--keep-mine|--use-disk|--keep-both|--abort-on-conflict] <file>")

	cmd.Edit(ctx, files[0], *newDoc, *keepMine, *useDisk, *keepBoth, *abort)
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	files := parseArgs(fs, args, 1, 1, "cryptopad passwd <file>")

	cmd.Passwd(ctx, files[0])
}

func runDiff(_ context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	files := parseArgs(fs, args, 2, 2, "cryptopad diff <file-a> <file-b>")

	cmd.Diff(files[0], files[1])
}

func runInfo(_ context.Context, args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	files := parseArgs(fs, args, 1, 1, "cryptopad info <file>")

	cmd.Info(files[0])
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parseArgs(fs, args, 0, 0, "cryptopad status")

	cmd.Status(ctx)
}

func runForget(_ context.Context, args []string) {
	fs := flag.NewFlagSet("forget", flag.ExitOnError)
	files := parseArgs(fs, args, 1, -1, "cryptopad forget <file> [file...]")

	cmd.Forget(files)
}

func runKeyring(_ context.Context, args []string) {
	const usage = "cryptopad keyring <save|delete|status> <file>"
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(cmd.ExitUsage)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(args[1])
	case "delete":
		cmd.KeyringDelete(args[1])
	case "status":
		cmd.KeyringStatus(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\nUsage: %s\n", args[0], usage)
		os.Exit(cmd.ExitUsage)
	}
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parseArgs(fs, args, 0, 0, "cryptopad compact")

	cmd.Compact()
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cryptopad completion <bash|zsh|fish>")
		os.Exit(cmd.ExitUsage)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("cryptopad - Password-protected text documents, readable by any WinZip AES tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cryptopad <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  lock        Encrypt documents in place")
	fmt.Println("  unlock      Decrypt documents in place")
	fmt.Println("  cat         Print the decrypted contents of a document")
	fmt.Println("  edit        Edit a document in $EDITOR and re-encrypt it")
	fmt.Println("  passwd      Change the password of a document")
	fmt.Println("  diff        Compare the contents of two documents")
	fmt.Println("  info        Show container details (no password needed)")
	fmt.Println("  ls, status  Show cataloged documents and their state")
	fmt.Println("  forget      Remove documents from the catalog")
	fmt.Println("  keyring     Manage document passwords in the OS keyring")
	fmt.Println("  compact     Compact the catalog to reclaim disk space")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  cryptopad lock diary.txt          # Encrypt diary.txt in place")
	fmt.Println("  cryptopad edit diary.txt          # Edit it, re-encrypted on save")
	fmt.Println("  cryptopad cat diary.txt | less    # Read it")
	fmt.Println("  cryptopad status                  # See what is locked")
	fmt.Println()
	fmt.Println("Use 'cryptopad help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "lock":
		fmt.Println("cryptopad lock [--version 1|2] <file> [file...]")
		fmt.Println()
		fmt.Println("Encrypts each file in place as a WinZip AES-256 container that any")
		fmt.Println("compatible archive tool can open with the password.")
		fmt.Println("All files get the same password. Already locked files are skipped.")
		fmt.Println("The password is not stored anywhere unless you save it to the keyring.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --version N   AE-1 (stores a CRC-32) or AE-2 (MAC only); default from config")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  cryptopad lock notes.txt")
		fmt.Println("  cryptopad lock --version 2 a.txt b.txt")
	case "unlock":
		fmt.Println("cryptopad unlock <file> [file...]")
		fmt.Println()
		fmt.Println("Decrypts each file in place. Documents sharing a password prompt once.")
		fmt.Println("Warns when the decrypted file is tracked by git or not ignored.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  cryptopad unlock notes.txt")
	case "cat":
		fmt.Println("cryptopad cat <file>")
		fmt.Println()
		fmt.Println("Writes the decrypted contents to stdout. Plain files are printed as-is.")
		fmt.Println("Prompts and log messages go to stderr.")
	case "edit":
		fmt.Println("cryptopad edit [--new] [--keep-mine|--use-disk|--keep-both|--abort-on-conflict] <file>")
		fmt.Println()
		fmt.Println("Decrypts the document to a private temp file, opens $VISUAL or $EDITOR")
		fmt.Println("and re-encrypts the result with the same password when it changed.")
		fmt.Println("The temp file is overwritten and removed afterwards.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --new         Encrypt a plain or missing file under a new password")
		fmt.Println("  --keep-mine   If the file changed on disk meanwhile, keep your edit")
		fmt.Println("  --use-disk    If the file changed on disk meanwhile, discard your edit")
		fmt.Println("  --keep-both   If the file changed on disk meanwhile, save your edit as <file>.mine")
		fmt.Println("  --abort-on-conflict")
		fmt.Println("                If the file changed on disk meanwhile, fail and write nothing")
		fmt.Println()
		fmt.Println("Interactive conflict resolution (default) offers:")
		fmt.Println("    [m] Keep mine (overwrite disk)")
		fmt.Println("    [d] Use disk version (discard my edit)")
		fmt.Println("    [e] Edit merged (opens in $EDITOR, text files only)")
		fmt.Println("    [b] Keep both (save mine as <file>.mine)")
		fmt.Println("    [x] Skip")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  cryptopad edit notes.txt")
		fmt.Println("  cryptopad edit --new journal/2026.txt")
	case "passwd":
		fmt.Println("cryptopad passwd <file>")
		fmt.Println()
		fmt.Println("Re-encrypts a locked document under a new password with a fresh salt.")
		fmt.Println("A keyring entry for the document is updated.")
	case "diff":
		fmt.Println("cryptopad diff <file-a> <file-b>")
		fmt.Println()
		fmt.Println("Shows a unified diff of the decrypted contents. Either side may be")
		fmt.Println("locked or plain; each locked side asks for its own password.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  cryptopad diff notes.txt notes.txt.mine")
	case "info":
		fmt.Println("cryptopad info <file>")
		fmt.Println()
		fmt.Println("Shows whether the file is locked, its AES strength, AE version, sizes,")
		fmt.Println("CRC-32 and modification time. Does not require a password.")
	case "ls", "status":
		fmt.Println("cryptopad status")
		fmt.Println()
		fmt.Println("Lists cataloged documents with their state (locked, unlocked, missing),")
		fmt.Println("flags files that changed behind the catalog and reports git exposure")
		fmt.Println("of unlocked documents. Does not require a password.")
	case "forget":
		fmt.Println("cryptopad forget <file> [file...]")
		fmt.Println()
		fmt.Println("Removes documents from the catalog and their passwords from the keyring.")
		fmt.Println("The files are left as they are.")
	case "keyring":
		fmt.Println("cryptopad keyring <save|delete|status> <file>")
		fmt.Println()
		fmt.Println("Manages the password of one document in the OS keyring.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  cryptopad keyring save notes.txt")
		fmt.Println("  cryptopad keyring status notes.txt")
	case "compact":
		fmt.Println("cryptopad compact")
		fmt.Println()
		fmt.Println("Compacts the .cryptopad catalog to reclaim unused disk space.")
		fmt.Println("Does not require a password.")
	case "completion":
		fmt.Println("cryptopad completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(cryptopad completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(cryptopad completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  cryptopad completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
