package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(ExitUsage)
	}
}

const bashCompletion = `_cryptopad() {
    local cur prev words cword
    _init_completion || return

    local commands="lock unlock cat edit passwd diff info ls status forget keyring compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        lock)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--version" -- "$cur"))
            else
                _filedir
            fi
            ;;
        edit)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--new --keep-mine --use-disk --keep-both --abort-on-conflict" -- "$cur"))
            else
                _filedir
            fi
            ;;
        unlock|cat|passwd|diff|info)
            _filedir
            ;;
        forget)
            # Complete with cataloged documents
            local files
            files=$(cryptopad ls 2>/dev/null | grep -E '^  [*.!-] ' | sed 's/^  . //' | sed 's/ (.*//')
            COMPREPLY=($(compgen -W "$files" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                _filedir
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _cryptopad cryptopad
`

const zshCompletion = `#compdef cryptopad

_cryptopad() {
    local -a commands
    commands=(
        'lock:Encrypt documents in place'
        'unlock:Decrypt documents in place'
        'cat:Print the decrypted contents of a document'
        'edit:Edit a document in $EDITOR'
        'passwd:Change the password of a document'
        'diff:Compare the contents of two documents'
        'info:Show container details without a password'
        'ls:Show cataloged documents'
        'status:Show cataloged documents'
        'forget:Remove documents from the catalog'
        'keyring:Manage document passwords in the OS keyring'
        'compact:Compact the catalog to reclaim disk space'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'cryptopad commands' commands
            ;;
        args)
            case "${words[2]}" in
                lock)
                    _arguments \
                        '--version[AE version for new containers (1 or 2)]:version:(1 2)' \
                        '*:file:_files'
                    ;;
                edit)
                    _arguments \
                        '--new[Start protecting a plain or new file]' \
                        '--keep-mine[On conflict, keep the edited version]' \
                        '--use-disk[On conflict, keep the version on disk]' \
                        '--keep-both[On conflict, save the edit as .mine]' \
                        '--abort-on-conflict[On conflict, fail without writing]' \
                        ':file:_files'
                    ;;
                unlock|cat|passwd|diff|info)
                    _arguments '*:file:_files'
                    ;;
                forget)
                    _arguments '*:cataloged document:_cryptopad_documents'
                    ;;
                keyring)
                    _arguments '1:subcommand:(save delete status)' '2:file:_files'
                    ;;
                help)
                    _describe -t commands 'cryptopad commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_cryptopad_documents() {
    local -a files
    files=(${(f)"$(cryptopad ls 2>/dev/null | grep -E '^  [*.!-] ' | sed 's/^  . //' | sed 's/ (.*//')"})
    _describe -t files 'cataloged documents' files
}

_cryptopad "$@"
`

const fishCompletion = `# cryptopad fish completions

set -l commands lock unlock cat edit passwd diff info ls status forget keyring compact help completion

complete -c cryptopad -f

# Commands
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a lock -d 'Encrypt documents in place'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Decrypt documents in place'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a cat -d 'Print a document'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a edit -d 'Edit a document'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change document password'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare two documents'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a info -d 'Show container details'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a ls -d 'Show cataloged documents'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show cataloged documents'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a forget -d 'Remove from catalog'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage passwords in OS keyring'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact catalog'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c cryptopad -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# file arguments
complete -c cryptopad -n "__fish_seen_subcommand_from lock unlock cat edit passwd diff info keyring forget" -F

# lock flags
complete -c cryptopad -n "__fish_seen_subcommand_from lock" -l version -x -a "1 2" -d 'AE version'

# edit flags
complete -c cryptopad -n "__fish_seen_subcommand_from edit" -l new -d 'Start protecting a file'
complete -c cryptopad -n "__fish_seen_subcommand_from edit" -l keep-mine -d 'On conflict keep my edit'
complete -c cryptopad -n "__fish_seen_subcommand_from edit" -l use-disk -d 'On conflict keep disk version'
complete -c cryptopad -n "__fish_seen_subcommand_from edit" -l keep-both -d 'On conflict save edit as .mine'
complete -c cryptopad -n "__fish_seen_subcommand_from edit" -l abort-on-conflict -d 'On conflict fail without writing'

# keyring subcommands
complete -c cryptopad -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c cryptopad -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c cryptopad -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
