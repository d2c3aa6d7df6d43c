package cli

import (
	"fmt"
	"io"
)

// BashCompletion is the bash completion script for aplctl.
const BashCompletion = `#!/bin/bash
# Bash completion for aplctl

_aplctl_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="list get remove completion"
    local global_flags="-env-file -show-tokens"

    case "${prev}" in
        -env-file)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${commands} ${global_flags}" -- ${cur}) )
    return 0
}

complete -F _aplctl_completion aplctl
`

// ZshCompletion is the zsh completion script for aplctl.
const ZshCompletion = `#compdef aplctl

_aplctl() {
    local -a commands
    commands=(
        'list:List installations'
        'get:Show one installation'
        'remove:Remove an installation'
        'completion:Generate shell completion script'
    )

    _arguments \
        '-env-file[Environment file]:file:_files' \
        '-show-tokens[Print auth tokens unmasked]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_aplctl
`

// FishCompletion is the fish completion script for aplctl.
const FishCompletion = `# Fish completion for aplctl

complete -c aplctl -f -n "__fish_use_subcommand" -a "list" -d "List installations"
complete -c aplctl -f -n "__fish_use_subcommand" -a "get" -d "Show one installation"
complete -c aplctl -f -n "__fish_use_subcommand" -a "remove" -d "Remove an installation"
complete -c aplctl -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"
complete -c aplctl -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
complete -c aplctl -o env-file -r -d "Environment file"
complete -c aplctl -o show-tokens -d "Print auth tokens unmasked"
`

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell string) error {
	var script string

	switch shell {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}

	_, err := io.WriteString(w, script)
	return err
}
