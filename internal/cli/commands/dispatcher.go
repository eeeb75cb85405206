package commands

import (
	"VaultSync/internal/cli/api"
	"VaultSync/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Коды выхода vscli.
const (
	ExitOK          = 0
	ExitFailed      = 1
	ExitUsage       = 2
	ExitAuth        = 3
	ExitInterrupted = 130
)

// Dispatch выполняет команду vscli и возвращает код выхода процесса.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" { // vscli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		if c, ok := Get(strings.ToLower(args[1])); ok {
			fmt.Fprintf(Out, "Usage: vscli %s\n  %s\n", c.Usage(), c.Description())
			return ExitOK
		}
		unknownCommand(args[1])
		return ExitUsage
	}

	c, ok := Get(name)
	if !ok {
		unknownCommand(name)
		return ExitUsage
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: vscli %s\n", c.Usage())
		return ExitUsage
	case errors.Is(err, ErrNotLoggedIn):
		fmt.Fprintf(Out, "%s: %v\n", name, err)
		return ExitAuth
	case api.ReasonOf(err) == "unauthorized":
		fmt.Fprintf(Out, "%s: session expired or invalid, run `vscli login <email>`\n", name)
		return ExitAuth
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(Out, "%s: interrupted\n", name)
		return ExitInterrupted
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		return ExitFailed
	}
}

// unknownCommand печатает ошибку и похожие команды вместо полной справки.
func unknownCommand(name string) {
	fmt.Fprintf(Out, "Unknown command: %s\n", name)
	if s := suggest(name); len(s) > 0 {
		fmt.Fprintf(Out, "Did you mean: %s?\n", strings.Join(s, ", "))
	}
	fmt.Fprintln(Out, "Run `vscli help` for the list of commands.")
}

// suggest — команды, имя которых начинается с name или содержит его.
func suggest(name string) []string {
	name = strings.ToLower(name)
	if name == "" {
		return nil
	}
	var out []string
	for _, c := range List() {
		n := c.Name()
		if strings.HasPrefix(n, name) || strings.Contains(n, name) || strings.HasPrefix(name, n) {
			out = append(out, n)
		}
	}
	return out
}
