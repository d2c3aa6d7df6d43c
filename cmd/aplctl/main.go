// Package main implements aplctl, an operator tool for inspecting and pruning
// the installation store used by saleor-app.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/app/runtime"
	"github.com/logistiker/saleor-app/internal/cli"
	"github.com/logistiker/saleor-app/internal/config"
	"github.com/logistiker/saleor-app/internal/logging"
)

const usage = `Usage: aplctl [flags] <command> [args]

Commands:
  list                 List installations
  get <apiUrl>         Show one installation
  remove <apiUrl>      Remove an installation
  completion <shell>   Print a bash, zsh or fish completion script

Flags:
`

// openStore opens the configured store. Tests replace it.
type openStore func(ctx context.Context) (apl.Store, func() error, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open openStore) int {
	fs := flag.NewFlagSet("aplctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "Environment file loaded before reading configuration")
	showTokens := fs.Bool("show-tokens", false, "Print auth tokens unmasked")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	out := cli.NewPrinter(stdout)
	errOut := cli.NewPrinter(stderr)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	cmd, rest := rest[0], rest[1:]

	if cmd == "completion" {
		if len(rest) != 1 {
			errOut.Error("completion requires a shell name")
			return 2
		}
		if err := cli.GenerateCompletion(stdout, rest[0]); err != nil {
			errOut.Error(err.Error())
			return 2
		}
		return 0
	}

	switch cmd {
	case "list":
		if len(rest) != 0 {
			errOut.Error("list takes no arguments")
			return 2
		}
	case "get", "remove":
		if len(rest) != 1 {
			errOut.Error(cmd + " requires an apiUrl")
			return 2
		}
	default:
		errOut.Error("unknown command " + cmd)
		fs.Usage()
		return 2
	}

	if open == nil {
		open = func(ctx context.Context) (apl.Store, func() error, error) {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return nil, nil, err
			}
			log := logging.New("aplctl", cfg.Logging.Level, cfg.Logging.Format)
			log.SetOutput(stderr)
			return runtime.BuildStore(ctx, cfg.APL, log)
		}
	}
	store, closeStore, err := open(ctx)
	if err != nil {
		errOut.Error(err.Error())
		return 1
	}
	defer closeStore()

	mask := func(rec apl.Record) apl.Record {
		if !*showTokens {
			rec.AuthToken = cli.MaskToken(rec.AuthToken)
		}
		return rec
	}

	switch cmd {
	case "list":
		records, err := store.List(ctx)
		if err != nil {
			errOut.Error(err.Error())
			return 1
		}
		for i := range records {
			records[i] = mask(records[i])
		}
		if err := out.JSON(records); err != nil {
			return 1
		}
	case "get":
		rec, ok, err := store.Get(ctx, rest[0])
		if err != nil {
			errOut.Error(err.Error())
			return 1
		}
		if !ok {
			errOut.Error("no installation for " + rest[0])
			return 1
		}
		if err := out.JSON(mask(rec)); err != nil {
			return 1
		}
	case "remove":
		if err := store.Remove(ctx, rest[0]); err != nil {
			errOut.Error(err.Error())
			return 1
		}
		out.Success("removed " + rest[0])
	}
	return 0
}
