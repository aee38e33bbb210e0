package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = []command{
	{name: "init", usage: "Create a container file stamped with a version and a new gid", run: initCmd},
	{name: "info", usage: "Show validity, version, gid and node count", run: infoCmd},
	{name: "ls", usage: "List nodes with dataset shapes", run: lsCmd},
	{name: "meta", usage: "Print the metadata of a node as JSON", run: metaCmd},
	{name: "set-meta", usage: "Set metadata entries key=value on a node", run: setMetaCmd},
	{name: "read", usage: "Print a dataset (or a row range) as JSON", run: readCmd},
	{name: "rm", usage: "Remove a node and everything below it", run: rmCmd},
	{name: "backup", usage: "Copy the file to a local path or afs URL", run: backupCmd},
}

func main() {
	startGops()
	slog.SetDefault(newLogger(os.Getenv("ARRAYFILE_DEBUG") != ""))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	for _, cmd := range commands {
		if cmd.name != os.Args[1] {
			continue
		}
		if err := cmd.run(ctx, os.Args[2:], os.Stdout); err != nil {
			slog.Error(cmd.name+" failed", "error", err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: arrayfile <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", cmd.name, cmd.usage)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		slog.Warn("gops", "error", err)
	}
}
