// Package main is the entry point for the taxonomy admin CLI. It wires the
// configured category store (PostgreSQL, optionally behind the Valkey
// cache, or an in-memory store) into a set of cobra commands.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Minimal logger until the configuration is loaded.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds a fresh command tree, executes it and releases every
// connection it opened.
func run(ctx context.Context, out io.Writer, args []string) error {
	a := &app{out: out}
	defer a.close()

	root := newRootCmd(a)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
