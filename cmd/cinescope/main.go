// Command cinescope assembles TMDB movie detail pages from the command line
// or serves them over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: cinescope <command> [flags] [args]

Commands:
  detail <movie-id>   Assemble and print one movie detail page
  watch               Read movie ids from stdin; newer ids supersede older ones
  search <query>      Search movies by title
  serve               Run the HTTP and WebSocket server

Run "cinescope <command> -h" for command flags.
`

// errUsage marks a bad invocation; it exits with status 2.
var errUsage = errors.New("usage error")

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"detail": runDetail,
	"watch":  runWatch,
	"search": runSearch,
	"serve":  runServe,
}

// env holds the process streams so commands can be run from tests.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], &env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}))
}

func run(ctx context.Context, args []string, e *env) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(e.stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(e.stderr, "cinescope: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	err := cmd(ctx, e, args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errReported):
		return 1
	default:
		fmt.Fprintf(e.stderr, "cinescope %s: %v\n", args[0], err)
		return 1
	}
}
