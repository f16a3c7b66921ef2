package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/admobkit/admob/internal/cmd"
	"github.com/admobkit/admob/internal/cmd/admob"
)

type exitCode int

const (
	exitOK    exitCode = 0
	exitError exitCode = 1
)

func main() {
	code := mainRun()
	os.Exit(int(code))
}

func mainRun() exitCode {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := admob.Execute(ctx)
	if err != nil {
		if !errors.Is(err, cmd.SilentError) {
			printError(os.Stderr, err)
		}
		return exitError
	}

	if !c.Runnable() {
		return exitError
	}

	return exitOK
}

func printError(out io.Writer, err error) {
	fmt.Fprintln(out, err)
}
