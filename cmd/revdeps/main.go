package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/revdeps/internal/cli"
	revderrors "github.com/matzehuels/revdeps/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stdout, os.Stderr, cli.LogInfo)
	if err := c.Execute(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, cli.StyleError.Render("error:"), revderrors.UserMessage(err))
		os.Exit(1)
	}
}
