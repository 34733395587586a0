package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mu0717/email/cmd/mailadm/cmd"
)

const exitCodeInterrupted = 130 // 128 + SIGINT, mirrors shell convention

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.ExecuteContext(ctx)
	interrupted := errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled
	cancel()

	switch {
	case err == nil:
	case interrupted:
		os.Exit(exitCodeInterrupted)
	default:
		os.Exit(1)
	}
}
