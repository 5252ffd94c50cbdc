package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/site-connector/pkg/connector"
)

// Exit codes for the connect CLI.
const (
	ExitSuccess      = 0
	ExitRequestError = 1
	ExitConfigError  = 3
	ExitUsageError   = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(exitCode(err))
	}
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type setupError struct{ err error }

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		usage  *usageError
		setup  *setupError
		cfgErr *connector.ConfigError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage), errors.As(err, &cfgErr):
		return ExitUsageError
	case errors.As(err, &setup):
		return ExitConfigError
	default:
		return ExitRequestError
	}
}
