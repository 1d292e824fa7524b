package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"events_widget/infrastructure/config"
	"events_widget/presentation/terminal"

	"github.com/jessevdk/go-flags"
)

func main() {
	opts, err := config.Parse(os.Args[1:], "")
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	termInterface := terminal.NewTerminalInterface(opts, os.Stdout)
	err = termInterface.Run(ctx)
	if closeErr := termInterface.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", closeErr)
	}

	if err != nil {
		if !errors.Is(err, terminal.ErrScenariosFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
