package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/xtding233/enhance-sim/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, service.ErrNoTarget) {
			fmt.Fprintln(os.Stderr, "Pick a target with --target (e.g. 가가승) or --ids.")
		}
		stop()
		os.Exit(1)
	}
}
