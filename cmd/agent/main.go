package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// After the first signal the default handler is restored, so a second
	// Ctrl-C kills the process even if shutdown hangs.
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errConfiguration) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
