package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelpento.lv/flasharb/cmd"
	"github.com/michaelpento.lv/flasharb/utils"
)

func main() {
	defer utils.CleanupLogger()

	// Cancel in-flight work on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.CleanupLogger()
		os.Exit(1)
	}
}
