package main

import (
	"context"
	"os/signal"
	"syscall"

	"DealEventScraper/cmd/dealeventscraper/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
