package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"i14yimport/internal/config"
	"i14yimport/internal/listener"
	"i14yimport/internal/logger"
	"i14yimport/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	must(cfg.Require("I14Y_API_TOKEN", cfg.APIToken))
	must(cfg.Require("I14Y_PUBLISHER_IDENTIFIER", cfg.PublisherIdentifier))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := listener.NewService(db, cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
