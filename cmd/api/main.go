package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pollster/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (stores + voting module + HTTP server).
// 3) Serve until SIGINT/SIGTERM.
func main() {
	log.Println("pollster api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		log.Printf("pollster api stopped with error: %v", err)
	}
}
