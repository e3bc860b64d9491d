package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksmo/producthub/config"
	"github.com/niksmo/producthub/internal/app"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	dashboard := app.New(sigCtx, cfg)

	dashboard.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	dashboard.Close(ctx)
}
