package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"tickerboard/internal/bootstrap"
	"tickerboard/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

// One refresh pass over every configured source, printed as JSON.
func main() {
	log := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o, cleanup, err := bootstrap.InitOneShot(ctx)
	if err != nil {
		log.Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	res, runErr := o.Run(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Error("encode results", zap.Error(err))
	}
	if runErr != nil {
		log.Error("refresh pass failed", zap.Error(runErr))
		cleanup()
		os.Exit(1)
	}
}
