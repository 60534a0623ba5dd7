package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"ratebot/config"
	"ratebot/internal/app"
	"ratebot/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to start bot", zap.Error(err))
	}

	log.Info("starting bot", zap.String("env", cfg.Env))
	if err := bot.Run(ctx); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
		return
	}
	log.Info("bot stopped")
}
