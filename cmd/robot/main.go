// Package main is the entry point of the vehicle process.
// It loads the configuration, constructs the System and runs it until an
// interrupt or a client BYE.
package main

import (
	"RLoader/internal/core"
	"RLoader/internal/model"
	"RLoader/internal/util"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		util.Logger.Warnf("[Main] .env: %v", err)
	}

	cfgPath := os.Getenv("RLOADER_CONFIG")
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		util.Logger.Fatalf("[Main] %v", err)
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	util.SetupLogger(cfg.LogLevel)
	if cfgPath != "" {
		util.Info("[Main] Using config: %s", cfgPath)
	}

	// wait for Ctrl+C, SIGTERM or a client BYE
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := core.NewSystem(ctx, cfg, stop)
	if err != nil {
		util.Logger.Fatalf("[Main] failed to create system: %v", err)
	}
	if err := sys.StartAll(ctx); err != nil {
		util.Logger.Fatalf("[Main] failed to start system: %v", err)
	}

	<-ctx.Done()
	util.Info("[Main] Shutting down system...")
	sys.StopAll()
	util.Info("[Main] System stopped cleanly.")
}
