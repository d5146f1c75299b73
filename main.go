package main

import (
	"capdissect/internal/app"
	"capdissect/internal/config"
	"capdissect/internal/logger"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if config.IsHelp(err) {
		fmt.Println(err)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "capdissect: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'capdissect --help' for usage.")
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logFile, err := logger.Init(level, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capdissect: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := app.Run(ctx, cfg, os.Stdout, slog.Default()); err != nil {
		slog.Error("run failed", "err", err)
		stop()
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}
