package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arxivmonitor/internal/app"
	"arxivmonitor/internal/config"
	"arxivmonitor/internal/logging"
)

func main() {
	var (
		collect  = flag.Bool("collect", false, "run paper collection once")
		process  = flag.Bool("process", false, "run paper processing once")
		digest   = flag.Bool("digest", false, "send the email digest once")
		schedule = flag.Bool("schedule", false, "run as a scheduled service")
		days     = flag.Int("days", 0, "override number of days to look back for papers")
		limit    = flag.Int("limit", 0, "override number of papers to process")
	)
	flag.Parse()

	if !*collect && !*process && !*digest && !*schedule {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *days > 0 {
		cfg.Arxiv.LookbackDays = *days
	}
	if *limit > 0 {
		cfg.BatchSize = *limit
	}

	logger := logging.New(cfg.LogLevel)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := false
	runStage := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			logger.Error("stage failed", "stage", name, "error", err)
			failed = true
		}
	}

	if *collect {
		runStage("collection", application.RunCollection)
	}
	if *process {
		runStage("processing", application.RunProcessing)
	}
	if *digest {
		runStage("digest", application.RunDigest)
	}
	if *schedule {
		if err := application.RunScheduled(ctx); err != nil {
			logger.Error("scheduler stopped", "error", err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
