package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"flipfield.gg/internal/gateway"
	"flipfield.gg/internal/journal"
	"flipfield.gg/internal/keyindex"
	"flipfield.gg/internal/pipeline"
	"flipfield.gg/internal/tuning"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		url        = flag.String("url", "", "gateway ws url (overrides tuning)")
		grid       = flag.String("grid", "", "grid id (overrides tuning)")
		identity   = flag.String("identity", "", "own account id (overrides tuning)")
		statsEvery = flag.Duration("stats_every", 10*time.Second, "metrics log interval (0 to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if v := strings.TrimSpace(*url); v != "" {
		cfg.GatewayURL = v
	}
	if v := strings.TrimSpace(*grid); v != "" {
		cfg.Grid = v
	}
	if v := strings.TrimSpace(*identity); v != "" {
		cfg.Identity = v
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	keys, err := keyindex.Open(cfg.KeymapPath)
	if err != nil {
		logger.Fatalf("open keymap: %v", err)
	}
	logger.Printf("keymap loaded: %d keys", keys.Len())

	gw, err := gateway.Dial(context.Background(), cfg.GatewayURL, cfg.Grid, logger)
	if err != nil {
		logger.Fatalf("gateway: %v", err)
	}
	defer gw.Close()

	var sink pipeline.OutcomeSink
	if cfg.JournalDir != "" {
		jw := journal.NewWriter(cfg.JournalDir)
		defer jw.Close()
		sink = jw
	}

	p, err := pipeline.New(pipeline.Options{
		Feed:           gw,
		Executor:       gw,
		Keys:           keys,
		Identity:       cfg.Identity,
		Team:           cfg.Team,
		ChunkSize:      cfg.ChunkSize,
		ExecutionDelay: time.Duration(cfg.ExecutionDelayMs) * time.Millisecond,
		SampleFactor:   cfg.SampleFactor,
		RateInterval:   time.Duration(cfg.RateSampleMs) * time.Millisecond,
		Logger:         logger,
		Sink:           sink,
	})
	if err != nil {
		logger.Fatalf("pipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		logger.Fatalf("start: %v", err)
	}
	logger.Printf("watching grid %s as %s (chunk=%d delay=%dms factor=%.2f)",
		cfg.Grid, cfg.Identity, cfg.ChunkSize, cfg.ExecutionDelayMs, cfg.SampleFactor)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var ticks <-chan time.Time
	if *statsEvery > 0 {
		t := time.NewTicker(*statsEvery)
		defer t.Stop()
		ticks = t.C
	}

	for {
		select {
		case <-stop:
			logger.Printf("stopping")
			p.Stop()
			return
		case <-ticks:
			s := p.Metrics()
			logger.Printf("flips=%d ok=%d fail=%d avg=%.1fms decode_err=%d pending=%d done=%d rate=%s",
				s.Total, s.Succeeded, s.Failed, s.AvgResponseMs, s.DecodeErrors,
				len(p.Pending()), len(p.Completed()), summarizeRate(p.RateSamples()))
		}
	}
}

func summarizeRate(samples []float64) string {
	if len(samples) == 0 {
		return "n/a"
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return fmt.Sprintf("%.2f/s", sum/float64(len(samples)))
}
