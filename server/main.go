package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/interpreter"
	"github.com/meikuraledutech/automata/postgres"
)

type config struct {
	DatabaseURL string
	ListenAddr  string
	LogLevel    log.Level
	Interpreter interpreter.Config
}

func loadConfig() (config, error) {
	cfg := config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  envOr("LISTEN_ADDR", ":3000"),
		LogLevel:    log.LevelInfo,
		Interpreter: interpreter.DefaultConfig(),
	}
	if v := os.Getenv("FAIR_ABSTRACTION"); v != "" {
		fair, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("FAIR_ABSTRACTION: %w", err)
		}
		cfg.Interpreter.FairAbstraction = fair
	}
	if v := os.Getenv("MARKING_BOUND"); v != "" {
		bound, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MARKING_BOUND: %w", err)
		}
		cfg.Interpreter.MarkingBound = bound
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return log.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", s)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	automata.SetDebug(cfg.LogLevel <= log.LevelDebug)

	var store automata.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	} else {
		log.Warnw("DATABASE_URL is not set, persistence disabled")
	}

	app := newApp(store, cfg.Interpreter)
	log.Infow("listening", "addr", cfg.ListenAddr, "fair", cfg.Interpreter.FairAbstraction, "markingBound", cfg.Interpreter.MarkingBound)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
