// Package main implements the relgraph command line tool. It converts rows
// of a relational SQLite database into a Neo4j property graph, driven by a
// declarative conversion schema.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/c360/relgraph/commonmodules"
	"github.com/c360/relgraph/converter"
	"github.com/c360/relgraph/neo4jdb"
	"github.com/c360/relgraph/registry"
	"github.com/c360/relgraph/relational/sqlite"
	"github.com/c360/relgraph/schema"
	"github.com/c360/relgraph/writer"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "relgraph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	if err := validateFlags(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cfg.ShowHelp {
		printHelp()
		return nil
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	schemaText, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	// Built-in type-conversion wrappers are always available
	commonmodules.RegisterDefault()

	if cfg.Validate {
		if _, err := schema.Compile(string(schemaText), registry.Default().Snapshot(), logger); err != nil {
			return err
		}
		logger.Info("schema is valid", "path", cfg.SchemaPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineCfg := converter.DefaultConfig()
	engineCfg.Parallel = !cfg.Serial
	if cfg.Workers > 0 {
		engineCfg.Workers = cfg.Workers
	}
	engineCfg.BatchSize = cfg.BatchSize
	engineCfg.TransactionTimeout = cfg.TransactionTimeout
	engineCfg.RetryMax = cfg.RetryMax
	engineCfg.ProgressSink = progressLogger(logger)

	db, err := neo4jdb.Connect(ctx, neo4jdb.Config{
		URI:                cfg.URI,
		Username:           cfg.Username,
		Password:           cfg.Password,
		Database:           cfg.Database,
		TransactionTimeout: cfg.TransactionTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	source, err := sqlite.Open(cfg.SourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	iterator, err := sqlite.DatabaseIterator(source, tableList(cfg)...)
	if err != nil {
		return err
	}

	graphWriter := writer.NewWriter(db, writer.Config{
		RetryMax:     cfg.RetryMax,
		RetryBackoff: engineCfg.RetryBackoff,
	}, logger, nil)

	conv, err := converter.New(string(schemaText), converter.Deps{
		Iterator:    iterator,
		Writer:      graphWriter,
		Logger:      logger,
		GraphDriver: db.Driver(),
	}, engineCfg)
	if err != nil {
		return err
	}

	return conv.Run(ctx)
}

// progressLogger reports phase progress at coarse intervals. The sink is
// called from multiple workers, so the percent tracking is locked.
func progressLogger(logger *slog.Logger) converter.ProgressFunc {
	var mu sync.Mutex
	lastPercent := make(map[converter.Phase]int)
	return func(phase converter.Phase, processed, total int) {
		if total <= 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		percent := processed * 100 / total
		if percent/10 > lastPercent[phase]/10 || processed == total {
			lastPercent[phase] = percent
			logger.Info("progress", "phase", phase, "processed", processed, "total", total)
		}
	}
}
