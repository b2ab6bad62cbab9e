package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	SchemaPath string
	SourcePath string
	Tables     string

	URI      string
	Username string
	Password string
	Database string

	Serial             bool
	Workers            int
	BatchSize          int
	TransactionTimeout time.Duration
	RetryMax           int

	LogLevel  string
	LogFormat string

	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.SchemaPath, "schema",
		getEnv("RELGRAPH_SCHEMA", "schema.conf"),
		"Path to the conversion schema file (env: RELGRAPH_SCHEMA)")

	flag.StringVar(&cfg.SourcePath, "source",
		getEnv("RELGRAPH_SOURCE", ""),
		"Path to the SQLite source database (env: RELGRAPH_SOURCE)")

	flag.StringVar(&cfg.Tables, "tables", "",
		"Comma-separated tables to convert, empty for all tables")

	flag.StringVar(&cfg.URI, "uri",
		getEnv("RELGRAPH_NEO4J_URI", "bolt://localhost:7687"),
		"Neo4j connection URI (env: RELGRAPH_NEO4J_URI)")

	flag.StringVar(&cfg.Username, "user",
		getEnv("RELGRAPH_NEO4J_USER", "neo4j"),
		"Neo4j username (env: RELGRAPH_NEO4J_USER)")

	flag.StringVar(&cfg.Password, "password",
		getEnv("RELGRAPH_NEO4J_PASSWORD", ""),
		"Neo4j password (env: RELGRAPH_NEO4J_PASSWORD)")

	flag.StringVar(&cfg.Database, "database",
		getEnv("RELGRAPH_NEO4J_DATABASE", ""),
		"Neo4j database name, empty for the server default (env: RELGRAPH_NEO4J_DATABASE)")

	flag.BoolVar(&cfg.Serial, "serial", false,
		"Process resources strictly in iterator order (single worker)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("RELGRAPH_WORKERS", 0),
		"Worker pool size, 0 for cores-2 (env: RELGRAPH_WORKERS)")

	flag.IntVar(&cfg.BatchSize, "batch-size",
		getEnvInt("RELGRAPH_BATCH_SIZE", 5000),
		"Resources per commit batch (env: RELGRAPH_BATCH_SIZE)")

	flag.DurationVar(&cfg.TransactionTimeout, "transaction-timeout",
		getEnvDuration("RELGRAPH_TRANSACTION_TIMEOUT", 30*time.Second),
		"Per-transaction timeout (env: RELGRAPH_TRANSACTION_TIMEOUT)")

	flag.IntVar(&cfg.RetryMax, "retry-max",
		getEnvInt("RELGRAPH_RETRY_MAX", 3),
		"Additional attempts after transient graph errors (env: RELGRAPH_RETRY_MAX)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("RELGRAPH_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: RELGRAPH_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("RELGRAPH_LOG_FORMAT", "text"),
		"Log format: json, text (env: RELGRAPH_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Compile the schema and exit")

	flag.Usage = printHelp
	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.SchemaPath); err != nil {
		return fmt.Errorf("schema file not found: %s", cfg.SchemaPath)
	}

	if !cfg.Validate {
		if cfg.SourcePath == "" {
			return fmt.Errorf("a source database is required (-source)")
		}
		if _, err := os.Stat(cfg.SourcePath); err != nil {
			return fmt.Errorf("source database not found: %s", cfg.SourcePath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func tableList(cfg *CLIConfig) []string {
	if cfg.Tables == "" {
		return nil
	}
	parts := strings.Split(cfg.Tables, ",")
	tables := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tables = append(tables, trimmed)
		}
	}
	return tables
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - relational to graph conversion

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a SQLite database into Neo4j
  %s -schema schema.conf -source data.db -password secret

  # Convert two tables, strictly in row order
  %s -schema schema.conf -source data.db -tables Flower,Person -serial

  # Compile the schema without converting
  %s -schema schema.conf -validate
`, os.Args[0], os.Args[0], os.Args[0])
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
