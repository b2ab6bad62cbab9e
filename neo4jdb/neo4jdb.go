// Package neo4jdb adapts the official Neo4j Go driver to the writer's
// session contract: managed write transactions with per-transaction
// timeouts and an optional transaction rate limit.
package neo4jdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"golang.org/x/time/rate"

	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/writer"
)

// Config holds connection settings for the Neo4j database
type Config struct {
	URI      string
	Username string
	Password string
	// Database selects the target database, empty for the server default
	Database string
	// TransactionTimeout bounds each transaction; exceeding it is a
	// transient error subject to retry
	TransactionTimeout time.Duration
	// MaxTransactionsPerSecond throttles transaction submission,
	// 0 disables throttling
	MaxTransactionsPerSecond float64
}

// DefaultConfig returns sensible connection defaults
func DefaultConfig() Config {
	return Config{
		URI:                "bolt://localhost:7687",
		TransactionTimeout: 30 * time.Second,
	}
}

// DB wraps a Neo4j driver as a writer session
type DB struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.WrapInvalid(err, "neo4jdb", "Connect", "create driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.WrapTransient(err, "neo4jdb", "Connect", "verify connectivity")
	}

	var limiter *rate.Limiter
	if cfg.MaxTransactionsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxTransactionsPerSecond), 1)
	}

	timeout := cfg.TransactionTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().TransactionTimeout
	}

	logger.Info("connected to graph database", "uri", cfg.URI, "database", cfg.Database)
	return &DB{
		driver:   driver,
		database: cfg.Database,
		timeout:  timeout,
		limiter:  limiter,
		logger:   logger.With("component", "neo4jdb"),
	}, nil
}

// Driver exposes the underlying driver. The engine publishes it under the
// graph_driver shared-state slot for wrappers needing ad-hoc queries.
func (d *DB) Driver() neo4j.DriverWithContext {
	return d.driver
}

// Close shuts the driver down
func (d *DB) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// ExecuteWrite runs work inside one managed write transaction
func (d *DB) ExecuteWrite(ctx context.Context, work func(tx writer.Transaction) error) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(&managedTx{tx: tx})
	}, neo4j.WithTxTimeout(d.timeout))
	if err != nil {
		if ctx.Err() != nil || neo4j.IsRetryable(err) {
			return errors.WrapTransient(err, "neo4jdb", "ExecuteWrite", "transaction")
		}
		return err
	}
	return nil
}

// Run executes a single auto-commit statement outside the batch pipeline.
// Intended for wrapper code doing ad-hoc lookups.
func (d *DB) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

// Run executes one statement inside the managed transaction
func (t *managedTx) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

// rowsFromRecords flattens driver records into key/value rows
func rowsFromRecords(records []*db.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		rows = append(rows, row)
	}
	return rows
}
