// Package writer translates batches of subgraphs into graph database
// operations. Each batch commits in a single transaction: merge nodes first,
// then created nodes, then relationships with their endpoints resolved to
// element ids. Transient database errors are retried with bounded
// exponential backoff.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/metric"
	"github.com/c360/relgraph/pkg/cache"
	"github.com/c360/relgraph/pkg/retry"
)

// Transaction runs Cypher statements inside one database transaction
type Transaction interface {
	Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Session executes transactional work against the graph database
type Session interface {
	ExecuteWrite(ctx context.Context, work func(tx Transaction) error) error
}

// Counts reports how many elements one batch committed
type Counts struct {
	Nodes         int
	Relationships int
}

// Config holds writer tuning options
type Config struct {
	// RetryMax is the number of additional attempts after a transient
	// transaction failure
	RetryMax int
	// RetryBackoff is the initial backoff delay between attempts
	RetryBackoff time.Duration
	// MatchCacheSize bounds the per-phase node-match resolution cache
	MatchCacheSize int
}

// DefaultConfig returns the default writer configuration
func DefaultConfig() Config {
	return Config{
		RetryMax:       3,
		RetryBackoff:   500 * time.Millisecond,
		MatchCacheSize: 512,
	}
}

// Writer commits batches of subgraphs to the graph database
type Writer struct {
	session Session
	cfg     Config
	logger  *slog.Logger
	metrics *metric.ConversionMetrics

	// commitMu is the single-entry commit slot serialising transactions to
	// one logical database session
	commitMu sync.Mutex

	matchCache *cache.LRU[[]string]
}

// NewWriter creates a writer over a database session
func NewWriter(session Session, cfg Config, logger *slog.Logger, metrics *metric.ConversionMetrics) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MatchCacheSize <= 0 {
		cfg.MatchCacheSize = DefaultConfig().MatchCacheSize
	}
	return &Writer{
		session:    session,
		cfg:        cfg,
		logger:     logger.With("component", "writer"),
		metrics:    metrics,
		matchCache: cache.NewLRU[[]string](cfg.MatchCacheSize),
	}
}

// ResetMatchCache drops cached node-match resolutions. The engine calls this
// at phase boundaries; within one phase the node set is stable.
func (w *Writer) ResetMatchCache() {
	w.matchCache.Purge()
}

// WriteBatch folds the subgraphs of one batch and commits them in a single
// transaction. On transient failure the whole transaction is retried; after
// retry exhaustion the error is fatal and wraps ErrConversionFailed.
func (w *Writer) WriteBatch(ctx context.Context, batch []*graph.Subgraph) (Counts, error) {
	folded := graph.NewSubgraph()
	for _, sg := range batch {
		folded.Union(sg)
	}
	if folded.Empty() {
		return Counts{}, nil
	}

	w.commitMu.Lock()
	defer w.commitMu.Unlock()

	var counts Counts
	attempt := 0
	retryCfg := retry.Config{
		MaxAttempts:  w.cfg.RetryMax + 1,
		InitialDelay: w.cfg.RetryBackoff,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}

	err := retry.Do(ctx, retryCfg, func() error {
		attempt++
		if attempt > 1 {
			w.metrics.RecordBatchRetry()
			w.logger.Warn("retrying batch transaction", "attempt", attempt)
		}
		counts = Counts{}
		txErr := w.session.ExecuteWrite(ctx, func(tx Transaction) error {
			var err error
			counts, err = w.writeTx(ctx, tx, folded)
			return err
		})
		if txErr != nil && !errors.IsTransient(txErr) {
			return retry.NonRetryable(txErr)
		}
		return txErr
	})
	if err != nil {
		w.metrics.RecordBatchFailed()
		return Counts{}, fmt.Errorf("%w: %v", errors.ErrConversionFailed, err)
	}

	w.metrics.RecordCommitted(counts.Nodes, counts.Relationships)
	return counts, nil
}

// Cleanup removes the internal tag property left on non-merge nodes. Called
// once after both phases complete.
func (w *Writer) Cleanup(ctx context.Context) error {
	w.commitMu.Lock()
	defer w.commitMu.Unlock()

	err := w.session.ExecuteWrite(ctx, func(tx Transaction) error {
		_, err := tx.Run(ctx, cleanupTagsQuery(), nil)
		return err
	})
	return errors.WrapTransient(err, "writer", "Cleanup", "remove tag properties")
}

type nodeGroup struct {
	primaryLabel string
	primaryKey   string
	labels       []string
	rows         []any
}

type relGroup struct {
	relType    string
	primaryKey string
	merge      bool
	rows       []any
}

// writeTx performs the batch passes inside one open transaction
func (w *Writer) writeTx(ctx context.Context, tx Transaction, folded *graph.Subgraph) (Counts, error) {
	var counts Counts

	if err := w.writeNodes(ctx, tx, folded.Nodes(), &counts); err != nil {
		return counts, err
	}
	if err := w.writeRelationships(ctx, tx, folded.Relationships(), &counts); err != nil {
		return counts, err
	}
	return counts, nil
}

// writeNodes emits one bulk MERGE per merge group and one bulk CREATE per
// label group
func (w *Writer) writeNodes(ctx context.Context, tx Transaction, nodes []*graph.Node, counts *Counts) error {
	mergeGroups := make(map[string]*nodeGroup)
	createGroups := make(map[string]*nodeGroup)

	for _, node := range nodes {
		if node.Merge {
			key := node.PrimaryLabel + "\x1f" + node.PrimaryKey + "\x1f" + labelString(node.Labels)
			group, ok := mergeGroups[key]
			if !ok {
				group = &nodeGroup{
					primaryLabel: node.PrimaryLabel,
					primaryKey:   node.PrimaryKey,
					labels:       node.Labels,
				}
				mergeGroups[key] = group
			}
			group.rows = append(group.rows, map[string]any{
				"pk":    node.PrimaryValue(),
				"props": node.Properties,
			})
		} else {
			key := labelString(node.Labels)
			group, ok := createGroups[key]
			if !ok {
				group = &nodeGroup{labels: node.Labels}
				createGroups[key] = group
			}
			props := make(map[string]any, len(node.Properties)+1)
			for k, v := range node.Properties {
				props[k] = v
			}
			props[TagProperty] = node.Tag()
			group.rows = append(group.rows, map[string]any{"props": props})
		}
	}

	for _, key := range sortedGroupKeys(mergeGroups) {
		group := mergeGroups[key]
		query := mergeNodesQuery(group.primaryLabel, group.primaryKey, group.labels)
		if _, err := tx.Run(ctx, query, map[string]any{"rows": group.rows}); err != nil {
			return err
		}
		counts.Nodes += len(group.rows)
	}
	for _, key := range sortedGroupKeys(createGroups) {
		group := createGroups[key]
		query := createNodesQuery(group.labels)
		if _, err := tx.Run(ctx, query, map[string]any{"rows": group.rows}); err != nil {
			return err
		}
		counts.Nodes += len(group.rows)
	}
	return nil
}

// writeRelationships resolves endpoints to element ids and emits one bulk
// MERGE or CREATE per relationship group
func (w *Writer) writeRelationships(
	ctx context.Context,
	tx Transaction,
	rels []*graph.Relationship,
	counts *Counts,
) error {
	if len(rels) == 0 {
		return nil
	}

	resolver := newEndpointResolver(w, tx)
	if err := resolver.collect(ctx, rels); err != nil {
		return err
	}

	mergeGroups := make(map[string]*relGroup)
	createGroups := make(map[string]*relGroup)

	for _, rel := range rels {
		startIDs, err := resolver.elementIDs(rel.Start)
		if err != nil {
			return err
		}
		endIDs, err := resolver.elementIDs(rel.End)
		if err != nil {
			return err
		}
		if len(startIDs) == 0 || len(endIDs) == 0 {
			// Unmatched endpoints produce no relationships
			continue
		}

		groups := createGroups
		key := rel.Type
		if rel.Merge {
			groups = mergeGroups
			key = rel.Type + "\x1f" + rel.PrimaryKey
		}
		group, ok := groups[key]
		if !ok {
			group = &relGroup{relType: rel.Type, primaryKey: rel.PrimaryKey, merge: rel.Merge}
			groups[key] = group
		}
		for _, start := range startIDs {
			for _, end := range endIDs {
				row := map[string]any{
					"start": start,
					"end":   end,
					"props": rel.Properties,
				}
				if rel.Merge {
					row["pk"] = rel.PrimaryValue()
				}
				group.rows = append(group.rows, row)
			}
		}
	}

	for _, key := range sortedRelGroupKeys(mergeGroups) {
		group := mergeGroups[key]
		query := mergeRelationshipsQuery(group.relType, group.primaryKey)
		if _, err := tx.Run(ctx, query, map[string]any{"rows": group.rows}); err != nil {
			return err
		}
		counts.Relationships += len(group.rows)
	}
	for _, key := range sortedRelGroupKeys(createGroups) {
		group := createGroups[key]
		query := createRelationshipsQuery(group.relType)
		if _, err := tx.Run(ctx, query, map[string]any{"rows": group.rows}); err != nil {
			return err
		}
		counts.Relationships += len(group.rows)
	}
	return nil
}

func sortedGroupKeys(groups map[string]*nodeGroup) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedRelGroupKeys(groups map[string]*relGroup) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
