// Package converter implements the two-phase execution engine: it routes
// each resource from the iterator through its compiled entity plan, batches
// the produced subgraphs and hands them to the graph writer. Phase one
// commits nodes only; phase two re-traverses the iterator and commits
// relationships, so that cross-entity MATCH references always find their
// targets.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/metric"
	"github.com/c360/relgraph/pkg/worker"
	"github.com/c360/relgraph/registry"
	"github.com/c360/relgraph/resource"
	"github.com/c360/relgraph/schema"
	"github.com/c360/relgraph/state"
	"github.com/c360/relgraph/writer"
)

// BatchWriter is the writer contract the engine drives
type BatchWriter interface {
	WriteBatch(ctx context.Context, batch []*graph.Subgraph) (writer.Counts, error)
	ResetMatchCache()
	Cleanup(ctx context.Context) error
}

// Deps holds the converter's collaborators
type Deps struct {
	Iterator resource.Iterator
	Writer   BatchWriter
	// Registry resolves wrapper names at compile time, nil for the
	// process-wide registry
	Registry *registry.Registry
	// SharedState is the slot table published to wrapper code, nil for the
	// process-wide table
	SharedState *state.Table
	// GraphDriver, if set, is published under the built-in graph_driver slot
	GraphDriver any
	Logger      *slog.Logger
	// MetricsRegistry enables conversion metrics, nil to disable
	MetricsRegistry *metric.MetricsRegistry
}

// Converter drives a full conversion run
type Converter struct {
	plan     *schema.Plan
	registry *registry.Registry
	iterator resource.Iterator
	writer   BatchWriter
	cfg      Config
	logger   *slog.Logger
	metrics  *metric.ConversionMetrics
	shared   *state.Table

	checkpoint *checkpoint
	running    atomic.Bool
}

// New compiles the schema and builds a converter. Schema problems and
// invalid configuration fail here, before any work.
func New(schemaText string, deps Deps, cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Iterator == nil {
		return nil, fmt.Errorf("%w: iterator is required", errors.ErrInvalidConfig)
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("%w: writer is required", errors.ErrInvalidConfig)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "converter")

	reg := deps.Registry
	if reg == nil {
		reg = registry.Default()
	}

	plan, err := schema.Compile(schemaText, reg.Snapshot(), logger)
	if err != nil {
		return nil, err
	}

	metrics, err := metric.NewConversionMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("failed to initialise conversion metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	shared := deps.SharedState
	if shared == nil {
		shared = state.Default()
	}
	if deps.GraphDriver != nil {
		shared.PublishGraphDriver(deps.GraphDriver)
	}

	// Serialised mode processes resources strictly in iterator order
	if !cfg.Parallel {
		cfg.Workers = 1
		cfg.BatchSize = 1
	}

	return &Converter{
		plan:       plan,
		registry:   reg,
		iterator:   deps.Iterator,
		writer:     deps.Writer,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		shared:     shared,
		checkpoint: newCheckpoint(),
	}, nil
}

// SetIterator replaces the resource iterator and clears the checkpoint
func (c *Converter) SetIterator(iterator resource.Iterator) error {
	if c.running.Load() {
		return errors.ErrAlreadyRunning
	}
	c.iterator = iterator
	c.checkpoint.clear()
	return nil
}

// ReloadSchema recompiles the schema against a fresh registry snapshot and
// clears the checkpoint
func (c *Converter) ReloadSchema(schemaText string) error {
	if c.running.Load() {
		return errors.ErrAlreadyRunning
	}
	plan, err := schema.Compile(schemaText, c.registry.Snapshot(), c.logger)
	if err != nil {
		return err
	}
	c.plan = plan
	c.checkpoint.clear()
	return nil
}

// Run executes both phases and commits the produced graph. On failure the
// checkpoint is preserved so a re-invocation with the same iterator resumes
// by skipping committed batches.
func (c *Converter) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.shared.Freeze()
	defer c.shared.Thaw()

	start := time.Now()
	c.logger.Info("starting conversion",
		"parallel", c.cfg.Parallel,
		"workers", c.cfg.Workers,
		"batch_size", c.cfg.BatchSize)

	for _, phase := range []Phase{PhaseNodes, PhaseRelationships} {
		if err := c.runPhase(ctx, phase); err != nil {
			c.logger.Error("conversion halted", "phase", phase, "error", err)
			return err
		}
	}

	if err := c.writer.Cleanup(ctx); err != nil {
		c.logger.Warn("tag cleanup failed", "error", err)
	}

	// A completed run retires its checkpoint; the next run starts fresh
	c.checkpoint.clear()

	c.logger.Info("conversion finished", "duration", time.Since(start).String())
	return nil
}

// batchJob is one unit of work: a slice of resources with its batch index
// and the global ordinal of its first resource
type batchJob struct {
	index        int
	startOrdinal int
	resources    []resource.Resource
}

// runPhase traverses the iterator once, dispatching batches to the worker
// pool and waiting for all of them to commit before returning
func (c *Converter) runPhase(ctx context.Context, phase Phase) error {
	if err := c.iterator.Reset(); err != nil {
		return errors.WrapFatal(err, "converter", "runPhase", "reset iterator")
	}
	c.writer.ResetMatchCache()

	total := c.iterator.Len()
	var processed atomic.Int64

	c.logger.Info("starting phase", "phase", phase, "resources", total)

	phaseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var firstErr error
	var errOnce sync.Once
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	report := func(count int) {
		done := processed.Add(int64(count))
		c.metrics.RecordResources(string(phase), count)
		if c.cfg.ProgressSink != nil {
			c.cfg.ProgressSink(phase, int(done), total)
		}
	}

	process := func(ctx context.Context, job *batchJob) error {
		buildStart := time.Now()
		batch, err := c.buildBatch(ctx, phase, job)
		if err != nil {
			fail(err)
			return err
		}
		c.metrics.RecordBuildDuration(string(phase), time.Since(buildStart).Seconds())

		commitStart := time.Now()
		if _, err := c.writer.WriteBatch(ctx, batch); err != nil {
			fail(err)
			return err
		}
		c.metrics.RecordCommitDuration(string(phase), time.Since(commitStart).Seconds())
		c.metrics.RecordBatchCommitted(string(phase))

		c.checkpoint.markCommitted(phase, job.index)
		report(len(job.resources))
		return nil
	}

	serial := !c.cfg.Parallel
	var pool *worker.Pool[*batchJob]
	if !serial {
		pool = worker.NewPool(c.cfg.Workers, c.cfg.Workers*2, process)
		if err := pool.Start(phaseCtx); err != nil {
			return errors.WrapFatal(err, "converter", "runPhase", "start worker pool")
		}
	}

	// The coordinator reads the iterator serially and assembles batches
	index := 0
	ordinal := 0
	for {
		if phaseCtx.Err() != nil {
			break
		}
		job, done, err := c.nextBatch(index, ordinal)
		if err != nil {
			fail(errors.WrapFatal(err, "converter", "runPhase", "read iterator"))
			break
		}
		if done {
			break
		}
		index++
		ordinal += len(job.resources)

		if c.checkpoint.has(phase, job.index) {
			// Already committed by a previous invocation
			report(len(job.resources))
			continue
		}

		if serial {
			if err := process(phaseCtx, job); err != nil {
				break
			}
			continue
		}
		if err := pool.SubmitWait(phaseCtx, job); err != nil {
			if phaseCtx.Err() == nil {
				fail(errors.WrapFatal(err, "converter", "runPhase", "submit batch"))
			}
			break
		}
	}

	if pool != nil {
		if err := pool.Stop(time.Hour); err != nil {
			c.logger.Warn("worker pool drain timed out", "phase", phase)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCancelled, err)
	}

	c.logger.Info("phase complete", "phase", phase, "batches", index)
	return nil
}

// nextBatch pulls up to BatchSize resources from the iterator
func (c *Converter) nextBatch(index, startOrdinal int) (*batchJob, bool, error) {
	job := &batchJob{index: index, startOrdinal: startOrdinal}
	for len(job.resources) < c.cfg.BatchSize {
		res, ok, err := c.iterator.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}
		job.resources = append(job.resources, res)
	}
	if len(job.resources) == 0 {
		return nil, true, nil
	}
	return job, false, nil
}

// buildBatch evaluates the entity plans of every resource in the batch and
// returns the per-resource subgraphs in batch order
func (c *Converter) buildBatch(ctx context.Context, phase Phase, job *batchJob) ([]*graph.Subgraph, error) {
	batch := make([]*graph.Subgraph, 0, len(job.resources))
	for i, res := range job.resources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrCancelled, err)
		}
		sg, err := c.processResource(phase, res, job.startOrdinal+i)
		if err != nil {
			return nil, err
		}
		if sg != nil && !sg.Empty() {
			batch = append(batch, sg)
		}
	}
	return batch, nil
}

// processResource runs the compiled plan for one resource. In the node phase
// relationship sub-plans are skipped entirely; in the relationship phase
// node sub-plans re-run only to rebuild identifiers and supplies, and their
// output is discarded.
func (c *Converter) processResource(phase Phase, res resource.Resource, ordinal int) (*graph.Subgraph, error) {
	entityPlan, ok := c.plan.Entity(res.Type())
	if !ok {
		return nil, nil
	}

	switch phase {
	case PhaseNodes:
		if entityPlan.Nodes.Len() == 0 {
			return nil, nil
		}
		sg, err := entityPlan.Nodes.Construct(res)
		if err != nil {
			return nil, fmt.Errorf("%w: entity %q: %v", errors.ErrResourceAccess, res.Type(), err)
		}
		c.tagNodes(sg, res.Type(), ordinal)
		return nodesOnly(sg), nil

	case PhaseRelationships:
		if entityPlan.Relationships.Len() == 0 {
			return nil, nil
		}
		res.Supplies().Clear()
		if entityPlan.Nodes.Len() > 0 {
			rebuilt, err := entityPlan.Nodes.Construct(res)
			if err != nil {
				return nil, fmt.Errorf("%w: entity %q: %v", errors.ErrResourceAccess, res.Type(), err)
			}
			// Outputs are not committed, but the tags must match the nodes
			// created in the node phase
			c.tagNodes(rebuilt, res.Type(), ordinal)
		}
		sg, err := entityPlan.Relationships.Construct(res)
		if err != nil {
			return nil, fmt.Errorf("%w: entity %q: %v", errors.ErrResourceAccess, res.Type(), err)
		}
		return relationshipsOnly(sg), nil
	}
	return nil, nil
}

// tagNodes assigns deterministic handles to non-merge nodes. The handle is
// derived from entity type, resource ordinal and position, so both phases
// produce identical tags for the same resource.
func (c *Converter) tagNodes(sg *graph.Subgraph, entityType string, ordinal int) {
	for position, node := range sg.Nodes() {
		if node.Merge {
			continue
		}
		seed := fmt.Sprintf("%s|%d|%d", entityType, ordinal, position)
		node.SetTag(uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String())
	}
}

// nodesOnly strips any relationships a wrapper may have added
func nodesOnly(sg *graph.Subgraph) *graph.Subgraph {
	if len(sg.Relationships()) == 0 {
		return sg
	}
	out := graph.NewSubgraph()
	for _, node := range sg.Nodes() {
		out.AddNode(node)
	}
	return out
}

// relationshipsOnly strips any nodes a wrapper may have added
func relationshipsOnly(sg *graph.Subgraph) *graph.Subgraph {
	if len(sg.Nodes()) == 0 {
		return sg
	}
	out := graph.NewSubgraph()
	for _, rel := range sg.Relationships() {
		out.AddRelationship(rel)
	}
	return out
}
