package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ammScope/internal/metrics"
	"ammScope/internal/model"
	"ammScope/internal/storage"
)

// DB receives results alongside the file sink when a database is configured.
type DB interface {
	InsertResults(ctx context.Context, run string, results []model.OperationResult) error
	UpsertSnapshots(ctx context.Context, run string, snapshots []model.PoolSnapshot) error
	UpsertWindowMetrics(ctx context.Context, run string, windows []model.PoolWindowMetrics) error
}

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	RunName   string
	BatchSize uint64
}

// Runner applies operations to a venue in batches and writes results.
type Runner struct {
	cfg     RunConfig
	venue   *Venue
	storage storage.Storage
	db      DB
	state   StateStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner builds a Runner with its dependencies. db and state may be nil.
func NewRunner(cfg RunConfig, venue *Venue, storageSink storage.Storage, db DB, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		venue:   venue,
		storage: storageSink,
		db:      db,
		state:   state,
		logger:  logger,
		now:     time.Now,
	}
}

// Run applies ops. Operation i has sequence number i+1. Operations at or
// below a saved checkpoint are re-applied to rebuild pool state but are not
// written again.
func (r *Runner) Run(ctx context.Context, ops []model.OperationRequest) error {
	if r.venue == nil {
		return fmt.Errorf("venue is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(ops) == 0 {
		r.logger.Info("no operations to replay")
		return nil
	}

	var resume uint64
	if r.state != nil {
		last, ok, err := r.state.Load(ctx)
		if err != nil {
			return fmt.Errorf("load replay state: %w", err)
		}
		if ok {
			resume = last
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", last))
		}
	}

	ranges, err := SplitRange(1, uint64(len(ops)), r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, seqRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.runBatch(ctx, ops, seqRange, resume); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) runBatch(ctx context.Context, ops []model.OperationRequest, seqRange SeqRange, resume uint64) error {
	var (
		results []model.OperationResult
		windows map[string]*metrics.Accumulator
		failed  int
	)
	for seq := seqRange.From; seq <= seqRange.To; seq++ {
		req := ops[seq-1]
		if seq > resume && windows == nil {
			windows = r.openWindows()
		}

		res := r.venue.Apply(seq, req)
		if seq <= resume {
			continue
		}

		res.AppliedAt = r.now().UTC().Format(time.RFC3339Nano)
		results = append(results, res)
		if !res.OK {
			failed++
		}
		for _, name := range r.venue.Touched(req) {
			if acc, ok := windows[name]; ok {
				acc.Observe(res)
			}
		}
	}

	if len(results) == 0 {
		r.logger.Debug("batch already applied", zap.Uint64("from", seqRange.From), zap.Uint64("to", seqRange.To))
		return nil
	}

	snapshots := r.venue.Snapshots(seqRange.To)
	var closed []model.PoolWindowMetrics
	for _, snap := range snapshots {
		acc := windows[snap.Name]
		if acc == nil || acc.Empty() {
			continue
		}
		closed = append(closed, acc.Finish(snap))
	}

	if err := r.write(ctx, results, snapshots, closed); err != nil {
		return err
	}

	if r.state != nil {
		if err := r.state.Save(ctx, seqRange.To); err != nil {
			return fmt.Errorf("save replay state: %w", err)
		}
	}

	r.logger.Info("batch complete",
		zap.Int("operations", len(results)),
		zap.Int("failed", failed),
		zap.Uint64("from", seqRange.From),
		zap.Uint64("to", seqRange.To),
	)
	return nil
}

func (r *Runner) openWindows() map[string]*metrics.Accumulator {
	snapshots := r.venue.Snapshots(0)
	windows := make(map[string]*metrics.Accumulator, len(snapshots))
	for _, snap := range snapshots {
		windows[snap.Name] = metrics.NewAccumulator(snap)
	}
	return windows
}

func (r *Runner) write(ctx context.Context, results []model.OperationResult, snapshots []model.PoolSnapshot, windows []model.PoolWindowMetrics) error {
	if err := r.storage.PutResults(results); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	if err := r.storage.PutSnapshots(snapshots); err != nil {
		return fmt.Errorf("store snapshots: %w", err)
	}
	if len(windows) > 0 {
		if err := r.storage.PutWindows(windows); err != nil {
			return fmt.Errorf("store windows: %w", err)
		}
	}

	if r.db == nil {
		return nil
	}
	if err := r.db.InsertResults(ctx, r.cfg.RunName, results); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	if err := r.db.UpsertSnapshots(ctx, r.cfg.RunName, snapshots); err != nil {
		return fmt.Errorf("upsert snapshots: %w", err)
	}
	if len(windows) > 0 {
		if err := r.db.UpsertWindowMetrics(ctx, r.cfg.RunName, windows); err != nil {
			return fmt.Errorf("upsert window metrics: %w", err)
		}
	}
	return nil
}
