package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS operation_results (
	run_name    text        NOT NULL,
	seq         bigint      NOT NULL,
	op          text        NOT NULL,
	pool        text,
	account     text        NOT NULL,
	ok          boolean     NOT NULL,
	error       text,
	amount_in   numeric,
	amount_out  numeric,
	amount_a    numeric,
	amount_b    numeric,
	shares      numeric,
	start_token text,
	profit      numeric,
	executed    boolean,
	applied_at  timestamptz NOT NULL,
	PRIMARY KEY (run_name, seq)
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	run_name     text     NOT NULL,
	pool         text     NOT NULL,
	seq          bigint   NOT NULL,
	pool_address text     NOT NULL,
	lp_token     text     NOT NULL,
	token_a      text     NOT NULL,
	token_b      text     NOT NULL,
	fee_bps      integer  NOT NULL,
	reserve_a    numeric  NOT NULL,
	reserve_b    numeric  NOT NULL,
	lp_supply    numeric  NOT NULL,
	volume_a     numeric  NOT NULL,
	volume_b     numeric  NOT NULL,
	fee_a        numeric  NOT NULL,
	fee_b        numeric  NOT NULL,
	lp_holdings  jsonb,
	updated_at   timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (run_name, pool, seq)
);
ALTER TABLE pool_snapshots ADD COLUMN IF NOT EXISTS lp_holdings jsonb;
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	run_name     text    NOT NULL,
	pool         text    NOT NULL,
	first_seq    bigint  NOT NULL,
	last_seq     bigint  NOT NULL,
	swap_count   bigint  NOT NULL,
	failed_count bigint  NOT NULL,
	volume_a     numeric NOT NULL,
	volume_b     numeric NOT NULL,
	fee_a        numeric NOT NULL,
	fee_b        numeric NOT NULL,
	tvl          numeric NOT NULL,
	spot_price   numeric,
	fee_rate_a   numeric,
	fee_rate_b   numeric,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (run_name, pool, first_seq)
);
CREATE TABLE IF NOT EXISTS replay_state (
	name          text PRIMARY KEY,
	last_seq      bigint NOT NULL,
	updated_at    timestamptz NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for replay output.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the replay tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertResults stores operation results; a replayed seq overwrites the earlier row.
func (s *Store) InsertResults(ctx context.Context, run string, results []model.OperationResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO operation_results (
				run_name, seq, op, pool, account, ok, error, amount_in, amount_out, amount_a, amount_b,
				shares, start_token, profit, executed, applied_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (run_name, seq)
			DO UPDATE SET
				op = EXCLUDED.op,
				pool = EXCLUDED.pool,
				account = EXCLUDED.account,
				ok = EXCLUDED.ok,
				error = EXCLUDED.error,
				amount_in = EXCLUDED.amount_in,
				amount_out = EXCLUDED.amount_out,
				amount_a = EXCLUDED.amount_a,
				amount_b = EXCLUDED.amount_b,
				shares = EXCLUDED.shares,
				start_token = EXCLUDED.start_token,
				profit = EXCLUDED.profit,
				executed = EXCLUDED.executed,
				applied_at = EXCLUDED.applied_at
		`,
			run,
			int64(r.Seq),
			r.Op,
			nullable(r.Pool),
			r.Account,
			r.OK,
			nullable(r.Error),
			nullable(r.AmountIn),
			nullable(r.AmountOut),
			nullable(r.AmountA),
			nullable(r.AmountB),
			nullable(r.Shares),
			nullable(r.StartToken),
			nullable(r.Profit),
			r.Executed,
			r.AppliedAt,
		)
	}
	return sendBatch(ctx, s.pool, batch, len(results))
}

// UpsertSnapshots inserts or updates pool snapshots.
func (s *Store) UpsertSnapshots(ctx context.Context, run string, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				run_name, pool, seq, pool_address, lp_token, token_a, token_b, fee_bps,
				reserve_a, reserve_b, lp_supply, volume_a, volume_b, fee_a, fee_b, lp_holdings, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
			ON CONFLICT (run_name, pool, seq)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				lp_supply = EXCLUDED.lp_supply,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				lp_holdings = EXCLUDED.lp_holdings,
				updated_at = now()
		`,
			run,
			p.Name,
			int64(p.Seq),
			p.Address,
			p.LPToken,
			p.TokenA,
			p.TokenB,
			int32(p.FeeBps),
			p.ReserveA,
			p.ReserveB,
			p.LPSupply,
			p.VolumeA,
			p.VolumeB,
			p.FeeA,
			p.FeeB,
			p.LPHoldings,
		)
	}
	return sendBatch(ctx, s.pool, batch, len(snapshots))
}

// UpsertWindowMetrics inserts or updates batch window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, run string, windows []model.PoolWindowMetrics) error {
	if len(windows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range windows {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				run_name, pool, first_seq, last_seq, swap_count, failed_count,
				volume_a, volume_b, fee_a, fee_b, tvl, spot_price, fee_rate_a, fee_rate_b, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
			ON CONFLICT (run_name, pool, first_seq)
			DO UPDATE SET
				last_seq = EXCLUDED.last_seq,
				swap_count = EXCLUDED.swap_count,
				failed_count = EXCLUDED.failed_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				tvl = EXCLUDED.tvl,
				spot_price = EXCLUDED.spot_price,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				updated_at = now()
		`,
			run,
			w.Pool,
			int64(w.FirstSeq),
			int64(w.LastSeq),
			int64(w.SwapCount),
			int64(w.FailedCount),
			w.VolumeA,
			w.VolumeB,
			w.FeeA,
			w.FeeB,
			w.TVL,
			nullable(w.SpotPrice),
			nullable(w.FeeRateA),
			nullable(w.FeeRateB),
		)
	}
	return sendBatch(ctx, s.pool, batch, len(windows))
}

// LoadState returns the last applied seq for a run name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_seq FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts the last applied seq for a run name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_seq = EXCLUDED.last_seq, updated_at = now()
	`, name, int64(seq))
	return err
}

func sendBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch, n int) error {
	br := pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
