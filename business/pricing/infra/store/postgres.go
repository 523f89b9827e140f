package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS price_records (
	id                UUID PRIMARY KEY,
	platform          TEXT NOT NULL,
	region            TEXT NOT NULL,
	brand             TEXT NOT NULL,
	model             TEXT NOT NULL,
	storage           TEXT NOT NULL,
	model_key         TEXT NOT NULL,
	condition         TEXT NOT NULL,
	price             NUMERIC(14,2) NOT NULL,
	currency          TEXT NOT NULL,
	original_amount   NUMERIC(18,4) NOT NULL,
	original_currency TEXT NOT NULL,
	rate              NUMERIC(18,8) NOT NULL,
	available         BOOLEAN NOT NULL,
	observed_at       TIMESTAMPTZ NOT NULL,
	source_url        TEXT NOT NULL,
	batch_id          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_records_observed ON price_records(observed_at, id);
CREATE INDEX IF NOT EXISTS idx_price_records_model ON price_records(model_key, observed_at);

CREATE TABLE IF NOT EXISTS scrape_sessions (
	id          TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	attempted   INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	saved       INTEGER NOT NULL,
	dropped     INTEGER NOT NULL,
	dry_run     BOOLEAN NOT NULL,
	platforms   JSONB NOT NULL
);
`

// Postgres stores records through a pgx connection pool. Decimals travel
// through their driver.Valuer and sql.Scanner text forms.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, repoErr(err, "parse postgres dsn")
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, repoErr(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, repoErr(err, "ping postgres")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, repoErr(err, "migrate postgres")
	}
	return &Postgres{pool: pool}, nil
}

// Save sends one pgx batch inside a transaction.
func (p *Postgres) Save(ctx context.Context, records []domain.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, repoErr(err, "begin")
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`INSERT INTO price_records (`+recordColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Platform, r.Region, r.Model.Brand, r.Model.Name, r.Model.Storage, r.Model.Key(),
			string(r.Condition), r.Price, r.Currency, r.OriginalAmount, r.OriginalCurrency, r.Rate,
			r.Available, r.ObservedAt.UTC(), r.SourceURL, r.BatchID,
		)
	}

	results := tx.SendBatch(ctx, batch)
	n := 0
	for i := range records {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, repoErr(err, fmt.Sprintf("insert %d", i))
		}
		n += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, repoErr(err, "close batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, repoErr(err, "commit")
	}
	return n, nil
}

func (p *Postgres) Query(ctx context.Context, filter domain.Filter) ([]domain.PriceRecord, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Platform != "" {
		where = append(where, "lower(platform) = lower("+arg(filter.Platform)+")")
	}
	if filter.Region != "" {
		where = append(where, "lower(region) = lower("+arg(filter.Region)+")")
	}
	if filter.ModelKey != "" {
		where = append(where, "model_key = "+arg(strings.ToLower(filter.ModelKey)))
	}
	if !filter.Since.IsZero() {
		where = append(where, "observed_at >= "+arg(filter.Since.UTC()))
	}
	if !filter.Until.IsZero() {
		where = append(where, "observed_at < "+arg(filter.Until.UTC()))
	}

	q := `SELECT id::text, platform, region, brand, model, storage, condition, price, currency,
		original_amount, original_currency, rate, available, observed_at, source_url, batch_id
		FROM price_records`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY observed_at, id`

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, repoErr(err, "query")
	}
	defer rows.Close()

	var out []domain.PriceRecord
	for rows.Next() {
		var (
			r    domain.PriceRecord
			cond string
		)
		if err := rows.Scan(&r.ID, &r.Platform, &r.Region, &r.Model.Brand, &r.Model.Name, &r.Model.Storage,
			&cond, &r.Price, &r.Currency, &r.OriginalAmount, &r.OriginalCurrency, &r.Rate,
			&r.Available, &r.ObservedAt, &r.SourceURL, &r.BatchID); err != nil {
			return nil, repoErr(err, "scan")
		}
		r.Condition = domain.Condition(cond)
		r.ObservedAt = r.ObservedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(err, "rows")
	}
	return out, nil
}

func (p *Postgres) SaveCycle(ctx context.Context, session domain.Session) error {
	platforms, err := json.Marshal(session.Platforms)
	if err != nil {
		return repoErr(err, "encode session")
	}

	var finished *time.Time
	if !session.FinishedAt.IsZero() {
		t := session.FinishedAt.UTC()
		finished = &t
	}

	_, err = p.pool.Exec(ctx, `INSERT INTO scrape_sessions
		(id, state, started_at, finished_at, attempted, succeeded, failed, saved, dropped, dry_run, platforms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state, finished_at = EXCLUDED.finished_at,
			attempted = EXCLUDED.attempted, succeeded = EXCLUDED.succeeded, failed = EXCLUDED.failed,
			saved = EXCLUDED.saved, dropped = EXCLUDED.dropped, platforms = EXCLUDED.platforms`,
		session.ID, session.State, session.StartedAt.UTC(), finished,
		session.Attempted, session.Succeeded, session.Failed, session.Saved, session.Dropped,
		session.DryRun, platforms,
	)
	if err != nil {
		return repoErr(err, "save session")
	}
	return nil
}

func (p *Postgres) LastCycle(ctx context.Context) (*domain.Session, error) {
	var (
		sess      domain.Session
		finished  *time.Time
		platforms []byte
	)
	err := p.pool.QueryRow(ctx, `SELECT id, state, started_at, finished_at, attempted, succeeded,
		failed, saved, dropped, dry_run, platforms
		FROM scrape_sessions ORDER BY started_at DESC, id DESC LIMIT 1`).
		Scan(&sess.ID, &sess.State, &sess.StartedAt, &finished, &sess.Attempted, &sess.Succeeded,
			&sess.Failed, &sess.Saved, &sess.Dropped, &sess.DryRun, &platforms)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repoErr(err, "last session")
	}

	sess.StartedAt = sess.StartedAt.UTC()
	if finished != nil {
		sess.FinishedAt = finished.UTC()
	}
	if err := json.Unmarshal(platforms, &sess.Platforms); err != nil {
		return nil, repoErr(err, "decode session")
	}
	return &sess, nil
}

func (p *Postgres) Prune(ctx context.Context, before time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM price_records WHERE observed_at < $1`, before.UTC())
	if err != nil {
		return 0, repoErr(err, "prune")
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Stats(ctx context.Context, since time.Time) (domain.Stats, error) {
	var (
		st             domain.Stats
		oldest, newest *time.Time
	)
	err := p.pool.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE observed_at >= $1),
			COUNT(DISTINCT platform),
			COUNT(DISTINCT model_key),
			MIN(observed_at),
			MAX(observed_at)
		FROM price_records`, since.UTC()).
		Scan(&st.TotalRecords, &st.RecentRecords, &st.Platforms, &st.Models, &oldest, &newest)
	if err != nil {
		return domain.Stats{}, repoErr(err, "stats")
	}
	if oldest != nil {
		st.Oldest = oldest.UTC()
	}
	if newest != nil {
		st.Newest = newest.UTC()
	}
	return st, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
