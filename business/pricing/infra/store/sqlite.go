package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_records (
	id                TEXT PRIMARY KEY,
	platform          TEXT NOT NULL,
	region            TEXT NOT NULL,
	brand             TEXT NOT NULL,
	model             TEXT NOT NULL,
	storage           TEXT NOT NULL,
	model_key         TEXT NOT NULL,
	condition         TEXT NOT NULL,
	price             TEXT NOT NULL,
	currency          TEXT NOT NULL,
	original_amount   TEXT NOT NULL,
	original_currency TEXT NOT NULL,
	rate              TEXT NOT NULL,
	available         INTEGER NOT NULL,
	observed_at       INTEGER NOT NULL,
	source_url        TEXT NOT NULL,
	batch_id          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_records_observed ON price_records(observed_at, id);
CREATE INDEX IF NOT EXISTS idx_price_records_model ON price_records(model_key, observed_at);

CREATE TABLE IF NOT EXISTS scrape_sessions (
	id          TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	attempted   INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	saved       INTEGER NOT NULL,
	dropped     INTEGER NOT NULL,
	dry_run     INTEGER NOT NULL,
	platforms   TEXT NOT NULL
);
`

const recordColumns = `id, platform, region, brand, model, storage, model_key, condition, price, currency,
	original_amount, original_currency, rate, available, observed_at, source_url, batch_id`

// SQLite stores records in a local database file through the pure-Go driver.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens dsn (e.g. "file:prices.db") and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperror.New(apperror.CodeRepositoryError, apperror.WithCause(err), apperror.WithContext("open sqlite"))
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, apperror.New(apperror.CodeRepositoryError, apperror.WithCause(err), apperror.WithContext("migrate sqlite"))
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, records []domain.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, repoErr(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, repoErr(err, "prepare insert")
	}
	defer stmt.Close()

	n := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			r.ID, r.Platform, r.Region, r.Model.Brand, r.Model.Name, r.Model.Storage, r.Model.Key(),
			string(r.Condition), r.Price.String(), r.Currency,
			r.OriginalAmount.String(), r.OriginalCurrency, r.Rate.String(),
			boolToInt(r.Available), r.ObservedAt.UTC().UnixNano(), r.SourceURL, r.BatchID,
		)
		if err != nil {
			return 0, repoErr(err, "insert "+r.ID)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, repoErr(err, "commit")
	}
	return n, nil
}

func (s *SQLite) Query(ctx context.Context, filter domain.Filter) ([]domain.PriceRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Platform != "" {
		where = append(where, "platform = ? COLLATE NOCASE")
		args = append(args, filter.Platform)
	}
	if filter.Region != "" {
		where = append(where, "region = ? COLLATE NOCASE")
		args = append(args, filter.Region)
	}
	if filter.ModelKey != "" {
		where = append(where, "model_key = ?")
		args = append(args, strings.ToLower(filter.ModelKey))
	}
	if !filter.Since.IsZero() {
		where = append(where, "observed_at >= ?")
		args = append(args, filter.Since.UTC().UnixNano())
	}
	if !filter.Until.IsZero() {
		where = append(where, "observed_at < ?")
		args = append(args, filter.Until.UTC().UnixNano())
	}

	q := `SELECT ` + recordColumns + ` FROM price_records`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY observed_at, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, repoErr(err, "query")
	}
	defer rows.Close()

	var out []domain.PriceRecord
	for rows.Next() {
		var (
			r                     domain.PriceRecord
			modelKey, cond        string
			price, original, rate string
			available             int
			observed              int64
		)
		if err := rows.Scan(&r.ID, &r.Platform, &r.Region, &r.Model.Brand, &r.Model.Name, &r.Model.Storage,
			&modelKey, &cond, &price, &r.Currency, &original, &r.OriginalCurrency, &rate,
			&available, &observed, &r.SourceURL, &r.BatchID); err != nil {
			return nil, repoErr(err, "scan")
		}
		r.Condition = domain.Condition(cond)
		r.Price = decimal.RequireFromString(price)
		r.OriginalAmount = decimal.RequireFromString(original)
		r.Rate = decimal.RequireFromString(rate)
		r.Available = available != 0
		r.ObservedAt = time.Unix(0, observed).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(err, "rows")
	}
	return out, nil
}

func (s *SQLite) SaveCycle(ctx context.Context, session domain.Session) error {
	platforms, err := json.Marshal(session.Platforms)
	if err != nil {
		return repoErr(err, "encode session")
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO scrape_sessions
		(id, state, started_at, finished_at, attempted, succeeded, failed, saved, dropped, dry_run, platforms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state, finished_at = excluded.finished_at,
			attempted = excluded.attempted, succeeded = excluded.succeeded, failed = excluded.failed,
			saved = excluded.saved, dropped = excluded.dropped, platforms = excluded.platforms`,
		session.ID, session.State, session.StartedAt.UTC().UnixNano(), unixNanoOrZero(session.FinishedAt),
		session.Attempted, session.Succeeded, session.Failed, session.Saved, session.Dropped,
		boolToInt(session.DryRun), string(platforms),
	)
	if err != nil {
		return repoErr(err, "save session")
	}
	return nil
}

func (s *SQLite) LastCycle(ctx context.Context) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, state, started_at, finished_at, attempted, succeeded,
		failed, saved, dropped, dry_run, platforms
		FROM scrape_sessions ORDER BY started_at DESC, id DESC LIMIT 1`)

	var (
		sess              domain.Session
		started, finished int64
		dryRun            int
		platforms         string
	)
	err := row.Scan(&sess.ID, &sess.State, &started, &finished, &sess.Attempted, &sess.Succeeded,
		&sess.Failed, &sess.Saved, &sess.Dropped, &dryRun, &platforms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repoErr(err, "last session")
	}

	sess.StartedAt = time.Unix(0, started).UTC()
	if finished != 0 {
		sess.FinishedAt = time.Unix(0, finished).UTC()
	}
	sess.DryRun = dryRun != 0
	if err := json.Unmarshal([]byte(platforms), &sess.Platforms); err != nil {
		return nil, repoErr(err, "decode session")
	}
	return &sess, nil
}

func (s *SQLite) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_records WHERE observed_at < ?`, before.UTC().UnixNano())
	if err != nil {
		return 0, repoErr(err, "prune")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLite) Stats(ctx context.Context, since time.Time) (domain.Stats, error) {
	var (
		st             domain.Stats
		oldest, newest sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN observed_at >= ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT platform),
			COUNT(DISTINCT model_key),
			MIN(observed_at),
			MAX(observed_at)
		FROM price_records`, since.UTC().UnixNano()).
		Scan(&st.TotalRecords, &st.RecentRecords, &st.Platforms, &st.Models, &oldest, &newest)
	if err != nil {
		return domain.Stats{}, repoErr(err, "stats")
	}
	if oldest.Valid {
		st.Oldest = time.Unix(0, oldest.Int64).UTC()
	}
	if newest.Valid {
		st.Newest = time.Unix(0, newest.Int64).UTC()
	}
	return st, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func repoErr(err error, context string) error {
	return apperror.New(apperror.CodeRepositoryError, apperror.WithCause(err), apperror.WithContext(context))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixNanoOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}
