package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/records"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

var _ records.Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the given postgres database and ensures the
// records table exists. The schema mirrors the sqlite one; columns added
// over time are nullable so older rows read back as absent.
func NewPostgresStore(connURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS records (
		id BIGSERIAL PRIMARY KEY,
		amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
		amount_text TEXT,
		category TEXT,
		date TEXT NOT NULL,
		notes TEXT,
		currency TEXT,
		type TEXT NOT NULL DEFAULT 'expense' CHECK (type IN ('expense', 'income')),
		created_at BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("ensure records table: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_date ON records (date DESC, id DESC)`)
	if err != nil {
		return fmt.Errorf("ensure records index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, d core.Draft) (core.Record, error) {
	createdAt := time.Now().UnixMilli()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO records (amount, amount_text, category, date, notes, currency, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		d.Amount, nullable(d.AmountText), nullable(d.Category), d.Date,
		nullable(d.Notes), nullable(d.Currency), string(d.Type), createdAt).Scan(&id)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return d.ToRecord(id, createdAt), nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = $1", id)
	return scanRecord(row)
}

func (s *PostgresStore) Update(ctx context.Context, id int64, d core.Draft) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE records
		 SET amount = $1, amount_text = $2, category = $3, date = $4, notes = $5, currency = $6, type = $7
		 WHERE id = $8
		 RETURNING `+recordColumns,
		d.Amount, nullable(d.AmountText), nullable(d.Category), d.Date,
		nullable(d.Notes), nullable(d.Currency), string(d.Type), id)
	rec, err := scanRecord(row)
	if errors.Is(err, records.ErrNotFound) {
		return core.Record{}, records.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("update record %d: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f core.ListFilter, page core.Page) ([]core.Record, error) {
	where, args := buildWhere(f, dollarPlaceholders)
	query := fmt.Sprintf("SELECT %s FROM records%s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		recordColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *PostgresStore) Count(ctx context.Context, f core.ListFilter) (int64, error) {
	where, args := buildWhere(f, dollarPlaceholders)
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
