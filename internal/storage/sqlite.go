// Package storage provides the persistent record store backends. The
// sqlite backend is the primary one; a postgres backend with identical
// semantics lives alongside it. Both implement records.Store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ records.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const recordColumns = "id, amount, amount_text, category, date, notes, currency, type, created_at"

func (s *SQLiteStore) Create(ctx context.Context, d core.Draft) (core.Record, error) {
	createdAt := time.Now().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (amount, amount_text, category, date, notes, currency, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Amount, nullable(d.AmountText), nullable(d.Category), d.Date,
		nullable(d.Notes), nullable(d.Currency), string(d.Type), createdAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("last insert id: %w", err)
	}
	return d.ToRecord(id, createdAt), nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	return scanRecord(row)
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, d core.Draft) (core.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records
		 SET amount = ?, amount_text = ?, category = ?, date = ?, notes = ?, currency = ?, type = ?
		 WHERE id = ?`,
		d.Amount, nullable(d.AmountText), nullable(d.Category), d.Date,
		nullable(d.Notes), nullable(d.Currency), string(d.Type), id)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Record{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Record{}, records.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
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

func (s *SQLiteStore) List(ctx context.Context, f core.ListFilter, page core.Page) ([]core.Record, error) {
	where, args := buildWhere(f, questionPlaceholders)
	query := "SELECT " + recordColumns + " FROM records" + where +
		" ORDER BY date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, page.Size, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *SQLiteStore) Count(ctx context.Context, f core.ListFilter) (int64, error) {
	where, args := buildWhere(f, questionPlaceholders)
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (core.Record, error) {
	var rec core.Record
	var amountText, category, notes, currency sql.NullString
	var typ string
	err := row.Scan(&rec.ID, &rec.Amount, &amountText, &category, &rec.Date,
		&notes, &currency, &typ, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, records.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.AmountText = fromNull(amountText)
	rec.Category = fromNull(category)
	rec.Notes = fromNull(notes)
	rec.Currency = fromNull(currency)
	rec.Type = core.RecordType(typ)
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]core.Record, error) {
	out := []core.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
