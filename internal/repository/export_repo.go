package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ExportQuery selects columns of one table restricted to rows where ScopeColumn equals the caller.
type ExportQuery struct {
	Table       string
	Columns     []string
	ScopeColumn string
	UserID      string
}

// ExportRepository streams rows as text values; nil means SQL NULL.
type ExportRepository interface {
	Stream(ctx context.Context, q ExportQuery, fn func(values []*string) error) error
}

type exportRepo struct {
	db *sql.DB
}

func NewExportRepo(db *sql.DB) ExportRepository {
	return &exportRepo{db: db}
}

func buildExportSQL(q ExportQuery) string {
	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = pq.QuoteIdentifier(c) + "::text"
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
		strings.Join(cols, ", "),
		pq.QuoteIdentifier(q.Table),
		pq.QuoteIdentifier(q.ScopeColumn),
		pq.QuoteIdentifier("created_at"),
	)
}

func (r *exportRepo) Stream(ctx context.Context, q ExportQuery, fn func(values []*string) error) error {
	rows, err := r.db.QueryContext(ctx, buildExportSQL(q), q.UserID)
	if err != nil {
		return fmt.Errorf("querying export of %s for user %s: %w", q.Table, q.UserID, err)
	}
	defer rows.Close()

	raw := make([]sql.NullString, len(q.Columns))
	dest := make([]any, len(q.Columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scanning export of %s: %w", q.Table, err)
		}
		values := make([]*string, len(raw))
		for i, v := range raw {
			if v.Valid {
				s := v.String
				values[i] = &s
			}
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating export of %s: %w", q.Table, err)
	}
	return nil
}
