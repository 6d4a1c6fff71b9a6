package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS searches tasks with PostgreSQL full-text search when Meilisearch is
// not available.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "t.search_tsv @@ plainto_tsquery('simple', $1)"
	args := []any{q.Text}
	if q.ProjectID != "" {
		where += " AND t.project_id = $2"
		args = append(args, q.ProjectID)
	}

	countSQL := "SELECT count(*) FROM tasks t WHERE " + where
	var total int
	if err := p.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT t.id, COALESCE(t.project_id, ''), t.title,
			ts_headline('simple', coalesce(t.body_text, t.description), plainto_tsquery('simple', $1), 'MaxFragments=1,MaxWords=30') AS snippet
		FROM tasks t
		WHERE %s
		ORDER BY ts_rank(t.search_tsv, plainto_tsquery('simple', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.Query(dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Title, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts iterate: %w", err)
	}
	return results, total, nil
}

// LoadAllRecords reads every task for a bulk reindex into Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]TaskRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, COALESCE(project_id, ''), title, description, body_text FROM tasks
	`)
	if err != nil {
		return nil, fmt.Errorf("load task records: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var r TaskRecord
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Title, &r.Description, &r.Text); err != nil {
			return nil, fmt.Errorf("scan task record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task records: %w", err)
	}
	return records, nil
}
