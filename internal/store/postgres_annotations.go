package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"culturemark/api/internal/span"
)

// Judgment payloads are stored as jsonb so the tagged union survives the
// round trip without a column per field.

const textAnnColumns = `id, task_id, user_email, span_start, span_end, span_text, ann_type, subtype, culture_json, issue_json, updated_at`

func scanTextAnnotation(scan func(...any) error) (span.TextAnnotation, error) {
	var a span.TextAnnotation
	var cultureRaw, issueRaw []byte
	if err := scan(
		&a.ID,
		&a.TaskID,
		&a.UserEmail,
		&a.Start,
		&a.End,
		&a.Text,
		&a.Type,
		&a.Subtype,
		&cultureRaw,
		&issueRaw,
		&a.UpdatedAt,
	); err != nil {
		return span.TextAnnotation{}, err
	}
	if len(cultureRaw) > 0 {
		a.Culture = &span.CultureJudgment{}
		if err := json.Unmarshal(cultureRaw, a.Culture); err != nil {
			return span.TextAnnotation{}, fmt.Errorf("decode culture judgment: %w", err)
		}
	}
	if len(issueRaw) > 0 {
		a.Issue = &span.IssueJudgment{}
		if err := json.Unmarshal(issueRaw, a.Issue); err != nil {
			return span.TextAnnotation{}, fmt.Errorf("decode issue judgment: %w", err)
		}
	}
	return a, nil
}

func marshalJudgments(culture *span.CultureJudgment, issue *span.IssueJudgment) (sql.NullString, sql.NullString, error) {
	var cultureJSON, issueJSON sql.NullString
	if culture != nil {
		raw, err := json.Marshal(culture)
		if err != nil {
			return cultureJSON, issueJSON, fmt.Errorf("marshal culture judgment: %w", err)
		}
		cultureJSON = sql.NullString{String: string(raw), Valid: true}
	}
	if issue != nil {
		raw, err := json.Marshal(issue)
		if err != nil {
			return cultureJSON, issueJSON, fmt.Errorf("marshal issue judgment: %w", err)
		}
		issueJSON = sql.NullString{String: string(raw), Valid: true}
	}
	return cultureJSON, issueJSON, nil
}

func (s *PostgresStore) ListTextAnnotations(ctx context.Context, taskID, email string) ([]span.TextAnnotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+textAnnColumns+` FROM text_annotations
		WHERE task_id=$1 AND user_email=LOWER($2)
		ORDER BY span_start ASC
	`, taskID, email)
	if err != nil {
		return nil, fmt.Errorf("list text annotations: %w", err)
	}
	defer rows.Close()

	items := make([]span.TextAnnotation, 0)
	for rows.Next() {
		item, err := scanTextAnnotation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan text annotation: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate text annotations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertTextAnnotation(ctx context.Context, a span.TextAnnotation) error {
	cultureJSON, issueJSON, err := marshalJudgments(a.Culture, a.Issue)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO text_annotations (id, task_id, user_email, span_start, span_end, span_text, ann_type, subtype, culture_json, issue_json)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			subtype=EXCLUDED.subtype,
			culture_json=EXCLUDED.culture_json,
			issue_json=EXCLUDED.issue_json,
			updated_at=NOW()
	`, a.ID, a.TaskID, a.UserEmail, a.Start, a.End, a.Text, a.Type, a.Subtype, cultureJSON, issueJSON)
	if err != nil {
		return fmt.Errorf("upsert text annotation: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTextAnnotation(ctx context.Context, annotationID, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM text_annotations WHERE id=$1 AND user_email=LOWER($2)
	`, annotationID, email)
	if err != nil {
		return false, fmt.Errorf("delete text annotation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const imageAnnColumns = `id, task_id, user_email, paragraph_index, shape, x, y, width, height, presence, subtype, culture_json, issue_json, updated_at`

func scanImageAnnotation(scan func(...any) error) (span.ImageAnnotation, error) {
	var a span.ImageAnnotation
	var cultureRaw, issueRaw []byte
	if err := scan(
		&a.ID,
		&a.TaskID,
		&a.UserEmail,
		&a.ParagraphIndex,
		&a.Shape,
		&a.X,
		&a.Y,
		&a.Width,
		&a.Height,
		&a.Presence,
		&a.Subtype,
		&cultureRaw,
		&issueRaw,
		&a.UpdatedAt,
	); err != nil {
		return span.ImageAnnotation{}, err
	}
	if len(cultureRaw) > 0 {
		a.Culture = &span.CultureJudgment{}
		if err := json.Unmarshal(cultureRaw, a.Culture); err != nil {
			return span.ImageAnnotation{}, fmt.Errorf("decode culture judgment: %w", err)
		}
	}
	if len(issueRaw) > 0 {
		a.Issue = &span.IssueJudgment{}
		if err := json.Unmarshal(issueRaw, a.Issue); err != nil {
			return span.ImageAnnotation{}, fmt.Errorf("decode issue judgment: %w", err)
		}
	}
	return a, nil
}

func (s *PostgresStore) ListImageAnnotations(ctx context.Context, taskID, email string) ([]span.ImageAnnotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+imageAnnColumns+` FROM image_annotations
		WHERE task_id=$1 AND user_email=LOWER($2)
		ORDER BY paragraph_index ASC, created_at ASC
	`, taskID, email)
	if err != nil {
		return nil, fmt.Errorf("list image annotations: %w", err)
	}
	defer rows.Close()

	items := make([]span.ImageAnnotation, 0)
	for rows.Next() {
		item, err := scanImageAnnotation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan image annotation: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image annotations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertImageAnnotation(ctx context.Context, a span.ImageAnnotation) error {
	cultureJSON, issueJSON, err := marshalJudgments(a.Culture, a.Issue)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO image_annotations (id, task_id, user_email, paragraph_index, shape, x, y, width, height, presence, subtype, culture_json, issue_json)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			shape=EXCLUDED.shape,
			x=EXCLUDED.x,
			y=EXCLUDED.y,
			width=EXCLUDED.width,
			height=EXCLUDED.height,
			presence=EXCLUDED.presence,
			subtype=EXCLUDED.subtype,
			culture_json=EXCLUDED.culture_json,
			issue_json=EXCLUDED.issue_json,
			updated_at=NOW()
	`, a.ID, a.TaskID, a.UserEmail, a.ParagraphIndex, a.Shape, a.X, a.Y, a.Width, a.Height, a.Presence, a.Subtype, cultureJSON, issueJSON)
	if err != nil {
		return fmt.Errorf("upsert image annotation: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteImageAnnotation(ctx context.Context, annotationID, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM image_annotations WHERE id=$1 AND user_email=LOWER($2)
	`, annotationID, email)
	if err != nil {
		return false, fmt.Errorf("delete image annotation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
