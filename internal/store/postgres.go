package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, LOWER($3), $4, $5)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var item User
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Role, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1
	`, userID, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.role
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, COALESCE(guideline_html, ''), created_at
		FROM projects
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Guideline, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, COALESCE(guideline_html, ''), created_at
		FROM projects
		WHERE id=$1
	`, projectID).Scan(&item.ID, &item.Title, &item.Description, &item.Guideline, &item.CreatedAt)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertProject(ctx context.Context, project Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, guideline_html)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (id) DO UPDATE SET
			title=CASE WHEN EXCLUDED.title <> '' THEN EXCLUDED.title ELSE projects.title END,
			description=CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE projects.description END,
			guideline_html=COALESCE(EXCLUDED.guideline_html, projects.guideline_html)
	`, project.ID, project.Title, project.Description, project.Guideline)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, projectID, title, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET title=$2, description=$3 WHERE id=$1
	`, projectID, title, description)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProjectGuideline(ctx context.Context, projectID, guidelineHTML string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET guideline_html=$2 WHERE id=$1
	`, projectID, guidelineHTML)
	if err != nil {
		return fmt.Errorf("update project guideline: %w", err)
	}
	return nil
}

// DeleteProjectCascade removes a project together with its tasks, the
// assignments referencing those tasks, and every user's annotation and
// submission records on them. Unrelated projects and tasks are untouched.
func (s *PostgresStore) DeleteProjectCascade(ctx context.Context, projectID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin project delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM text_annotations WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)`,
		`DELETE FROM image_annotations WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)`,
		`DELETE FROM submissions WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)`,
		`DELETE FROM task_assignments WHERE task_id IN (SELECT id FROM tasks WHERE project_id=$1)`,
		`DELETE FROM project_assignments WHERE project_id=$1`,
		`DELETE FROM tasks WHERE project_id=$1`,
		`DELETE FROM projects WHERE id=$1`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, projectID); err != nil {
			return fmt.Errorf("project delete cascade: %w", err)
		}
	}
	return tx.Commit()
}

const taskColumns = `id, COALESCE(project_id, ''), title, objective, description, body_text, images_json, audio_json, category, gender, created_at, updated_at`

func (s *PostgresStore) scanTask(scan func(...any) error) (Task, error) {
	var item Task
	var imagesRaw, audioRaw []byte
	if err := scan(
		&item.ID,
		&item.ProjectID,
		&item.Title,
		&item.Objective,
		&item.Description,
		&item.Text,
		&imagesRaw,
		&audioRaw,
		&item.Category,
		&item.Gender,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return Task{}, err
	}
	_ = json.Unmarshal(imagesRaw, &item.Images)
	_ = json.Unmarshal(audioRaw, &item.Audio)
	return item, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return s.collectTasks(rows)
}

func (s *PostgresStore) ListTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE project_id=$1 ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by project: %w", err)
	}
	return s.collectTasks(rows)
}

// ListTasksVisibleTo returns the tasks an annotator may see: tasks assigned
// to them directly or via the "all" sentinel, plus unassigned tasks in
// projects they belong to. Direct task assignment takes precedence over
// project membership.
func (s *PostgresStore) ListTasksVisibleTo(ctx context.Context, email string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE EXISTS (
			SELECT 1 FROM task_assignments ta
			WHERE ta.task_id=t.id AND (ta.user_email=LOWER($1) OR ta.user_email='all')
		)
		OR (
			NOT EXISTS (SELECT 1 FROM task_assignments ta WHERE ta.task_id=t.id AND ta.user_email <> 'all')
			AND EXISTS (
				SELECT 1 FROM project_assignments pa
				WHERE pa.project_id=t.project_id AND pa.user_email=LOWER($1)
			)
		)
		ORDER BY t.created_at ASC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list visible tasks: %w", err)
	}
	return s.collectTasks(rows)
}

func (s *PostgresStore) collectTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	items := make([]Task, 0)
	for rows.Next() {
		item, err := s.scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, taskID)
	return s.scanTask(row.Scan)
}

func (s *PostgresStore) UpsertTask(ctx context.Context, task Task) error {
	images, err := json.Marshal(nonNilStrings(task.Images))
	if err != nil {
		return fmt.Errorf("marshal task images: %w", err)
	}
	audio, err := json.Marshal(nonNilStrings(task.Audio))
	if err != nil {
		return fmt.Errorf("marshal task audio: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, objective, description, body_text, images_json, audio_json, category, gender)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			project_id=NULLIF(EXCLUDED.project_id, ''),
			title=EXCLUDED.title,
			objective=EXCLUDED.objective,
			description=EXCLUDED.description,
			body_text=EXCLUDED.body_text,
			images_json=EXCLUDED.images_json,
			audio_json=EXCLUDED.audio_json,
			category=EXCLUDED.category,
			gender=EXCLUDED.gender,
			updated_at=NOW()
	`, task.ID, task.ProjectID, task.Title, task.Objective, task.Description, task.Text, string(images), string(audio), task.Category, task.Gender)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// DeleteTaskCascade removes a task with its assignments, annotations, and
// submissions for every user.
func (s *PostgresStore) DeleteTaskCascade(ctx context.Context, taskID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM text_annotations WHERE task_id=$1`,
		`DELETE FROM image_annotations WHERE task_id=$1`,
		`DELETE FROM submissions WHERE task_id=$1`,
		`DELETE FROM task_assignments WHERE task_id=$1`,
		`DELETE FROM tasks WHERE id=$1`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, taskID); err != nil {
			return fmt.Errorf("task delete cascade: %w", err)
		}
	}
	return tx.Commit()
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func (s *PostgresStore) ListTaskAssignments(ctx context.Context, taskID string) ([]TaskAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_email, created_at
		FROM task_assignments
		WHERE task_id=$1
		ORDER BY created_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task assignments: %w", err)
	}
	defer rows.Close()

	items := make([]TaskAssignment, 0)
	for rows.Next() {
		var item TaskAssignment
		if err := rows.Scan(&item.ID, &item.TaskID, &item.UserEmail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task assignment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task assignments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AssignTask(ctx context.Context, assignment TaskAssignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_assignments (id, task_id, user_email)
		VALUES ($1, $2, LOWER($3))
		ON CONFLICT (task_id, user_email) DO NOTHING
	`, assignment.ID, assignment.TaskID, assignment.UserEmail)
	if err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnassignTask(ctx context.Context, taskID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM task_assignments WHERE task_id=$1 AND user_email=LOWER($2)
	`, taskID, email)
	if err != nil {
		return fmt.Errorf("unassign task: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProjectAssignments(ctx context.Context, projectID string) ([]ProjectAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, user_email, created_at
		FROM project_assignments
		WHERE project_id=$1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project assignments: %w", err)
	}
	defer rows.Close()

	items := make([]ProjectAssignment, 0)
	for rows.Next() {
		var item ProjectAssignment
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.UserEmail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project assignment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project assignments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AssignProject(ctx context.Context, assignment ProjectAssignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_assignments (id, project_id, user_email)
		VALUES ($1, $2, LOWER($3))
		ON CONFLICT (project_id, user_email) DO NOTHING
	`, assignment.ID, assignment.ProjectID, assignment.UserEmail)
	if err != nil {
		return fmt.Errorf("assign project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnassignProject(ctx context.Context, projectID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM project_assignments WHERE project_id=$1 AND user_email=LOWER($2)
	`, projectID, email)
	if err != nil {
		return fmt.Errorf("unassign project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, taskID, email string) (Submission, error) {
	var item Submission
	err := s.db.QueryRowContext(ctx, `
		SELECT task_id, user_email, completed, alignment_score, language_similarity, similarity_justification, updated_at
		FROM submissions
		WHERE task_id=$1 AND user_email=LOWER($2)
	`, taskID, email).Scan(
		&item.TaskID,
		&item.UserEmail,
		&item.Completed,
		&item.AlignmentScore,
		&item.LanguageSimilarity,
		&item.SimilarityJustification,
		&item.UpdatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	return item, nil
}

// UpsertSubmission overwrites any previous submission for the pair; there is
// no versioning of resubmits.
func (s *PostgresStore) UpsertSubmission(ctx context.Context, submission Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (task_id, user_email, completed, alignment_score, language_similarity, similarity_justification)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)
		ON CONFLICT (task_id, user_email) DO UPDATE SET
			completed=EXCLUDED.completed,
			alignment_score=EXCLUDED.alignment_score,
			language_similarity=EXCLUDED.language_similarity,
			similarity_justification=EXCLUDED.similarity_justification,
			updated_at=NOW()
	`, submission.TaskID, submission.UserEmail, submission.Completed, submission.AlignmentScore, submission.LanguageSimilarity, submission.SimilarityJustification)
	if err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSubmission(ctx context.Context, taskID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM submissions WHERE task_id=$1 AND user_email=LOWER($2)
	`, taskID, email)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

// ListCompletedTaskIDs returns the tasks a user has completed, restricted to
// the given project.
func (s *PostgresStore) ListCompletedTaskIDs(ctx context.Context, projectID, email string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sub.task_id
		FROM submissions sub
		JOIN tasks t ON t.id = sub.task_id
		WHERE t.project_id=$1 AND sub.user_email=LOWER($2) AND sub.completed
		ORDER BY sub.updated_at ASC
	`, projectID, email)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed task ids: %w", err)
	}
	return ids, nil
}

// ListSubmissionEmails returns the distinct users with any submission or
// annotation in the project, for building per-user export bundles.
func (s *PostgresStore) ListSubmissionEmails(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_email FROM (
			SELECT sub.user_email FROM submissions sub
			JOIN tasks t ON t.id = sub.task_id WHERE t.project_id=$1
			UNION
			SELECT a.user_email FROM text_annotations a
			JOIN tasks t ON t.id = a.task_id WHERE t.project_id=$1
			UNION
			SELECT ia.user_email FROM image_annotations ia
			JOIN tasks t ON t.id = ia.task_id WHERE t.project_id=$1
		) emails
		ORDER BY user_email ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list submission emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan submission email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission emails: %w", err)
	}
	return emails, nil
}

var ErrNotFound = errors.New("not found")
