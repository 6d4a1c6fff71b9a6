package store

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	ID          string
	Title       string
	Description string
	Guideline   string
	CreatedAt   time.Time
}

type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Objective   string
	Description string
	Text        string
	Images      []string
	Audio       []string
	Category    string
	Gender      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskAssignment links a user (by email) to a task. The sentinel email
// "all" makes the task visible to every annotator.
type TaskAssignment struct {
	ID        string
	TaskID    string
	UserEmail string
	CreatedAt time.Time
}

type ProjectAssignment struct {
	ID        string
	ProjectID string
	UserEmail string
	CreatedAt time.Time
}

// Submission records a user's completion state and task-level judgments for
// one task. Re-submission overwrites; there is no versioning.
type Submission struct {
	TaskID                  string
	UserEmail               string
	Completed               bool
	AlignmentScore          int
	LanguageSimilarity      string
	SimilarityJustification string
	UpdatedAt               time.Time
}

// GuidelineVersion is one committed revision of a project's guideline.
type GuidelineVersion struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}
