// Package bundle implements the versioned JSON interchange format used to
// move a project between deployments, and the merge-on-import that upserts a
// bundle into current state instead of destructively replacing it.
package bundle

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"culturemark/api/internal/segment"
	"culturemark/api/internal/span"
)

// Version is written into every export. Imports do not reject on version;
// the paragraph-derivation compatibility path covers older files.
const Version = "1.1"

var ErrMalformedBundle = errors.New("bundle missing project, tasks, or annotations")

// ProjectRecord is the project as carried on the wire.
type ProjectRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Guideline   string `json:"guideline,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// TaskRecord is a task plus the derived fields exports carry. Text is
// canonical; Paragraphs is derived on export and used to reconstruct Text on
// import when Text is absent.
type TaskRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Objective   string   `json:"objective,omitempty"`
	Description string   `json:"description,omitempty"`
	Text        string   `json:"text"`
	Paragraphs  []string `json:"paragraphs"`
	Images      []string `json:"images"`
	Audio       []string `json:"audio"`
	ProjectID   string   `json:"projectId,omitempty"`
	Category    string   `json:"category,omitempty"`
	Gender      string   `json:"gender,omitempty"`
}

// TaskData groups one user's annotations on one task. Image annotations are
// keyed by stringified paragraph index on the wire for compatibility with
// previously exported files.
type TaskData struct {
	Annotations      []span.TextAnnotation            `json:"annotations"`
	ImageAnnotations map[string][]span.ImageAnnotation `json:"imageAnnotations"`
}

// UserBundle is one user's complete annotation set for a project.
type UserBundle struct {
	UserEmail        string              `json:"userEmail"`
	CompletedTaskIDs []string            `json:"completedTaskIds"`
	TaskData         map[string]TaskData `json:"taskData"`
}

// Bundle is the top-level export document.
type Bundle struct {
	Version     string        `json:"version"`
	Project     *ProjectRecord `json:"project"`
	Tasks       []TaskRecord  `json:"tasks"`
	Annotations []UserBundle  `json:"annotations"`
}

// State is the local project state a bundle merges into.
type State struct {
	Projects []ProjectRecord
	Tasks    []TaskRecord
	Users    []UserBundle
}

// CanonicalText resolves a task's text, falling back to joining the
// paragraphs array with blank lines for exports that store paragraphs
// instead of raw text.
func (t TaskRecord) CanonicalText() string {
	if strings.TrimSpace(t.Text) != "" {
		return t.Text
	}
	return segment.Join(t.Paragraphs)
}

// Export builds a bundle from state for one project, deriving paragraphs
// and normalizing nil slices so the wire shape is stable.
func Export(state *State, projectID string) (Bundle, error) {
	var project *ProjectRecord
	for i := range state.Projects {
		if state.Projects[i].ID == projectID {
			p := state.Projects[i]
			project = &p
			break
		}
	}
	if project == nil {
		return Bundle{}, fmt.Errorf("export project %s: not found", projectID)
	}

	tasks := make([]TaskRecord, 0)
	taskIDs := make(map[string]bool)
	for _, task := range state.Tasks {
		if task.ProjectID != projectID {
			continue
		}
		out := task
		out.Text = task.CanonicalText()
		out.Paragraphs = paragraphTexts(out.Text)
		if out.Images == nil {
			out.Images = []string{}
		}
		if out.Audio == nil {
			out.Audio = []string{}
		}
		tasks = append(tasks, out)
		taskIDs[task.ID] = true
	}

	users := make([]UserBundle, 0)
	for _, user := range state.Users {
		filtered := UserBundle{
			UserEmail:        user.UserEmail,
			CompletedTaskIDs: []string{},
			TaskData:         make(map[string]TaskData),
		}
		for _, id := range user.CompletedTaskIDs {
			if taskIDs[id] {
				filtered.CompletedTaskIDs = append(filtered.CompletedTaskIDs, id)
			}
		}
		for taskID, data := range user.TaskData {
			if taskIDs[taskID] {
				filtered.TaskData[taskID] = data
			}
		}
		if len(filtered.CompletedTaskIDs) > 0 || len(filtered.TaskData) > 0 {
			users = append(users, filtered)
		}
	}

	return Bundle{
		Version:     Version,
		Project:     project,
		Tasks:       tasks,
		Annotations: users,
	}, nil
}

func paragraphTexts(text string) []string {
	split := segment.Split(text)
	out := make([]string, 0, len(split))
	for _, p := range split {
		out = append(out, p.Text)
	}
	return out
}

// Merge reconciles a bundle into state. The import is authoritative
// per-record: matching IDs are replaced, unmatched records appended,
// completed-task sets unioned. A bundle missing any top-level key is
// rejected before any mutation. Malformed per-user entries are logged and
// skipped so one bad record cannot abort the batch.
func Merge(state *State, b Bundle) error {
	if b.Project == nil || b.Tasks == nil || b.Annotations == nil {
		return ErrMalformedBundle
	}

	mergeProject(state, *b.Project)

	for _, task := range b.Tasks {
		incoming := task
		incoming.Text = task.CanonicalText()
		upsertTask(state, incoming)
	}

	for _, user := range b.Annotations {
		if strings.TrimSpace(user.UserEmail) == "" {
			log.Printf("bundle: skipping user entry without email")
			continue
		}
		mergeUser(state, user)
	}
	return nil
}

// mergeProject shallow-merges non-empty incoming fields into a matching
// project, or appends the project as new.
func mergeProject(state *State, incoming ProjectRecord) {
	for i := range state.Projects {
		if state.Projects[i].ID != incoming.ID {
			continue
		}
		if incoming.Title != "" {
			state.Projects[i].Title = incoming.Title
		}
		if incoming.Description != "" {
			state.Projects[i].Description = incoming.Description
		}
		if incoming.Guideline != "" {
			state.Projects[i].Guideline = incoming.Guideline
		}
		return
	}
	state.Projects = append(state.Projects, incoming)
}

func upsertTask(state *State, incoming TaskRecord) {
	for i := range state.Tasks {
		if state.Tasks[i].ID == incoming.ID {
			state.Tasks[i] = incoming
			return
		}
	}
	state.Tasks = append(state.Tasks, incoming)
}

func mergeUser(state *State, incoming UserBundle) {
	var existing *UserBundle
	for i := range state.Users {
		if state.Users[i].UserEmail == incoming.UserEmail {
			existing = &state.Users[i]
			break
		}
	}
	if existing == nil {
		if incoming.TaskData == nil {
			incoming.TaskData = make(map[string]TaskData)
		}
		state.Users = append(state.Users, incoming)
		return
	}

	existing.CompletedTaskIDs = unionStrings(existing.CompletedTaskIDs, incoming.CompletedTaskIDs)
	if existing.TaskData == nil {
		existing.TaskData = make(map[string]TaskData)
	}
	for taskID, data := range incoming.TaskData {
		current, ok := existing.TaskData[taskID]
		if !ok {
			existing.TaskData[taskID] = data
			continue
		}
		current.Annotations = upsertAnnotations(current.Annotations, data.Annotations)
		current.ImageAnnotations = mergeImageBuckets(current.ImageAnnotations, data.ImageAnnotations)
		existing.TaskData[taskID] = current
	}
}

func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string(nil), existing...)
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range incoming {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// upsertAnnotations replaces matching IDs and appends the rest. An import
// overwrites a local edit sharing an ID; the import is authoritative
// per-record.
func upsertAnnotations(existing, incoming []span.TextAnnotation) []span.TextAnnotation {
	out := append([]span.TextAnnotation(nil), existing...)
	for _, a := range incoming {
		replaced := false
		for i := range out {
			if out[i].ID == a.ID {
				out[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, a)
		}
	}
	return out
}

// mergeImageBuckets applies the identifier upsert independently within each
// paragraph-index bucket; unmatched incoming buckets are added wholesale.
func mergeImageBuckets(existing, incoming map[string][]span.ImageAnnotation) map[string][]span.ImageAnnotation {
	if existing == nil {
		existing = make(map[string][]span.ImageAnnotation)
	}
	for key, bucket := range incoming {
		current, ok := existing[key]
		if !ok {
			existing[key] = bucket
			continue
		}
		out := append([]span.ImageAnnotation(nil), current...)
		for _, a := range bucket {
			replaced := false
			for i := range out {
				if out[i].ID == a.ID {
					out[i] = a
					replaced = true
					break
				}
			}
			if !replaced {
				out = append(out, a)
			}
		}
		existing[key] = out
	}
	return existing
}
