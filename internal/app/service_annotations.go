package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"culturemark/api/internal/bundle"
	"culturemark/api/internal/rbac"
	"culturemark/api/internal/report"
	"culturemark/api/internal/search"
	"culturemark/api/internal/segment"
	"culturemark/api/internal/span"
	"culturemark/api/internal/store"
	"culturemark/api/internal/util"
)

// AnnotationInput is the request body for creating or updating a text
// annotation. Start/End are paragraph-local when ParagraphIndex is set,
// document-global otherwise.
type AnnotationInput struct {
	ParagraphIndex *int                  `json:"paragraphIndex,omitempty"`
	Start          int                   `json:"start"`
	End            int                   `json:"end"`
	Subtype        span.Subtype          `json:"subtype"`
	Culture        *span.CultureJudgment `json:"culture,omitempty"`
	Issue          *span.IssueJudgment   `json:"issue,omitempty"`
}

// CreateAnnotation runs a manual selection through the overlap gate and
// persists it. A blocked selection surfaces as 409 SPAN_OVERLAP; the client
// treats that as a silently dropped selection.
func (s *Service) CreateAnnotation(ctx context.Context, session Session, taskID string, input AnnotationInput) (span.TextAnnotation, error) {
	task, err := s.visibleTask(ctx, session, taskID)
	if err != nil {
		return span.TextAnnotation{}, err
	}

	start, end := input.Start, input.End
	if input.ParagraphIndex != nil {
		paragraphs := segment.Split(task.Text)
		i := *input.ParagraphIndex
		if i < 0 || i >= len(paragraphs) {
			return span.TextAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "paragraph index out of range", nil)
		}
		start, end = span.Globalize(paragraphs[i], start, end)
	}
	if start < 0 || end > len(task.Text) || end <= start {
		return span.TextAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "span out of range", map[string]any{
			"start": start, "end": end, "textLength": len(task.Text),
		})
	}

	existing, err := s.store.ListTextAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return span.TextAnnotation{}, err
	}

	annotation := span.TextAnnotation{
		ID:        util.NewID("ann"),
		TaskID:    taskID,
		UserEmail: session.Email,
		Start:     start,
		End:       end,
		Text:      task.Text[start:end],
		Type:      span.TypeManual,
		Subtype:   input.Subtype,
		Culture:   input.Culture,
		Issue:     input.Issue,
		UpdatedAt: time.Now(),
	}

	working := span.NewStore(existing, nil)
	if err := working.AddManual(annotation); err != nil {
		if errors.Is(err, span.ErrOverlap) {
			return span.TextAnnotation{}, domainError(http.StatusConflict, "SPAN_OVERLAP", "Selection overlaps an existing annotation", nil)
		}
		return span.TextAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}

	if err := s.store.UpsertTextAnnotation(ctx, annotation); err != nil {
		return span.TextAnnotation{}, err
	}
	return annotation, nil
}

// UpdateAnnotation edits the judgment fields of an annotation. Bounds never
// change on edit, so the overlap gate is not re-run.
func (s *Service) UpdateAnnotation(ctx context.Context, session Session, taskID, annotationID string, input AnnotationInput) (span.TextAnnotation, error) {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return span.TextAnnotation{}, err
	}

	existing, err := s.store.ListTextAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return span.TextAnnotation{}, err
	}

	working := span.NewStore(existing, nil)
	if !working.Update(annotationID, input.Subtype, input.Culture, input.Issue) {
		return span.TextAnnotation{}, domainError(http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
	}
	for _, a := range working.List() {
		if a.ID == annotationID {
			if err := a.Validate(); err != nil {
				return span.TextAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			}
			if err := s.store.UpsertTextAnnotation(ctx, a); err != nil {
				return span.TextAnnotation{}, err
			}
			return a, nil
		}
	}
	return span.TextAnnotation{}, domainError(http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
}

func (s *Service) DeleteAnnotation(ctx context.Context, session Session, annotationID string) error {
	deleted, err := s.store.DeleteTextAnnotation(ctx, annotationID, session.Email)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
	}
	return nil
}

// ImageAnnotationInput is the request body for image region annotations.
// Coordinates are percentages of the rendered image box.
type ImageAnnotationInput struct {
	ParagraphIndex int                   `json:"paragraphIndex"`
	Shape          span.Shape            `json:"shape"`
	X              float64               `json:"x"`
	Y              float64               `json:"y"`
	Width          float64               `json:"width"`
	Height         float64               `json:"height"`
	Presence       string                `json:"presence,omitempty"`
	Subtype        span.Subtype          `json:"subtype"`
	Culture        *span.CultureJudgment `json:"culture,omitempty"`
	Issue          *span.IssueJudgment   `json:"issue,omitempty"`
}

// CreateImageAnnotation stores an image region judgment. Regions have no
// overlap policy; a plain click becomes a fixed-size pin.
func (s *Service) CreateImageAnnotation(ctx context.Context, session Session, taskID string, input ImageAnnotationInput) (span.ImageAnnotation, error) {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return span.ImageAnnotation{}, err
	}

	existing, err := s.store.ListImageAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return span.ImageAnnotation{}, err
	}

	shape := input.Shape
	if shape == "" {
		shape = span.ShapeRect
	}
	x, y, w, h := span.NormalizeRegion(input.X, input.Y, input.Width, input.Height)
	annotation := span.ImageAnnotation{
		ID:             util.NewID("img"),
		TaskID:         taskID,
		UserEmail:      session.Email,
		ParagraphIndex: input.ParagraphIndex,
		Shape:          shape,
		X:              x,
		Y:              y,
		Width:          w,
		Height:         h,
		Presence:       input.Presence,
		Subtype:        input.Subtype,
		Culture:        input.Culture,
		Issue:          input.Issue,
		UpdatedAt:      time.Now(),
	}
	working := span.NewStore(nil, existing)
	if err := working.AddImage(annotation); err != nil {
		return span.ImageAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	if err := s.store.UpsertImageAnnotation(ctx, annotation); err != nil {
		return span.ImageAnnotation{}, err
	}
	return annotation, nil
}

func (s *Service) UpdateImageAnnotation(ctx context.Context, session Session, taskID, annotationID string, input ImageAnnotationInput) (span.ImageAnnotation, error) {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return span.ImageAnnotation{}, err
	}

	existing, err := s.store.ListImageAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return span.ImageAnnotation{}, err
	}

	working := span.NewStore(nil, existing)
	if !working.UpdateImage(annotationID, input.Subtype, input.Culture, input.Issue, input.Presence) {
		return span.ImageAnnotation{}, domainError(http.StatusNotFound, "NOT_FOUND", "Image annotation not found", nil)
	}
	for _, a := range working.AllImages() {
		if a.ID == annotationID {
			if err := a.Validate(); err != nil {
				return span.ImageAnnotation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			}
			if err := s.store.UpsertImageAnnotation(ctx, a); err != nil {
				return span.ImageAnnotation{}, err
			}
			return a, nil
		}
	}
	return span.ImageAnnotation{}, domainError(http.StatusNotFound, "NOT_FOUND", "Image annotation not found", nil)
}

func (s *Service) DeleteImageAnnotation(ctx context.Context, session Session, annotationID string) error {
	deleted, err := s.store.DeleteImageAnnotation(ctx, annotationID, session.Email)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Image annotation not found", nil)
	}
	return nil
}

// Suggestions asks the model for culture-span candidates, filters them
// against the user's existing annotations, persists the survivors, and
// returns them.
func (s *Service) Suggestions(ctx context.Context, session Session, taskID string) ([]span.TextAnnotation, error) {
	if s.suggest == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SUGGESTIONS_UNAVAILABLE", "Suggestions are not configured", nil)
	}

	task, err := s.visibleTask(ctx, session, taskID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.suggest.Suggestions(ctx, taskID, session.Email, task.Text)
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "SUGGESTIONS_FAILED", "Suggestion provider error", map[string]any{"error": err.Error()})
	}

	existing, err := s.store.ListTextAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return nil, err
	}

	working := span.NewStore(existing, nil)
	accepted := working.AddSuggested(candidates)
	for _, a := range accepted {
		if err := s.store.UpsertTextAnnotation(ctx, a); err != nil {
			return nil, err
		}
	}
	return accepted, nil
}

// SubmissionInput carries the task-level judgments recorded at submit time.
type SubmissionInput struct {
	AlignmentScore          int    `json:"alignmentScore"`
	LanguageSimilarity      string `json:"languageSimilarity"`
	SimilarityJustification string `json:"similarityJustification"`
}

// Submit marks the task completed for the user. Re-submission overwrites the
// previous scores; there is no versioning.
func (s *Service) Submit(ctx context.Context, session Session, taskID string, input SubmissionInput) (map[string]any, error) {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return nil, err
	}
	sub := store.Submission{
		TaskID:                  taskID,
		UserEmail:               session.Email,
		Completed:               true,
		AlignmentScore:          input.AlignmentScore,
		LanguageSimilarity:      input.LanguageSimilarity,
		SimilarityJustification: input.SimilarityJustification,
		UpdatedAt:               time.Now(),
	}
	if err := s.store.UpsertSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return submissionPayload(sub), nil
}

func (s *Service) Submission(ctx context.Context, session Session, taskID string) (map[string]any, error) {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return nil, err
	}
	sub, err := s.store.GetSubmission(ctx, taskID, session.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound) {
			return map[string]any{"taskId": taskID, "completed": false}, nil
		}
		return nil, err
	}
	return submissionPayload(sub), nil
}

// Reopen clears the user's submission so the task can be worked on again.
// Annotations are untouched.
func (s *Service) Reopen(ctx context.Context, session Session, taskID string) error {
	if _, err := s.visibleTask(ctx, session, taskID); err != nil {
		return err
	}
	return s.store.DeleteSubmission(ctx, taskID, session.Email)
}

// ExportProject assembles the interchange bundle for one project: the
// project record, its tasks with derived paragraphs, and every user's
// annotations and completion state.
func (s *Service) ExportProject(ctx context.Context, projectID string) (bundle.Bundle, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return bundle.Bundle{}, err
	}
	tasks, err := s.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return bundle.Bundle{}, err
	}

	state := &bundle.State{
		Projects: []bundle.ProjectRecord{{
			ID:          project.ID,
			Title:       project.Title,
			Description: project.Description,
			Guideline:   project.Guideline,
			CreatedAt:   project.CreatedAt.Format(time.RFC3339),
		}},
	}
	for _, task := range tasks {
		state.Tasks = append(state.Tasks, bundle.TaskRecord{
			ID:          task.ID,
			Title:       task.Title,
			Objective:   task.Objective,
			Description: task.Description,
			Text:        task.Text,
			Images:      task.Images,
			Audio:       task.Audio,
			ProjectID:   task.ProjectID,
			Category:    task.Category,
			Gender:      task.Gender,
		})
	}

	emails, err := s.store.ListSubmissionEmails(ctx, projectID)
	if err != nil {
		return bundle.Bundle{}, err
	}
	for _, email := range emails {
		user := bundle.UserBundle{
			UserEmail: email,
			TaskData:  make(map[string]bundle.TaskData),
		}
		completed, err := s.store.ListCompletedTaskIDs(ctx, projectID, email)
		if err != nil {
			return bundle.Bundle{}, err
		}
		user.CompletedTaskIDs = completed

		for _, task := range tasks {
			annotations, err := s.store.ListTextAnnotations(ctx, task.ID, email)
			if err != nil {
				return bundle.Bundle{}, err
			}
			images, err := s.store.ListImageAnnotations(ctx, task.ID, email)
			if err != nil {
				return bundle.Bundle{}, err
			}
			if len(annotations) == 0 && len(images) == 0 {
				continue
			}
			data := bundle.TaskData{
				Annotations:      annotations,
				ImageAnnotations: make(map[string][]span.ImageAnnotation),
			}
			for _, img := range images {
				key := strconv.Itoa(img.ParagraphIndex)
				data.ImageAnnotations[key] = append(data.ImageAnnotations[key], img)
			}
			user.TaskData[task.ID] = data
		}
		state.Users = append(state.Users, user)
	}

	return bundle.Export(state, projectID)
}

// ImportBundle validates and normalizes a bundle through the merge, then
// persists it with idempotent upserts. Importing the same file twice leaves
// the database unchanged.
func (s *Service) ImportBundle(ctx context.Context, b bundle.Bundle) (map[string]any, error) {
	state := &bundle.State{}
	if err := bundle.Merge(state, b); err != nil {
		if errors.Is(err, bundle.ErrMalformedBundle) {
			return nil, domainError(http.StatusUnprocessableEntity, "MALFORMED_BUNDLE", err.Error(), nil)
		}
		return nil, err
	}

	for _, project := range state.Projects {
		if err := s.store.InsertProject(ctx, store.Project{
			ID:          project.ID,
			Title:       project.Title,
			Description: project.Description,
			Guideline:   project.Guideline,
		}); err != nil {
			return nil, fmt.Errorf("import project %s: %w", project.ID, err)
		}
	}

	taskCount := 0
	for _, task := range state.Tasks {
		record := store.Task{
			ID:          task.ID,
			ProjectID:   task.ProjectID,
			Title:       task.Title,
			Objective:   task.Objective,
			Description: task.Description,
			Text:        task.CanonicalText(),
			Images:      task.Images,
			Audio:       task.Audio,
			Category:    task.Category,
			Gender:      task.Gender,
		}
		if err := s.store.UpsertTask(ctx, record); err != nil {
			return nil, fmt.Errorf("import task %s: %w", task.ID, err)
		}
		s.indexTask(record)
		taskCount++
	}

	annotationCount := 0
	for _, user := range state.Users {
		for taskID, data := range user.TaskData {
			for _, a := range data.Annotations {
				a.TaskID = taskID
				a.UserEmail = user.UserEmail
				if a.Validate() != nil {
					log.Printf("import: skipping invalid annotation %s on task %s", a.ID, taskID)
					continue
				}
				if err := s.store.UpsertTextAnnotation(ctx, a); err != nil {
					return nil, fmt.Errorf("import annotation %s: %w", a.ID, err)
				}
				annotationCount++
			}
			for key, images := range data.ImageAnnotations {
				idx, err := strconv.Atoi(key)
				if err != nil {
					log.Printf("import: skipping image bucket with key %q on task %s", key, taskID)
					continue
				}
				for _, img := range images {
					img.TaskID = taskID
					img.UserEmail = user.UserEmail
					img.ParagraphIndex = idx
					if img.Validate() != nil {
						log.Printf("import: skipping invalid image annotation %s on task %s", img.ID, taskID)
						continue
					}
					if err := s.store.UpsertImageAnnotation(ctx, img); err != nil {
						return nil, fmt.Errorf("import image annotation %s: %w", img.ID, err)
					}
					annotationCount++
				}
			}
		}
		for _, taskID := range user.CompletedTaskIDs {
			sub, err := s.store.GetSubmission(ctx, taskID, user.UserEmail)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, store.ErrNotFound) {
					return nil, fmt.Errorf("import submission for %s: %w", taskID, err)
				}
				sub = store.Submission{TaskID: taskID, UserEmail: user.UserEmail}
			}
			sub.Completed = true
			sub.UpdatedAt = time.Now()
			if err := s.store.UpsertSubmission(ctx, sub); err != nil {
				return nil, fmt.Errorf("import submission for %s: %w", taskID, err)
			}
		}
	}

	return map[string]any{
		"projects":    len(state.Projects),
		"tasks":       taskCount,
		"annotations": annotationCount,
		"users":       len(state.Users),
	}, nil
}

// Search runs the task search; annotator results are filtered to tasks the
// user can actually open.
func (s *Service) Search(ctx context.Context, session Session, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}, nil
	}
	resp := s.search.Search(q)

	if rbac.Normalize(session.Role) != rbac.RoleAdmin {
		visible, err := s.store.ListTasksVisibleTo(ctx, session.Email)
		if err != nil {
			return search.Response{}, err
		}
		allowed := make(map[string]bool, len(visible))
		for _, task := range visible {
			allowed[task.ID] = true
		}
		filtered := make([]search.Result, 0, len(resp.Results))
		for _, r := range resp.Results {
			if allowed[r.ID] {
				filtered = append(filtered, r)
			}
		}
		resp.Results = filtered
		resp.Total = len(filtered)
	}
	return resp, nil
}

// Report renders the project progress PDF.
func (s *Service) Report(ctx context.Context, projectID string) (*report.Result, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.report.Generate(ctx, projectID)
}

// UploadAsset streams a media file into object storage for a task and
// returns the stored key plus a presigned URL.
func (s *Service) UploadAsset(ctx context.Context, taskID, filename string, r io.Reader, size int64, contentType string) (map[string]any, error) {
	if s.assets == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ASSETS_UNAVAILABLE", "Object storage is not configured", nil)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	key, err := s.assets.Upload(ctx, taskID, filename, r, size, contentType)
	if err != nil {
		return nil, err
	}
	url, err := s.assets.PresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "url": url}, nil
}

// PresignAsset returns a fresh time-limited URL for a stored object key.
func (s *Service) PresignAsset(ctx context.Context, key string) (map[string]any, error) {
	if s.assets == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ASSETS_UNAVAILABLE", "Object storage is not configured", nil)
	}
	url, err := s.assets.PresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "url": url}, nil
}

// reportStore adapts the data store to the report package's interface.
type reportStore struct {
	store dataStore
}

func (r reportStore) GetProjectInfo(ctx context.Context, projectID string) (report.ProjectInfo, error) {
	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return report.ProjectInfo{}, err
	}
	tasks, err := r.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return report.ProjectInfo{}, err
	}
	return report.ProjectInfo{
		Title:       project.Title,
		Description: project.Description,
		TaskCount:   len(tasks),
	}, nil
}

func (r reportStore) ListAnnotatorRows(ctx context.Context, projectID string) ([]report.AnnotatorRow, error) {
	emails, err := r.store.ListSubmissionEmails(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := r.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rows := make([]report.AnnotatorRow, 0, len(emails))
	for _, email := range emails {
		completed, err := r.store.ListCompletedTaskIDs(ctx, projectID, email)
		if err != nil {
			return nil, err
		}
		row := report.AnnotatorRow{Email: email, CompletedTasks: len(completed)}
		for _, task := range tasks {
			annotations, err := r.store.ListTextAnnotations(ctx, task.ID, email)
			if err != nil {
				return nil, err
			}
			images, err := r.store.ListImageAnnotations(ctx, task.ID, email)
			if err != nil {
				return nil, err
			}
			row.TextAnnotations += len(annotations)
			row.ImageAnnotations += len(images)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
