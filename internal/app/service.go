package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"culturemark/api/internal/assets"
	"culturemark/api/internal/auth"
	"culturemark/api/internal/authpw"
	"culturemark/api/internal/config"
	"culturemark/api/internal/guideline"
	"culturemark/api/internal/rbac"
	"culturemark/api/internal/report"
	"culturemark/api/internal/search"
	"culturemark/api/internal/segment"
	"culturemark/api/internal/span"
	"culturemark/api/internal/store"
	"culturemark/api/internal/suggest"
	"culturemark/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// AllAnnotators is the assignment sentinel that opens a task to every
// annotator.
const AllAnnotators = "all"

type dataStore interface {
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListUsers(context.Context) ([]store.User, error)
	UpdateUserRole(context.Context, string, string) error

	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProject(context.Context, string, string, string) error
	UpdateProjectGuideline(context.Context, string, string) error
	DeleteProjectCascade(context.Context, string) error
	ListProjectAssignments(context.Context, string) ([]store.ProjectAssignment, error)
	AssignProject(context.Context, store.ProjectAssignment) error
	UnassignProject(context.Context, string, string) error

	ListTasks(context.Context) ([]store.Task, error)
	ListTasksByProject(context.Context, string) ([]store.Task, error)
	ListTasksVisibleTo(context.Context, string) ([]store.Task, error)
	GetTask(context.Context, string) (store.Task, error)
	UpsertTask(context.Context, store.Task) error
	DeleteTaskCascade(context.Context, string) error
	ListTaskAssignments(context.Context, string) ([]store.TaskAssignment, error)
	AssignTask(context.Context, store.TaskAssignment) error
	UnassignTask(context.Context, string, string) error

	GetSubmission(context.Context, string, string) (store.Submission, error)
	UpsertSubmission(context.Context, store.Submission) error
	DeleteSubmission(context.Context, string, string) error
	ListCompletedTaskIDs(context.Context, string, string) ([]string, error)
	ListSubmissionEmails(context.Context, string) ([]string, error)

	ListTextAnnotations(context.Context, string, string) ([]span.TextAnnotation, error)
	UpsertTextAnnotation(context.Context, span.TextAnnotation) error
	DeleteTextAnnotation(context.Context, string, string) (bool, error)
	ListImageAnnotations(context.Context, string, string) ([]span.ImageAnnotation, error)
	UpsertImageAnnotation(context.Context, span.ImageAnnotation) error
	DeleteImageAnnotation(context.Context, string, string) (bool, error)

	Ping(ctx context.Context) error
}

// SessionStore is the refresh-token backend, Redis or Postgres.
type SessionStore interface {
	SaveSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg        config.Config
	store      dataStore
	sessions   SessionStore
	authpw     *authpw.Service
	guidelines *guideline.Service
	search     *search.Service
	suggest    *suggest.Service
	assets     *assets.Service
	report     *report.Service
}

// Options carries the optional collaborators; nil fields disable the
// corresponding feature rather than failing startup.
type Options struct {
	Sessions   SessionStore
	AuthPW     *authpw.Service
	Guidelines *guideline.Service
	Search     *search.Service
	Suggest    *suggest.Service
	Assets     *assets.Service
}

func New(cfg config.Config, dataStore dataStore, opts Options) *Service {
	s := &Service{
		cfg:        cfg,
		store:      dataStore,
		sessions:   opts.Sessions,
		authpw:     opts.AuthPW,
		guidelines: opts.Guidelines,
		search:     opts.Search,
		suggest:    opts.Suggest,
		assets:     opts.Assets,
	}
	s.report = report.NewService(reportStore{store: dataStore})
	return s
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// Bootstrap seeds a default admin account on an empty database so the first
// deployment can be configured through the API.
func (s *Service) Bootstrap(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 || s.authpw == nil {
		return nil
	}
	resp, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
		Email:    "admin@culturemark.local",
		Password: "change-me-now",
		Name:     "Admin",
		Role:     string(rbac.RoleAdmin),
	})
	if err != nil {
		return err
	}
	log.Printf("bootstrap: created default admin user %s", resp.UserID)
	return nil
}

// Sessions

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Email:        user.Email,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Email:     strings.ToLower(claims.Email),
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeSession(ctx, auth.HashToken(refreshToken))
}

// Users

func (s *Service) ListUsers(ctx context.Context) ([]map[string]any, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, user := range users {
		items = append(items, map[string]any{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"createdAt": user.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) UpdateUserRole(ctx context.Context, userID, role string) error {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.store.UpdateUserRole(ctx, userID, string(rbac.Normalize(role)))
}

// Projects

func (s *Service) ListProjects(ctx context.Context, session Session) ([]map[string]any, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var allowed map[string]bool
	if rbac.Normalize(session.Role) != rbac.RoleAdmin {
		allowed = map[string]bool{}
		tasks, err := s.store.ListTasksVisibleTo(ctx, session.Email)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			allowed[task.ProjectID] = true
		}
		for _, project := range projects {
			assignments, err := s.store.ListProjectAssignments(ctx, project.ID)
			if err != nil {
				return nil, err
			}
			for _, a := range assignments {
				if a.UserEmail == session.Email {
					allowed[project.ID] = true
				}
			}
		}
	}

	items := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		if allowed != nil && !allowed[project.ID] {
			continue
		}
		items = append(items, map[string]any{
			"id":          project.ID,
			"title":       project.Title,
			"description": project.Description,
			"createdAt":   project.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) CreateProject(ctx context.Context, title, description string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	project := store.Project{
		ID:          util.NewID("prj"),
		Title:       title,
		Description: description,
	}
	if err := s.store.InsertProject(ctx, project); err != nil {
		return nil, err
	}
	return map[string]any{"id": project.ID, "title": project.Title, "description": project.Description}, nil
}

func (s *Service) GetProject(ctx context.Context, session Session, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var tasks []store.Task
	if rbac.Normalize(session.Role) == rbac.RoleAdmin {
		tasks, err = s.store.ListTasksByProject(ctx, projectID)
	} else {
		var visible []store.Task
		visible, err = s.store.ListTasksVisibleTo(ctx, session.Email)
		for _, task := range visible {
			if task.ProjectID == projectID {
				tasks = append(tasks, task)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	taskItems := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		item := map[string]any{
			"id":       task.ID,
			"title":    task.Title,
			"category": task.Category,
		}
		if sub, err := s.store.GetSubmission(ctx, task.ID, session.Email); err == nil {
			item["completed"] = sub.Completed
		} else {
			item["completed"] = false
		}
		taskItems = append(taskItems, item)
	}

	payload := map[string]any{
		"id":          project.ID,
		"title":       project.Title,
		"description": project.Description,
		"guideline":   project.Guideline,
		"createdAt":   project.CreatedAt,
		"tasks":       taskItems,
	}

	if rbac.Normalize(session.Role) == rbac.RoleAdmin {
		assignments, err := s.store.ListProjectAssignments(ctx, projectID)
		if err != nil {
			return nil, err
		}
		emails := make([]string, 0, len(assignments))
		for _, a := range assignments {
			emails = append(emails, a.UserEmail)
		}
		payload["assignedUsers"] = emails
	}
	return payload, nil
}

func (s *Service) UpdateProject(ctx context.Context, projectID, title, description string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, projectID, title, description); err != nil {
		return nil, err
	}
	return map[string]any{"id": projectID, "title": title, "description": description}, nil
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	tasks, err := s.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProjectCascade(ctx, projectID); err != nil {
		return err
	}
	for _, task := range tasks {
		if s.search != nil {
			s.search.DeleteTask(task.ID)
		}
	}
	return nil
}

func (s *Service) AssignProject(ctx context.Context, projectID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return err
	}
	return s.store.AssignProject(ctx, store.ProjectAssignment{
		ID:        util.NewID("pas"),
		ProjectID: projectID,
		UserEmail: email,
	})
}

func (s *Service) UnassignProject(ctx context.Context, projectID, email string) error {
	return s.store.UnassignProject(ctx, projectID, email)
}

// Guidelines

func (s *Service) GetGuideline(ctx context.Context, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"projectId": project.ID, "guideline": project.Guideline}, nil
}

func (s *Service) SaveGuideline(ctx context.Context, session Session, projectID, html, message string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProjectGuideline(ctx, projectID, html); err != nil {
		return nil, err
	}

	payload := map[string]any{"projectId": projectID, "guideline": html}
	if s.guidelines != nil {
		version, err := s.guidelines.Save(projectID, html, session.Email, message)
		if err != nil {
			log.Printf("guideline: commit for %s failed: %v", projectID, err)
		} else {
			payload["version"] = map[string]any{
				"hash":      version.Hash,
				"message":   version.Message,
				"author":    version.Author,
				"createdAt": version.CreatedAt,
			}
		}
	}
	return payload, nil
}

func (s *Service) GuidelineHistory(ctx context.Context, projectID string, limit int) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if s.guidelines == nil {
		return map[string]any{"versions": []any{}}, nil
	}
	versions, err := s.guidelines.History(projectID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		items = append(items, map[string]any{
			"hash":      v.Hash,
			"message":   v.Message,
			"author":    v.Author,
			"createdAt": v.CreatedAt,
		})
	}
	return map[string]any{"versions": items}, nil
}

func (s *Service) GuidelineAt(ctx context.Context, projectID, hash string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if s.guidelines == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Guideline history not configured", nil)
	}
	content, err := s.guidelines.GetByHash(projectID, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Unknown guideline revision", nil)
	}
	return map[string]any{"projectId": projectID, "hash": hash, "guideline": content}, nil
}

// Tasks

func (s *Service) ListTasks(ctx context.Context, session Session, projectID string) ([]map[string]any, error) {
	var tasks []store.Task
	var err error
	if rbac.Normalize(session.Role) == rbac.RoleAdmin {
		if projectID != "" {
			tasks, err = s.store.ListTasksByProject(ctx, projectID)
		} else {
			tasks, err = s.store.ListTasks(ctx)
		}
	} else {
		tasks, err = s.store.ListTasksVisibleTo(ctx, session.Email)
	}
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		if projectID != "" && task.ProjectID != projectID {
			continue
		}
		item := map[string]any{
			"id":        task.ID,
			"projectId": task.ProjectID,
			"title":     task.Title,
			"objective": task.Objective,
			"category":  task.Category,
		}
		if sub, err := s.store.GetSubmission(ctx, task.ID, session.Email); err == nil {
			item["completed"] = sub.Completed
		} else {
			item["completed"] = false
		}
		items = append(items, item)
	}
	return items, nil
}

type TaskInput struct {
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Objective   string   `json:"objective"`
	Description string   `json:"description"`
	Text        string   `json:"text"`
	Images      []string `json:"images"`
	Audio       []string `json:"audio"`
	Category    string   `json:"category"`
	Gender      string   `json:"gender"`
}

func (s *Service) CreateTask(ctx context.Context, input TaskInput) (map[string]any, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	task := store.Task{
		ID:          util.NewID("tsk"),
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Objective:   input.Objective,
		Description: input.Description,
		Text:        input.Text,
		Images:      input.Images,
		Audio:       input.Audio,
		Category:    input.Category,
		Gender:      input.Gender,
	}
	if err := s.store.UpsertTask(ctx, task); err != nil {
		return nil, err
	}
	s.indexTask(task)
	return map[string]any{"id": task.ID}, nil
}

func (s *Service) UpdateTask(ctx context.Context, taskID string, input TaskInput) (map[string]any, error) {
	existing, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task := store.Task{
		ID:          existing.ID,
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Objective:   input.Objective,
		Description: input.Description,
		Text:        input.Text,
		Images:      input.Images,
		Audio:       input.Audio,
		Category:    input.Category,
		Gender:      input.Gender,
	}
	if err := s.store.UpsertTask(ctx, task); err != nil {
		return nil, err
	}
	s.indexTask(task)
	return map[string]any{"id": task.ID}, nil
}

func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTaskCascade(ctx, taskID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteTask(taskID)
	}
	if s.assets != nil {
		if err := s.assets.DeleteTaskAssets(ctx, taskID); err != nil {
			log.Printf("assets: cleanup for task %s: %v", taskID, err)
		}
	}
	return nil
}

func (s *Service) indexTask(task store.Task) {
	if s.search == nil {
		return
	}
	s.search.IndexTask(search.TaskRecord{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Text:        task.Text,
	})
}

// visibleTask loads a task and enforces annotator visibility: a direct task
// assignment (or the "all" sentinel) wins; with no direct assignments at all
// the task falls back to project membership. Admins see everything.
func (s *Service) visibleTask(ctx context.Context, session Session, taskID string) (store.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	if rbac.Normalize(session.Role) == rbac.RoleAdmin {
		return task, nil
	}

	assignments, err := s.store.ListTaskAssignments(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	hasDirect := false
	for _, a := range assignments {
		if a.UserEmail == session.Email || a.UserEmail == AllAnnotators {
			return task, nil
		}
		if a.UserEmail != AllAnnotators {
			hasDirect = true
		}
	}
	if !hasDirect && task.ProjectID != "" {
		projectAssignments, err := s.store.ListProjectAssignments(ctx, task.ProjectID)
		if err != nil {
			return store.Task{}, err
		}
		for _, a := range projectAssignments {
			if a.UserEmail == session.Email {
				return task, nil
			}
		}
	}
	return store.Task{}, domainError(http.StatusForbidden, "FORBIDDEN", "Task not assigned to you", nil)
}

// GetTaskDetail returns the full working payload for the annotation view:
// segmented paragraphs with media pairing, the user's annotations in both
// global and paragraph-local coordinates, and submission state.
func (s *Service) GetTaskDetail(ctx context.Context, session Session, taskID string) (map[string]any, error) {
	task, err := s.visibleTask(ctx, session, taskID)
	if err != nil {
		return nil, err
	}

	annotations, err := s.store.ListTextAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return nil, err
	}
	imageAnnotations, err := s.store.ListImageAnnotations(ctx, taskID, session.Email)
	if err != nil {
		return nil, err
	}

	paragraphs := segment.Split(task.Text)
	paragraphItems := make([]map[string]any, 0, len(paragraphs))
	regions := span.NewStore(nil, imageAnnotations)
	for i, p := range paragraphs {
		item := map[string]any{
			"index":       i,
			"text":        p.Text,
			"offset":      p.Offset,
			"end":         p.End(),
			"annotations": span.ForParagraph(annotations, p),
		}
		if image := segment.ImageFor(task.Images, i); image != "" {
			item["image"] = image
			item["imageAnnotations"] = regions.ImagesFor(i)
		}
		if audio := segment.AudioFor(task.Audio, i); audio != "" {
			item["audio"] = audio
		}
		paragraphItems = append(paragraphItems, item)
	}

	payload := map[string]any{
		"id":          task.ID,
		"projectId":   task.ProjectID,
		"title":       task.Title,
		"objective":   task.Objective,
		"description": task.Description,
		"text":        task.Text,
		"category":    task.Category,
		"gender":      task.Gender,
		"paragraphs":  paragraphItems,
		"annotations": annotations,
	}

	if sub, err := s.store.GetSubmission(ctx, taskID, session.Email); err == nil {
		payload["submission"] = submissionPayload(sub)
	}
	return payload, nil
}

// Paragraphs returns just the segmentation of a task's text.
func (s *Service) Paragraphs(ctx context.Context, session Session, taskID string) (map[string]any, error) {
	task, err := s.visibleTask(ctx, session, taskID)
	if err != nil {
		return nil, err
	}
	paragraphs := segment.Split(task.Text)
	items := make([]map[string]any, 0, len(paragraphs))
	for i, p := range paragraphs {
		item := map[string]any{
			"index":  i,
			"text":   p.Text,
			"offset": p.Offset,
			"end":    p.End(),
		}
		if image := segment.ImageFor(task.Images, i); image != "" {
			item["image"] = image
		}
		if audio := segment.AudioFor(task.Audio, i); audio != "" {
			item["audio"] = audio
		}
		items = append(items, item)
	}
	return map[string]any{"taskId": task.ID, "paragraphs": items}, nil
}

func (s *Service) ListTaskAssignments(ctx context.Context, taskID string) (map[string]any, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	assignments, err := s.store.ListTaskAssignments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(assignments))
	for _, a := range assignments {
		emails = append(emails, a.UserEmail)
	}
	return map[string]any{"taskId": taskID, "assignedUsers": emails}, nil
}

func (s *Service) AssignTask(ctx context.Context, taskID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return err
	}
	return s.store.AssignTask(ctx, store.TaskAssignment{
		ID:        util.NewID("tas"),
		TaskID:    taskID,
		UserEmail: email,
	})
}

func (s *Service) UnassignTask(ctx context.Context, taskID, email string) error {
	return s.store.UnassignTask(ctx, taskID, email)
}

func submissionPayload(sub store.Submission) map[string]any {
	return map[string]any{
		"taskId":                  sub.TaskID,
		"userEmail":               sub.UserEmail,
		"completed":               sub.Completed,
		"alignmentScore":          sub.AlignmentScore,
		"languageSimilarity":      sub.LanguageSimilarity,
		"similarityJustification": sub.SimilarityJustification,
		"updatedAt":               sub.UpdatedAt,
	}
}
