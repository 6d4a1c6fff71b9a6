package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"culturemark/api/internal/config"
	"culturemark/api/internal/span"
	"culturemark/api/internal/store"
)

type fakeStore struct {
	users              map[string]store.User
	projects           map[string]store.Project
	tasks              map[string]store.Task
	taskAssignments    map[string][]store.TaskAssignment
	projectAssignments map[string][]store.ProjectAssignment
	submissions        map[string]store.Submission
	textAnnotations    map[string][]span.TextAnnotation
	imageAnnotations   map[string][]span.ImageAnnotation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:              map[string]store.User{},
		projects:           map[string]store.Project{},
		tasks:              map[string]store.Task{},
		taskAssignments:    map[string][]store.TaskAssignment{},
		projectAssignments: map[string][]store.ProjectAssignment{},
		submissions:        map[string]store.Submission{},
		textAnnotations:    map[string][]span.TextAnnotation{},
		imageAnnotations:   map[string][]span.ImageAnnotation{},
	}
}

func pairKey(taskID, email string) string {
	return taskID + "|" + strings.ToLower(email)
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]store.User, error) {
	out := make([]store.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) UpdateUserRole(_ context.Context, id, role string) error {
	user, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	f.users[id] = user
	return nil
}

func (f *fakeStore) ListProjects(context.Context) ([]store.Project, error) {
	out := make([]store.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetProject(_ context.Context, id string) (store.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return store.Project{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) InsertProject(_ context.Context, p store.Project) error {
	if existing, ok := f.projects[p.ID]; ok {
		if p.Title == "" {
			p.Title = existing.Title
		}
		if p.Description == "" {
			p.Description = existing.Description
		}
		if p.Guideline == "" {
			p.Guideline = existing.Guideline
		}
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProject(_ context.Context, id, title, description string) error {
	p, ok := f.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Title = title
	p.Description = description
	f.projects[id] = p
	return nil
}

func (f *fakeStore) UpdateProjectGuideline(_ context.Context, id, html string) error {
	p, ok := f.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Guideline = html
	f.projects[id] = p
	return nil
}

func (f *fakeStore) DeleteProjectCascade(_ context.Context, id string) error {
	delete(f.projects, id)
	delete(f.projectAssignments, id)
	for taskID, task := range f.tasks {
		if task.ProjectID == id {
			f.purgeTaskRecords(taskID)
			delete(f.tasks, taskID)
		}
	}
	return nil
}

// purgeTaskRecords mirrors the SQL cascade: assignments, annotations, and
// submissions keyed by the task go with it.
func (f *fakeStore) purgeTaskRecords(taskID string) {
	delete(f.taskAssignments, taskID)
	prefix := taskID + "|"
	for key := range f.submissions {
		if strings.HasPrefix(key, prefix) {
			delete(f.submissions, key)
		}
	}
	for key := range f.textAnnotations {
		if strings.HasPrefix(key, prefix) {
			delete(f.textAnnotations, key)
		}
	}
	for key := range f.imageAnnotations {
		if strings.HasPrefix(key, prefix) {
			delete(f.imageAnnotations, key)
		}
	}
}

func (f *fakeStore) ListProjectAssignments(_ context.Context, projectID string) ([]store.ProjectAssignment, error) {
	return f.projectAssignments[projectID], nil
}

func (f *fakeStore) AssignProject(_ context.Context, a store.ProjectAssignment) error {
	f.projectAssignments[a.ProjectID] = append(f.projectAssignments[a.ProjectID], a)
	return nil
}

func (f *fakeStore) UnassignProject(_ context.Context, projectID, email string) error {
	kept := f.projectAssignments[projectID][:0]
	for _, a := range f.projectAssignments[projectID] {
		if a.UserEmail != email {
			kept = append(kept, a)
		}
	}
	f.projectAssignments[projectID] = kept
	return nil
}

func (f *fakeStore) ListTasks(context.Context) ([]store.Task, error) {
	out := make([]store.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListTasksByProject(_ context.Context, projectID string) ([]store.Task, error) {
	var out []store.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListTasksVisibleTo(_ context.Context, email string) ([]store.Task, error) {
	var out []store.Task
	for _, t := range f.tasks {
		direct := false
		hasDirect := false
		for _, a := range f.taskAssignments[t.ID] {
			if a.UserEmail == email || a.UserEmail == AllAnnotators {
				direct = true
			}
			if a.UserEmail != AllAnnotators {
				hasDirect = true
			}
		}
		if direct {
			out = append(out, t)
			continue
		}
		if hasDirect {
			continue
		}
		for _, a := range f.projectAssignments[t.ProjectID] {
			if a.UserEmail == email {
				out = append(out, t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetTask(_ context.Context, id string) (store.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return store.Task{}, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeStore) UpsertTask(_ context.Context, t store.Task) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTaskCascade(_ context.Context, id string) error {
	f.purgeTaskRecords(id)
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) ListTaskAssignments(_ context.Context, taskID string) ([]store.TaskAssignment, error) {
	return f.taskAssignments[taskID], nil
}

func (f *fakeStore) AssignTask(_ context.Context, a store.TaskAssignment) error {
	f.taskAssignments[a.TaskID] = append(f.taskAssignments[a.TaskID], a)
	return nil
}

func (f *fakeStore) UnassignTask(_ context.Context, taskID, email string) error {
	kept := f.taskAssignments[taskID][:0]
	for _, a := range f.taskAssignments[taskID] {
		if a.UserEmail != email {
			kept = append(kept, a)
		}
	}
	f.taskAssignments[taskID] = kept
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, taskID, email string) (store.Submission, error) {
	sub, ok := f.submissions[pairKey(taskID, email)]
	if !ok {
		return store.Submission{}, sql.ErrNoRows
	}
	return sub, nil
}

func (f *fakeStore) UpsertSubmission(_ context.Context, sub store.Submission) error {
	f.submissions[pairKey(sub.TaskID, sub.UserEmail)] = sub
	return nil
}

func (f *fakeStore) DeleteSubmission(_ context.Context, taskID, email string) error {
	delete(f.submissions, pairKey(taskID, email))
	return nil
}

func (f *fakeStore) ListCompletedTaskIDs(_ context.Context, projectID, email string) ([]string, error) {
	var out []string
	for _, sub := range f.submissions {
		if !sub.Completed || strings.ToLower(sub.UserEmail) != strings.ToLower(email) {
			continue
		}
		if task, ok := f.tasks[sub.TaskID]; ok && task.ProjectID == projectID {
			out = append(out, sub.TaskID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) ListSubmissionEmails(_ context.Context, projectID string) ([]string, error) {
	seen := map[string]bool{}
	record := func(taskID, email string) {
		if task, ok := f.tasks[taskID]; ok && task.ProjectID == projectID {
			seen[strings.ToLower(email)] = true
		}
	}
	for _, sub := range f.submissions {
		record(sub.TaskID, sub.UserEmail)
	}
	for _, list := range f.textAnnotations {
		for _, a := range list {
			record(a.TaskID, a.UserEmail)
		}
	}
	for _, list := range f.imageAnnotations {
		for _, a := range list {
			record(a.TaskID, a.UserEmail)
		}
	}
	out := make([]string, 0, len(seen))
	for email := range seen {
		out = append(out, email)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) ListTextAnnotations(_ context.Context, taskID, email string) ([]span.TextAnnotation, error) {
	out := append([]span.TextAnnotation(nil), f.textAnnotations[pairKey(taskID, email)]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (f *fakeStore) UpsertTextAnnotation(_ context.Context, a span.TextAnnotation) error {
	key := pairKey(a.TaskID, a.UserEmail)
	for i, existing := range f.textAnnotations[key] {
		if existing.ID == a.ID {
			f.textAnnotations[key][i] = a
			return nil
		}
	}
	f.textAnnotations[key] = append(f.textAnnotations[key], a)
	return nil
}

func (f *fakeStore) DeleteTextAnnotation(_ context.Context, id, email string) (bool, error) {
	for key, list := range f.textAnnotations {
		if !strings.HasSuffix(key, "|"+strings.ToLower(email)) {
			continue
		}
		for i, a := range list {
			if a.ID == id {
				f.textAnnotations[key] = append(list[:i], list[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStore) ListImageAnnotations(_ context.Context, taskID, email string) ([]span.ImageAnnotation, error) {
	return append([]span.ImageAnnotation(nil), f.imageAnnotations[pairKey(taskID, email)]...), nil
}

func (f *fakeStore) UpsertImageAnnotation(_ context.Context, a span.ImageAnnotation) error {
	key := pairKey(a.TaskID, a.UserEmail)
	for i, existing := range f.imageAnnotations[key] {
		if existing.ID == a.ID {
			f.imageAnnotations[key][i] = a
			return nil
		}
	}
	f.imageAnnotations[key] = append(f.imageAnnotations[key], a)
	return nil
}

func (f *fakeStore) DeleteImageAnnotation(_ context.Context, id, email string) (bool, error) {
	for key, list := range f.imageAnnotations {
		if !strings.HasSuffix(key, "|"+strings.ToLower(email)) {
			continue
		}
		for i, a := range list {
			if a.ID == id {
				f.imageAnnotations[key] = append(list[:i], list[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSessions struct {
	saved map[string]store.User
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[string]store.User{}}
}

func (f *fakeSessions) SaveSession(_ context.Context, tokenHash string, user store.User, _ time.Time) error {
	f.saved[tokenHash] = user
	return nil
}

func (f *fakeSessions) LookupSession(_ context.Context, tokenHash string) (store.User, error) {
	user, ok := f.saved[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeSessions) RevokeSession(_ context.Context, tokenHash string) error {
	delete(f.saved, tokenHash)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func newTestService(fs *fakeStore, sessions SessionStore) *Service {
	return New(testConfig(), fs, Options{Sessions: sessions})
}

const taskText = "First paragraph about pan de muerto.\n\nSecond paragraph about the ofrenda."

func seedTask(fs *fakeStore) {
	fs.projects["prj_1"] = store.Project{ID: "prj_1", Title: "Folk traditions"}
	fs.tasks["tsk_1"] = store.Task{
		ID:        "tsk_1",
		ProjectID: "prj_1",
		Title:     "Day of the Dead",
		Text:      taskText,
	}
	fs.taskAssignments["tsk_1"] = []store.TaskAssignment{
		{ID: "tas_1", TaskID: "tsk_1", UserEmail: "ana@example.com"},
	}
}

func annotatorSession(email string) Session {
	return Session{UserID: "usr_1", Email: email, Role: "annotator"}
}

func cultureInput(start, end int) AnnotationInput {
	return AnnotationInput{
		Start:   start,
		End:     end,
		Subtype: span.SubtypeCulture,
		Culture: &span.CultureJudgment{CultureProxy: "food"},
	}
}

func TestCreateAnnotationPersists(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)
	session := annotatorSession("ana@example.com")

	got, err := svc.CreateAnnotation(context.Background(), session, "tsk_1", cultureInput(22, 35))
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "pan de muerto" {
		t.Errorf("snapshot text = %q", got.Text)
	}
	if got.Type != span.TypeManual {
		t.Errorf("type = %q", got.Type)
	}
	stored, _ := fs.ListTextAnnotations(context.Background(), "tsk_1", "ana@example.com")
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored annotation, got %d", len(stored))
	}
}

func TestCreateAnnotationOverlapConflict(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)
	session := annotatorSession("ana@example.com")

	if _, err := svc.CreateAnnotation(context.Background(), session, "tsk_1", cultureInput(22, 35)); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateAnnotation(context.Background(), session, "tsk_1", cultureInput(25, 40))
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "SPAN_OVERLAP" || domainErr.Status != 409 {
		t.Fatalf("expected 409 SPAN_OVERLAP, got %v", err)
	}

	// Touching boundaries are allowed.
	if _, err := svc.CreateAnnotation(context.Background(), session, "tsk_1", cultureInput(35, 36)); err != nil {
		t.Errorf("adjacent span should pass: %v", err)
	}
}

func TestCreateAnnotationParagraphLocal(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)
	session := annotatorSession("ana@example.com")

	idx := 1
	input := cultureInput(27, 34)
	input.ParagraphIndex = &idx
	got, err := svc.CreateAnnotation(context.Background(), session, "tsk_1", input)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "ofrenda" {
		t.Errorf("globalized snapshot = %q, want %q", got.Text, "ofrenda")
	}
	if taskText[got.Start:got.End] != "ofrenda" {
		t.Errorf("global offsets [%d, %d) do not recover the phrase", got.Start, got.End)
	}
}

func TestVisibleTaskAssignmentRules(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	fs.projectAssignments["prj_1"] = []store.ProjectAssignment{
		{ID: "pas_1", ProjectID: "prj_1", UserEmail: "bob@example.com"},
	}
	svc := newTestService(fs, nil)

	// Direct assignment wins.
	if _, err := svc.visibleTask(context.Background(), annotatorSession("ana@example.com"), "tsk_1"); err != nil {
		t.Errorf("directly assigned annotator should see the task: %v", err)
	}

	// Another direct assignment exists, so project membership does not help.
	_, err := svc.visibleTask(context.Background(), annotatorSession("bob@example.com"), "tsk_1")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 403 {
		t.Errorf("project member should be blocked while direct assignments exist, got %v", err)
	}

	// Without direct assignments the task falls back to project membership.
	fs.taskAssignments["tsk_1"] = nil
	if _, err := svc.visibleTask(context.Background(), annotatorSession("bob@example.com"), "tsk_1"); err != nil {
		t.Errorf("project member should see unassigned task: %v", err)
	}

	// The "all" sentinel opens the task to everyone.
	fs.taskAssignments["tsk_1"] = []store.TaskAssignment{
		{ID: "tas_2", TaskID: "tsk_1", UserEmail: AllAnnotators},
	}
	if _, err := svc.visibleTask(context.Background(), annotatorSession("carol@example.com"), "tsk_1"); err != nil {
		t.Errorf("sentinel should open the task to every annotator: %v", err)
	}

	// Admins always see everything.
	admin := Session{Email: "root@example.com", Role: "admin"}
	if _, err := svc.visibleTask(context.Background(), admin, "tsk_1"); err != nil {
		t.Errorf("admin should see the task: %v", err)
	}
}

func TestSessionIssueRefreshRevoke(t *testing.T) {
	fs := newFakeStore()
	fs.users["usr_1"] = store.User{ID: "usr_1", Name: "Ana", Email: "ana@example.com", Role: "annotator"}
	sessions := newFakeSessions()
	svc := newTestService(fs, sessions)

	issued, err := svc.CreateSession(context.Background(), "usr_1")
	if err != nil {
		t.Fatal(err)
	}
	if issued.Token == "" || issued.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if len(sessions.saved) != 1 {
		t.Fatalf("expected 1 saved refresh session, got %d", len(sessions.saved))
	}

	parsed, err := svc.SessionFromToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Email != "ana@example.com" || parsed.Role != "annotator" {
		t.Errorf("claims round trip lost fields: %+v", parsed)
	}

	refreshed, err := svc.Refresh(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.RefreshToken == issued.RefreshToken {
		t.Error("refresh must rotate the refresh token")
	}
	if _, err := svc.Refresh(context.Background(), issued.RefreshToken); err == nil {
		t.Error("old refresh token should be revoked after use")
	}

	if err := svc.Logout(context.Background(), refreshed.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(context.Background(), refreshed.RefreshToken); err == nil {
		t.Error("logout should revoke the refresh token")
	}
}

func TestSuggestionsUnavailableWithoutProvider(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)

	_, err := svc.Suggestions(context.Background(), annotatorSession("ana@example.com"), "tsk_1")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "SUGGESTIONS_UNAVAILABLE" {
		t.Fatalf("expected SUGGESTIONS_UNAVAILABLE, got %v", err)
	}
}

func TestSubmitAndReopen(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)
	session := annotatorSession("ana@example.com")

	payload, err := svc.Submit(context.Background(), session, "tsk_1", SubmissionInput{
		AlignmentScore:     4,
		LanguageSimilarity: "high",
	})
	if err != nil {
		t.Fatal(err)
	}
	if payload["completed"] != true {
		t.Error("submit should mark the task completed")
	}

	got, err := svc.Submission(context.Background(), session, "tsk_1")
	if err != nil {
		t.Fatal(err)
	}
	if got["alignmentScore"] != 4 {
		t.Errorf("alignmentScore = %v", got["alignmentScore"])
	}

	if err := svc.Reopen(context.Background(), session, "tsk_1"); err != nil {
		t.Fatal(err)
	}
	got, err = svc.Submission(context.Background(), session, "tsk_1")
	if err != nil {
		t.Fatal(err)
	}
	if got["completed"] != false {
		t.Error("reopen should clear completion")
	}
}

func TestCreateImageAnnotationRejectsMismatchedPayload(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	svc := newTestService(fs, nil)

	_, err := svc.CreateImageAnnotation(context.Background(), annotatorSession("ana@example.com"), "tsk_1", ImageAnnotationInput{
		ParagraphIndex: 0,
		X:              10, Y: 10, Width: 20, Height: 20,
		Subtype: span.SubtypeCulture,
		Issue:   &span.IssueJudgment{IssueCategory: "stereotype"},
	})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR for culture subtype with issue payload, got %v", err)
	}
	stored, _ := fs.ListImageAnnotations(context.Background(), "tsk_1", "ana@example.com")
	if len(stored) != 0 {
		t.Errorf("rejected annotation must not be persisted, got %d", len(stored))
	}
}

func TestDeleteProjectCascade(t *testing.T) {
	fs := newFakeStore()
	seedTask(fs)
	fs.projectAssignments["prj_1"] = []store.ProjectAssignment{
		{ID: "pas_1", ProjectID: "prj_1", UserEmail: "carol@example.com"},
	}
	fs.projects["prj_2"] = store.Project{ID: "prj_2", Title: "Festivals"}
	fs.tasks["tsk_2"] = store.Task{ID: "tsk_2", ProjectID: "prj_2", Title: "Carnival", Text: taskText}
	fs.taskAssignments["tsk_2"] = []store.TaskAssignment{
		{ID: "tas_9", TaskID: "tsk_2", UserEmail: "bob@example.com"},
	}
	svc := newTestService(fs, nil)
	ctx := context.Background()
	ana := annotatorSession("ana@example.com")
	bob := annotatorSession("bob@example.com")

	if _, err := svc.CreateAnnotation(ctx, ana, "tsk_1", cultureInput(22, 35)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateImageAnnotation(ctx, ana, "tsk_1", ImageAnnotationInput{
		ParagraphIndex: 0,
		Shape:          span.ShapeRect,
		X:              10, Y: 10, Width: 20, Height: 20,
		Subtype: span.SubtypeCulture,
		Culture: &span.CultureJudgment{CultureProxy: "object"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, ana, "tsk_1", SubmissionInput{AlignmentScore: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateAnnotation(ctx, bob, "tsk_2", cultureInput(22, 35)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, bob, "tsk_2", SubmissionInput{AlignmentScore: 5}); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteProject(ctx, "prj_1"); err != nil {
		t.Fatal(err)
	}

	if _, err := fs.GetTask(ctx, "tsk_1"); !errors.Is(err, sql.ErrNoRows) {
		t.Error("deleted project's task should be gone")
	}
	if annotations, _ := fs.ListTextAnnotations(ctx, "tsk_1", "ana@example.com"); len(annotations) != 0 {
		t.Errorf("text annotations survived the cascade: %d", len(annotations))
	}
	if images, _ := fs.ListImageAnnotations(ctx, "tsk_1", "ana@example.com"); len(images) != 0 {
		t.Errorf("image annotations survived the cascade: %d", len(images))
	}
	if _, err := fs.GetSubmission(ctx, "tsk_1", "ana@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Error("submission survived the cascade")
	}
	if assignments, _ := fs.ListTaskAssignments(ctx, "tsk_1"); len(assignments) != 0 {
		t.Errorf("task assignments survived the cascade: %d", len(assignments))
	}
	if assignments, _ := fs.ListProjectAssignments(ctx, "prj_1"); len(assignments) != 0 {
		t.Errorf("project assignments survived the cascade: %d", len(assignments))
	}

	// The other project's records are untouched.
	if _, err := fs.GetTask(ctx, "tsk_2"); err != nil {
		t.Error("unrelated task should survive")
	}
	if annotations, _ := fs.ListTextAnnotations(ctx, "tsk_2", "bob@example.com"); len(annotations) != 1 {
		t.Errorf("unrelated annotations lost: %d", len(annotations))
	}
	if sub, err := fs.GetSubmission(ctx, "tsk_2", "bob@example.com"); err != nil || !sub.Completed {
		t.Errorf("unrelated submission lost: %+v err=%v", sub, err)
	}
	if assignments, _ := fs.ListTaskAssignments(ctx, "tsk_2"); len(assignments) != 1 {
		t.Errorf("unrelated task assignments lost: %d", len(assignments))
	}
}

