package guideline

import (
	"testing"
)

func TestSaveHistoryAndRestore(t *testing.T) {
	svc := New(t.TempDir())

	first, err := svc.Save("p1", "<p>Version one</p>", "admin@example.com", "Initial guideline")
	if err != nil {
		t.Fatal(err)
	}
	if first.Hash == "" {
		t.Fatal("expected a commit hash")
	}

	second, err := svc.Save("p1", "<p>Version two</p>", "admin@example.com", "Clarify overlap rules")
	if err != nil {
		t.Fatal(err)
	}

	history, err := svc.History("p1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(history))
	}
	if history[0].Hash != second.Hash {
		t.Errorf("newest revision first: got %s, want %s", history[0].Hash, second.Hash)
	}

	content, err := svc.GetByHash("p1", first.Hash)
	if err != nil {
		t.Fatal(err)
	}
	if content != "<p>Version one</p>" {
		t.Errorf("unexpected restored content: %q", content)
	}
}

func TestHistoryEmptyWithoutRepo(t *testing.T) {
	svc := New(t.TempDir())
	history, err := svc.History("ghost", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}
}

func TestProjectReposAreIsolated(t *testing.T) {
	svc := New(t.TempDir())

	if _, err := svc.Save("p1", "one", "a@example.com", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save("p2", "two", "a@example.com", ""); err != nil {
		t.Fatal(err)
	}

	h1, err := svc.History("p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := svc.History("p2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(h1) != 1 || len(h2) != 1 {
		t.Errorf("expected one revision each, got %d and %d", len(h1), len(h2))
	}
}
