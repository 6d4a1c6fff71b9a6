// Package guideline keeps each project's annotation guideline in a small git
// repository, one per project, so admins can review and restore earlier
// revisions of the instructions annotators work from.
package guideline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"culturemark/api/internal/store"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const guidelineFile = "guideline.html"

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Save commits a new revision of the project's guideline, initializing the
// repository on first save.
func (s *Service) Save(projectID, html, author, message string) (store.GuidelineVersion, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openOrInit(projectID)
	if err != nil {
		return store.GuidelineVersion{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return store.GuidelineVersion{}, fmt.Errorf("open worktree: %w", err)
	}

	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, guidelineFile), []byte(html), 0o644); err != nil {
		return store.GuidelineVersion{}, fmt.Errorf("write guideline: %w", err)
	}
	if _, err := worktree.Add(guidelineFile); err != nil {
		return store.GuidelineVersion{}, fmt.Errorf("git add guideline: %w", err)
	}

	if message == "" {
		message = "Update guideline"
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: author,
			When:  time.Now(),
		},
	})
	if err != nil {
		return store.GuidelineVersion{}, fmt.Errorf("commit guideline: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.GuidelineVersion{}, fmt.Errorf("read commit object: %w", err)
	}
	return toVersion(commitObj), nil
}

// History lists the guideline revisions, newest first.
func (s *Service) History(projectID string, limit int) ([]store.GuidelineVersion, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(projectID))
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return []store.GuidelineVersion{}, nil
		}
		return nil, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return []store.GuidelineVersion{}, nil
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]store.GuidelineVersion, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toVersion(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// GetByHash returns the guideline content at a specific revision.
func (s *Service) GetByHash(projectID, hash string) (string, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(projectID))
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return "", err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", hash, err)
	}

	file, err := commitObj.File(guidelineFile)
	if err != nil {
		return "", fmt.Errorf("load guideline from commit: %w", err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read guideline contents: %w", err)
	}
	return content, nil
}

func (s *Service) openOrInit(projectID string) (*git.Repository, error) {
	path := s.repoPath(projectID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(projectID string) string {
	return filepath.Join(s.baseDir, projectID)
}

func (s *Service) projectLock(projectID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[projectID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[projectID] = lock
	return lock
}

func toVersion(commitObj *object.Commit) store.GuidelineVersion {
	return store.GuidelineVersion{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
