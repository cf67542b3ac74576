package git

import (
	"context"
	"fmt"
	"sync"
)

// FakeRepo is the canned state of one repository for FakeRunner
type FakeRepo struct {
	Commits   []Commit
	Changes   []FileChange
	Diffs     map[string]string // file -> unified diff
	LogErr    error
	StatusErr error
	DiffErr   map[string]error
}

// FakeRunner is an in-memory Runner keyed by repository path. It records
// the calls it receives so tests can assert on query arguments.
type FakeRunner struct {
	Repos map[string]FakeRepo

	mu       sync.Mutex
	LogCalls []LogOptions
	Diffed   []string
}

// NewFakeRunner creates an empty fake
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Repos: make(map[string]FakeRepo)}
}

// Log returns the canned commits for repoPath
func (f *FakeRunner) Log(ctx context.Context, repoPath string, opts LogOptions) ([]Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LogCalls = append(f.LogCalls, opts)
	f.mu.Unlock()

	repo, ok := f.Repos[repoPath]
	if !ok {
		return nil, fmt.Errorf("fake: unknown repository %s", repoPath)
	}
	if repo.LogErr != nil {
		return nil, repo.LogErr
	}
	return append([]Commit(nil), repo.Commits...), nil
}

// Status returns the canned changes for repoPath
func (f *FakeRunner) Status(ctx context.Context, repoPath string) ([]FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, ok := f.Repos[repoPath]
	if !ok {
		return nil, fmt.Errorf("fake: unknown repository %s", repoPath)
	}
	if repo.StatusErr != nil {
		return nil, repo.StatusErr
	}
	return append([]FileChange(nil), repo.Changes...), nil
}

// Diff returns the canned diff for file
func (f *FakeRunner) Diff(ctx context.Context, repoPath, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.Diffed = append(f.Diffed, repoPath+":"+file)
	f.mu.Unlock()

	repo := f.Repos[repoPath]
	if err := repo.DiffErr[file]; err != nil {
		return "", err
	}
	return repo.Diffs[file], nil
}
