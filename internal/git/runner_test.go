package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a repository with one commit in a temp dir. Tests
// using it skip when git is not installed.
func initTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	gitCmd(t, dir, "init", "--quiet")
	gitCmd(t, dir, "config", "user.email", "test@example.com")
	gitCmd(t, dir, "config", "user.name", "Test User")
	gitCmd(t, dir, "config", "commit.gpgsign", "false")

	writeLines(t, filepath.Join(dir, "main.txt"), 10)
	gitCmd(t, dir, "add", "main.txt")
	gitCmd(t, dir, "commit", "--quiet", "-m", "Initial commit")

	return dir
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeLines(t *testing.T, path string, n int) {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString("line\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
}

func TestExecRunner_LogStatusDiff(t *testing.T) {
	dir := initTestRepo(t)
	r := NewExecRunner(10 * time.Second)
	ctx := context.Background()

	commits, err := r.Log(ctx, dir, LogOptions{Since: time.Now().Add(-time.Hour).Format(time.RFC3339)})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Initial commit", commits[0].Subject)

	commits, err = r.Log(ctx, dir, LogOptions{Author: "nobody-with-this-name"})
	require.NoError(t, err)
	assert.Empty(t, commits)

	// Append three lines at the end: old (10,0) new (11,3)
	f, err := os.OpenFile(filepath.Join(dir, "main.txt"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("a\nb\nc\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x\n"), 0644))
	newDir := filepath.Join(dir, "newdir")
	require.NoError(t, os.MkdirAll(newDir, 0755))
	for _, name := range []string{"n1", "n2", "n3"} {
		require.NoError(t, os.WriteFile(filepath.Join(newDir, name), []byte("x\n"), 0644))
	}

	changes, err := r.Status(ctx, dir)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, StatusModified, changes[0].Status)
	assert.Equal(t, StatusUntracked, changes[1].Status)
	assert.Equal(t, "newdir/", changes[1].Path)
	assert.Equal(t, StatusUntracked, changes[2].Status)
	assert.Equal(t, "untracked.txt", changes[2].Path)

	diff, err := r.Diff(ctx, dir, "main.txt")
	require.NoError(t, err)
	hunks := ParseHunks(diff)
	require.Len(t, hunks, 1)
	assert.Equal(t, "added 11-13", hunks[0].String())
}

func TestExecRunner_FailsOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	_, err := NewExecRunner(5*time.Second).Status(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))
	assert.False(t, IsRepo(filepath.Join(dir, "missing")))

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	assert.True(t, IsRepo(dir))

	worktree := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: /elsewhere\n"), 0644))
	assert.True(t, IsRepo(worktree))
}

func TestExecRunner_TimeoutKillsChildProcesses(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := &ExecRunner{Binary: "sh", Timeout: 200 * time.Millisecond}

	start := time.Now()
	_, err := r.run(context.Background(), t.TempDir(), "-c", "sleep 4; echo late")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, elapsed, 3*time.Second)
}
