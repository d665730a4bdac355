package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"getgsa/onboarding/pkg/compliance/rules"
)

func writePack(t *testing.T, path, version string) {
	t.Helper()
	content := "version: " + version + "\nmin_project_value: 25000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pack: %v", err)
	}
}

func TestBuiltin(t *testing.T) {
	p, err := Builtin{}.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != rules.DefaultPackVersion {
		t.Errorf("Version = %q", p.Version)
	}
}

func TestFileLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writePack(t, path, "1.2.3")

	p, err := (&File{Path: path}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Version != "1.2.3" {
		t.Errorf("Version = %q", p.Version)
	}

	if _, err := (&File{Path: filepath.Join(dir, "missing.yaml")}).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*rules.RulePack, error) {
	return nil, errors.New("boom")
}
func (failingSource) Name() string { return "failing" }

func TestReloaderKeepsPackOnFailure(t *testing.T) {
	reg := rules.NewRegistry(nil)
	var gotErr error
	r := NewReloader(failingSource{}, reg, nil)
	r.OnReload = func(_ string, err error) { gotErr = err }

	if err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if gotErr == nil {
		t.Error("OnReload was not called with the error")
	}
	if reg.Current().Version != rules.DefaultPackVersion {
		t.Error("registry lost its pack")
	}
}

func TestFileWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writePack(t, path, "1.0.0")

	reg := rules.NewRegistry(nil)
	r := NewReloader(&File{Path: path}, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	r.OnReload = func(string, error) { reloads.Add(1) }

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitFor(t, func() bool { return reloads.Load() >= 1 })
	// let the watcher register the directory
	time.Sleep(200 * time.Millisecond)
	writePack(t, path, "1.1.0")
	waitFor(t, func() bool { return reg.Current().Version == "1.1.0" })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestNewGitValidation(t *testing.T) {
	if _, err := NewGit(GitConfig{Path: "rules.yaml"}, nil); err == nil {
		t.Error("expected error for empty repository")
	}
	if _, err := NewGit(GitConfig{Repository: "https://example.com/rules.git"}, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func commitPack(t *testing.T, repo *gogit.Repository, dir, version string) {
	t.Helper()
	writePack(t, filepath.Join(dir, "rules.yaml"), version)
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("rules.yaml"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("pack "+version, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGitLoadAndPull(t *testing.T) {
	origin := t.TempDir()
	repo, err := gogit.PlainInit(origin, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitPack(t, repo, origin, "1.0.0")

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}

	g, err := NewGit(GitConfig{
		Repository: origin,
		Branch:     head.Name().Short(),
		Path:       "rules.yaml",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	p, err := g.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Version != "1.0.0" {
		t.Errorf("Version = %q", p.Version)
	}
	first := g.Head()

	commitPack(t, repo, origin, "1.1.0")
	changed, err := g.sync(context.Background())
	if err != nil {
		t.Fatalf("sync() error: %v", err)
	}
	if !changed || g.Head() == first {
		t.Error("pull did not advance HEAD")
	}
	p, err = g.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != "1.1.0" {
		t.Errorf("Version after pull = %q", p.Version)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
