package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"getgsa/onboarding/pkg/compliance/rules"
)

// GitConfig configures a git-backed rule pack.
type GitConfig struct {
	// Repository is the clone URL.
	Repository string

	// Branch to track (default: main).
	Branch string

	// Path of the pack file inside the repository.
	Path string

	// LocalPath is where the repository is cloned.
	LocalPath string

	// Token enables HTTPS token authentication.
	Token string

	// SSHKeyPath enables SSH key authentication.
	SSHKeyPath string

	// PollInterval is how often the remote is pulled while watching
	// (default: 5m).
	PollInterval time.Duration

	// Timeout bounds clone and pull operations (default: 30s).
	Timeout time.Duration
}

// Git loads a pack file tracked in a git repository.
type Git struct {
	config GitConfig
	logger *slog.Logger

	mu      sync.Mutex
	repo    *gogit.Repository
	headSHA string
}

// NewGit validates cfg and returns a git source. Nothing is cloned until
// the first Load.
func NewGit(cfg GitConfig, logger *slog.Logger) (*Git, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("pack path cannot be empty")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "getgsa-rules")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{config: cfg, logger: logger.With("component", "rules.git")}, nil
}

// Name returns the repository and pack path.
func (g *Git) Name() string {
	return fmt.Sprintf("git:%s@%s/%s", g.config.Repository, g.config.Branch, g.config.Path)
}

func (g *Git) auth() (transport.AuthMethod, error) {
	switch {
	case g.config.Token != "":
		return &http.BasicAuth{Username: "git", Password: g.config.Token}, nil
	case g.config.SSHKeyPath != "":
		auth, err := ssh.NewPublicKeysFromFile("git", g.config.SSHKeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return auth, nil
	}
	return nil, nil
}

// sync clones the repository on first use and pulls afterwards. It reports
// whether HEAD moved.
func (g *Git) sync(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	auth, err := g.auth()
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	if g.repo == nil {
		if _, err := os.Stat(filepath.Join(g.config.LocalPath, ".git")); err == nil {
			g.repo, err = gogit.PlainOpen(g.config.LocalPath)
			if err != nil {
				return false, fmt.Errorf("failed to open existing repo: %w", err)
			}
		} else {
			if err := os.MkdirAll(g.config.LocalPath, 0o755); err != nil {
				return false, fmt.Errorf("failed to create repository directory: %w", err)
			}
			g.repo, err = gogit.PlainCloneContext(ctx, g.config.LocalPath, false, &gogit.CloneOptions{
				URL:           g.config.Repository,
				ReferenceName: plumbing.NewBranchReferenceName(g.config.Branch),
				SingleBranch:  true,
				Auth:          auth,
			})
			if err != nil {
				return false, fmt.Errorf("failed to clone repository: %w", err)
			}
		}
	} else {
		wt, err := g.repo.Worktree()
		if err != nil {
			return false, fmt.Errorf("failed to get worktree: %w", err)
		}
		err = wt.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin", Auth: auth})
		if err != nil && err != gogit.NoErrAlreadyUpToDate {
			return false, fmt.Errorf("failed to pull: %w", err)
		}
	}

	ref, err := g.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to get HEAD: %w", err)
	}
	sha := ref.Hash().String()
	changed := sha != g.headSHA
	g.headSHA = sha
	return changed, nil
}

// Head returns the commit the current pack was read from.
func (g *Git) Head() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.headSHA
}

// Load syncs the repository and reads the pack file.
func (g *Git) Load(ctx context.Context) (*rules.RulePack, error) {
	if _, err := g.sync(ctx); err != nil {
		return nil, err
	}
	f := &File{Path: filepath.Join(g.config.LocalPath, g.config.Path)}
	pack, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Rule pack read from repository", "commit", g.Head(), "version", pack.Version)
	return pack, nil
}

// Watch polls the remote and calls onChange when HEAD moves.
func (g *Git) Watch(ctx context.Context, onChange func()) error {
	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			changed, err := g.sync(ctx)
			if err != nil {
				g.logger.Error("Rule pack repository pull failed", "error", err)
				continue
			}
			if changed {
				g.logger.Info("Rule pack repository changed", "commit", g.Head())
				onChange()
			}
		}
	}
}
