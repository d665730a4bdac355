package source

import (
	"fmt"
	"log/slog"

	"getgsa/onboarding/pkg/config"
)

// New builds the source selected by cfg. When cfg.Watch is false the
// returned source loads once and is never watched.
func New(cfg config.RulesConfig, logger *slog.Logger) (Source, error) {
	var src Source
	switch cfg.Source {
	case "", "builtin":
		return Builtin{}, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("rules.file_path is required for the file source")
		}
		src = &File{Path: cfg.FilePath}
	case "git":
		g, err := NewGit(GitConfig{
			Repository:   cfg.Git.Repository,
			Branch:       cfg.Git.Branch,
			Path:         cfg.Git.Path,
			LocalPath:    cfg.Git.LocalPath,
			Token:        cfg.Git.Token,
			SSHKeyPath:   cfg.Git.SSHKeyPath,
			PollInterval: cfg.Git.PollInterval,
			Timeout:      cfg.Git.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("invalid git rules source: %w", err)
		}
		src = g
	default:
		return nil, fmt.Errorf("unknown rules source: %q", cfg.Source)
	}

	if !cfg.Watch {
		return once{src}, nil
	}
	return src, nil
}

// once hides the Watcher implementation of the wrapped source.
type once struct {
	Source
}
