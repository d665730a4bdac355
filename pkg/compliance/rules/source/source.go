// Package source loads rule packs from the built-in defaults, a YAML file on
// disk or a YAML file tracked in a git repository, and keeps a rules.Registry
// up to date when the underlying pack changes.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"getgsa/onboarding/pkg/compliance/rules"
)

// Source produces rule packs.
type Source interface {
	// Load returns the current pack.
	Load(ctx context.Context) (*rules.RulePack, error)

	// Name identifies the source in logs.
	Name() string
}

// Watcher is implemented by sources that can notify about pack changes.
// Watch blocks until ctx is cancelled, calling onChange after every change.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Builtin serves the built-in pack.
type Builtin struct{}

// Load returns rules.DefaultPack.
func (Builtin) Load(context.Context) (*rules.RulePack, error) {
	return rules.DefaultPack(), nil
}

// Name returns "builtin".
func (Builtin) Name() string { return "builtin" }

// File loads a YAML pack from disk.
type File struct {
	Path string
}

// Load reads and validates the pack file.
func (f *File) Load(context.Context) (*rules.RulePack, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule pack %s: %w", f.Path, err)
	}
	defer fh.Close()

	pack, err := rules.LoadPack(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule pack %s: %w", f.Path, err)
	}
	return pack, nil
}

// Name returns the file path.
func (f *File) Name() string { return "file:" + f.Path }

// Watch reloads on writes to the pack file.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	w, err := NewFileWatcher(&FileWatcherConfig{Path: f.Path}, slog.Default())
	if err != nil {
		return err
	}
	defer w.Stop()
	return w.Watch(ctx, onChange)
}

// Reloader keeps a registry in sync with a source.
type Reloader struct {
	source   Source
	registry *rules.Registry
	logger   *slog.Logger

	// OnReload is called after every reload attempt with the error, if any.
	OnReload func(version string, err error)
}

// NewReloader returns a reloader feeding registry from src.
func NewReloader(src Source, registry *rules.Registry, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		source:   src,
		registry: registry,
		logger:   logger.With("component", "rules.source", "source", src.Name()),
	}
}

// Reload loads the pack from the source and activates it. On failure the
// registry keeps serving the previous pack.
func (r *Reloader) Reload(ctx context.Context) error {
	pack, err := r.source.Load(ctx)
	if err == nil {
		_, err = r.registry.Swap(pack)
	}
	if err != nil {
		r.logger.Error("Rule pack reload failed, keeping current pack",
			"current_version", r.registry.Current().Version,
			"error", err,
		)
		if r.OnReload != nil {
			r.OnReload(r.registry.Current().Version, err)
		}
		return err
	}

	r.logger.Info("Rule pack loaded",
		"version", pack.Version,
		"rules", len(pack.Rules),
	)
	if r.OnReload != nil {
		r.OnReload(pack.Version, nil)
	}
	return nil
}

// Run performs an initial reload, then follows source changes until ctx is
// cancelled. Sources that cannot be watched return after the first load.
func (r *Reloader) Run(ctx context.Context) error {
	if err := r.Reload(ctx); err != nil {
		return err
	}
	return r.Watch(ctx)
}

// Watch follows source changes until ctx is cancelled without loading
// first. It returns nil at once for sources that cannot be watched.
func (r *Reloader) Watch(ctx context.Context) error {
	w, ok := r.source.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func() {
		_ = r.Reload(ctx)
	})
}

// Watchable reports whether the source can notify about changes.
func (r *Reloader) Watchable() bool {
	_, ok := r.source.(Watcher)
	return ok
}

// SourceName returns the name of the underlying source.
func (r *Reloader) SourceName() string {
	return r.source.Name()
}
