package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/store/export"
	"getgsa/onboarding/pkg/telemetry/metrics"
)

// Pruner enforces the retention period on stored requests.
type Pruner struct {
	store   store.Store
	config  config.RetentionConfig
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner for s. collector may be nil.
func NewPruner(s store.Store, cfg config.RetentionConfig, collector *metrics.Collector) *Pruner {
	return &Pruner{
		store:   s,
		config:  cfg,
		metrics: collector,
		logger:  slog.Default().With("component", "store.retention"),
		now:     time.Now,
	}
}

// Cutoff returns the creation time before which requests are pruned, or the
// zero time when retention is disabled.
func (p *Pruner) Cutoff() time.Time {
	if p.config.Days <= 0 {
		return time.Time{}
	}
	return p.now().AddDate(0, 0, -p.config.Days)
}

// Prune deletes requests older than the retention period and returns how
// many were removed. When an archive path is configured the requests are
// exported there first and nothing is deleted if the archive fails.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.Days <= 0 {
		p.logger.Debug("retention disabled, nothing pruned")
		return 0, nil
	}
	return p.PruneBefore(ctx, p.Cutoff())
}

// PruneBefore deletes requests created before cutoff.
func (p *Pruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.logger.Debug("pruning requests", "cutoff_time", cutoff)

	if p.config.ArchivePath != "" {
		if err := p.archive(ctx, cutoff); err != nil {
			return 0, fmt.Errorf("archive before prune failed: %w", err)
		}
	}

	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed: %w", err)
	}
	p.metrics.RecordRetentionPruned(deleted)

	if deleted > 0 {
		p.logger.Info("pruned requests",
			"deleted_count", deleted,
			"retention_days", p.config.Days,
		)
	} else {
		p.logger.Debug("no requests pruned", "retention_days", p.config.Days)
	}
	return deleted, nil
}

// archive exports every request created before cutoff to a timestamped JSON
// file under the archive path.
func (p *Pruner) archive(ctx context.Context, cutoff time.Time) error {
	// EndTime is inclusive; step back so the archive matches DeleteBefore.
	end := cutoff.Add(-time.Nanosecond)
	query := store.Query{EndTime: &end, SortOrder: "asc"}

	count, err := p.store.Count(ctx, &query)
	if err != nil {
		return fmt.Errorf("failed to count requests for archiving: %w", err)
	}
	if count == 0 {
		p.logger.Debug("no requests to archive")
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("requests-%s.json", p.now().UTC().Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	records, errCh := export.Stream(ctx, p.store, query, 0)
	if err := export.NewJSONExporter(true).ExportStream(ctx, records, f); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to read requests for archiving: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive file: %w", err)
	}

	p.logger.Info("requests archived",
		"archive_file", archiveFile,
		"record_count", count,
	)
	return nil
}
