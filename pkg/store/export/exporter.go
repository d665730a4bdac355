package export

import (
	"context"
	"fmt"
	"io"

	"getgsa/onboarding/pkg/store"
)

// Exporter writes requests in one output format.
type Exporter interface {
	// Export writes all records to w.
	Export(ctx context.Context, records []*store.Request, w io.Writer) error

	// ExportStream writes records as they arrive until the channel closes.
	ExportStream(ctx context.Context, records <-chan *store.Request, w io.Writer) error
}

// New returns the exporter for format ("json" or "csv").
func New(format string) (Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q (must be json or csv)", format)
	}
}

// Stream pages through the requests matching query and sends them on the
// returned channel. The error channel receives at most one error and is
// closed together with the records channel. A pageSize of zero uses
// store.DefaultLimit; query.Limit caps the total number of records.
func Stream(ctx context.Context, s store.Store, query store.Query, pageSize int) (<-chan *store.Request, <-chan error) {
	if pageSize <= 0 {
		pageSize = store.DefaultLimit
	}
	records := make(chan *store.Request, pageSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errCh)

		total := query.Limit
		offset := query.Offset
		sent := 0
		for {
			page := query
			page.Limit = pageSize
			if total > 0 && total-sent < pageSize {
				page.Limit = total - sent
			}
			page.Offset = offset

			batch, err := s.Query(ctx, &page)
			if err != nil {
				errCh <- err
				return
			}
			for _, r := range batch {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case records <- r:
					sent++
				}
			}
			if len(batch) < page.Limit || (total > 0 && sent >= total) {
				return
			}
			offset += len(batch)
		}
	}()

	return records, errCh
}
