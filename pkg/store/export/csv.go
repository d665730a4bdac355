package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/store"
)

// CSVExporter exports requests as flattened CSV rows. Documents and results
// are summarized; use JSON for the full record.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, records []*store.Request, w io.Writer) error {
	ch := make(chan *store.Request, len(records))
	for _, r := range records {
		ch <- r
	}
	close(ch)
	return e.ExportStream(ctx, ch, w)
}

// ExportStream writes records from the channel in CSV format, flushing every
// 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, records <-chan *store.Request, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-records:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return NewExportError("csv", count, err)
				}
			}
		}
	}
}

func headerRow() []string {
	return []string{
		"id", "status", "created_at", "updated_at",
		"document_count", "document_names", "pii_items",
		"required_ok", "overall_confidence", "pack_version",
		"failed_rules", "abstained_rules", "degraded",
		"digest", "error",
	}
}

// recordToRow flattens a request. Verdict columns are empty until the
// request has been processed.
func recordToRow(r *store.Request) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}

	names := make([]string, len(r.Documents))
	pii := 0
	for i, d := range r.Documents {
		names[i] = d.Name
		pii += len(d.PIIManifest.Entries)
	}

	var requiredOK, confidence, packVersion, failed, abstained, degraded, digest string
	if r.Result != nil {
		v := r.Result.Verdict
		requiredOK = strconv.FormatBool(v.RequiredOK)
		confidence = strconv.FormatFloat(v.OverallConfidence, 'f', 2, 64)
		packVersion = v.PackVersion
		failed = rulesWithStatus(v, compliance.StatusFail)
		abstained = rulesWithStatus(v, compliance.StatusAbstain)
		degraded = strconv.FormatBool(v.Degraded)
		digest = r.Result.Digest
	}

	return []string{
		r.ID,
		string(r.Status),
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		strconv.Itoa(len(r.Documents)),
		strings.Join(names, ";"),
		strconv.Itoa(pii),
		requiredOK,
		confidence,
		packVersion,
		failed,
		abstained,
		degraded,
		digest,
		r.Error,
	}
}

func rulesWithStatus(v compliance.ComplianceVerdict, status compliance.Status) string {
	var ids []string
	for _, f := range v.Findings {
		if f.Status == status {
			ids = append(ids, f.RuleID)
		}
	}
	return strings.Join(ids, ";")
}
