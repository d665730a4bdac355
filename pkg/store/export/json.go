package export

import (
	"context"
	"encoding/json"
	"io"

	"getgsa/onboarding/pkg/store"
)

// JSONExporter exports requests as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes records as a JSON array. An empty slice writes [].
func (e *JSONExporter) Export(ctx context.Context, records []*store.Request, w io.Writer) error {
	if records == nil {
		records = []*store.Request{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return NewExportError("json", len(records), err)
	}

	if _, err := w.Write(data); err != nil {
		return NewExportError("json", len(records), err)
	}
	return nil
}

// ExportStream writes records from the channel as one JSON array.
func (e *JSONExporter) ExportStream(ctx context.Context, records <-chan *store.Request, w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return NewExportError("json", 0, err)
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-records:
			if !ok {
				if e.Pretty && count > 0 {
					if _, err := io.WriteString(w, "\n"); err != nil {
						return NewExportError("json", count, err)
					}
				}
				if _, err := io.WriteString(w, "]"); err != nil {
					return NewExportError("json", count, err)
				}
				return nil
			}

			sep := ","
			if count == 0 {
				sep = ""
			}
			if e.Pretty {
				sep += "\n  "
			}
			if _, err := io.WriteString(w, sep); err != nil {
				return NewExportError("json", count, err)
			}

			data, err := e.serialize(record)
			if err != nil {
				return NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) serialize(record *store.Request) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(record, "  ", "  ")
	}
	return json.Marshal(record)
}
