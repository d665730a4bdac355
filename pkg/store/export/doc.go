// Package export writes stored onboarding requests as JSON or CSV.
//
// # Export Formats
//
//   - JSON: an array of full requests, optionally pretty-printed
//   - CSV: one flattened row per request with the verdict summary
//
// # Usage
//
//	exporter, err := export.New("csv")
//	if err != nil {
//	    return err
//	}
//	records, errCh := export.Stream(ctx, s, store.Query{Status: store.StatusProcessed}, 0)
//	if err := exporter.ExportStream(ctx, records, os.Stdout); err != nil {
//	    return err
//	}
//	if err := <-errCh; err != nil {
//	    return err
//	}
//
// Stream pages through the store so large exports never hold every request in
// memory. Exporters return ExportError when encoding or writing fails.
package export
