package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/store/export"
	"getgsa/onboarding/pkg/store/retention"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "Inspect, export and prune stored requests",
}

var requestsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one stored request",
	Args:  cobra.ExactArgs(1),
	RunE:  getRequest,
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored requests",
	Long: `List stored requests, newest first.

Examples:
  getgsa requests list --status processed --limit 20
  getgsa requests list --since 2024-01-01 --output csv`,
	Args: cobra.NoArgs,
	RunE: listRequests,
}

var requestsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored requests",
	Long: `Export stored requests as JSON or CSV. Requests are read page by page so
large stores can be exported without loading them into memory.

Examples:
  getgsa requests export --format csv --out requests.csv
  getgsa requests export --status error --since 2024-06-01`,
	Args: cobra.NoArgs,
	RunE: exportRequests,
}

var requestsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete requests older than the retention period",
	Long: `Delete stored requests created before a cutoff. The cutoff is --before,
or --days ago, or the configured retention period. When an archive path is
configured, requests are archived before they are deleted.

Examples:
  getgsa requests prune --days 90 --dry-run
  getgsa requests prune --before 2024-01-01`,
	Args: cobra.NoArgs,
	RunE: pruneRequests,
}

var requestsFlags struct {
	status   string
	since    string
	until    string
	limit    int
	format   string
	out      string
	pageSize int
	days     int
	before   string
	dryRun   bool
}

func init() {
	for _, c := range []*cobra.Command{requestsListCmd, requestsExportCmd} {
		c.Flags().StringVar(&requestsFlags.status, "status", "", "filter by status (pending, processed, error)")
		c.Flags().StringVar(&requestsFlags.since, "since", "", "only requests created at or after this time (RFC3339 or YYYY-MM-DD)")
		c.Flags().StringVar(&requestsFlags.until, "until", "", "only requests created before this time (RFC3339 or YYYY-MM-DD)")
	}
	requestsListCmd.Flags().IntVar(&requestsFlags.limit, "limit", store.DefaultLimit, "maximum number of requests")

	requestsExportCmd.Flags().StringVar(&requestsFlags.format, "format", "json", "export format (json, csv)")
	requestsExportCmd.Flags().StringVar(&requestsFlags.out, "out", "", "output file (default stdout)")
	requestsExportCmd.Flags().IntVar(&requestsFlags.pageSize, "page-size", store.DefaultLimit, "requests read per page")

	requestsPruneCmd.Flags().IntVar(&requestsFlags.days, "days", 0, "prune requests older than this many days")
	requestsPruneCmd.Flags().StringVar(&requestsFlags.before, "before", "", "prune requests created before this time (RFC3339 or YYYY-MM-DD)")
	requestsPruneCmd.Flags().BoolVar(&requestsFlags.dryRun, "dry-run", false, "count matching requests without deleting them")

	requestsCmd.AddCommand(requestsGetCmd, requestsListCmd, requestsExportCmd, requestsPruneCmd)
	rootCmd.AddCommand(requestsCmd)
}

// openStore loads the configuration and opens the configured storage.
func openStore(ctx context.Context) (*config.Config, store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if _, err := setupLogging(cfg); err != nil {
		return nil, nil, err
	}
	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func getRequest(cmd *cobra.Command, args []string) error {
	_, st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	req, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("requests get", err)
	}
	return printResult(cmd, requestView{Request: req})
}

// requestView renders one stored request.
type requestView struct {
	*store.Request
}

func (v requestView) WriteText(w io.Writer) error {
	r := v.Request
	var b strings.Builder
	fmt.Fprintf(&b, "Request %s\n  Status:   %s\n  Created:  %s\n  Updated:  %s\n",
		r.ID, r.Status, r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339))
	b.WriteString("\nDocuments:\n")
	for _, d := range r.Documents {
		fmt.Fprintf(&b, "  %s  %s (%d words%s)\n", d.ID, d.Name, d.Summary.WordCount, piiSummary(d.Summary.PIICounts))
	}
	writeResult(&b, analysis.NewAnalyzeResponse(r))

	_, err := io.WriteString(w, b.String())
	return err
}

// requestRows lists stored requests as a table.
type requestRows []*store.Request

func (rs requestRows) Header() []string {
	return []string{"ID", "STATUS", "CREATED", "DOCUMENTS", "REQUIRED_OK", "PACK"}
}

func (rs requestRows) Rows() [][]string {
	rows := make([][]string, len(rs))
	for i, r := range rs {
		requiredOK, pack := "-", "-"
		if r.Result != nil {
			requiredOK = fmt.Sprint(r.Result.Verdict.RequiredOK)
			pack = r.Result.Verdict.PackVersion
		}
		rows[i] = []string{
			r.ID,
			string(r.Status),
			r.CreatedAt.Format(time.RFC3339),
			fmt.Sprint(len(r.Documents)),
			requiredOK,
			pack,
		}
	}
	return rows
}

func listRequests(cmd *cobra.Command, _ []string) error {
	query, err := buildQuery()
	if err != nil {
		return err
	}
	query.Limit = requestsFlags.limit

	_, st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	reqs, err := st.Query(cmd.Context(), &query)
	if err != nil {
		return cli.NewCommandError("requests list", err)
	}
	return printResult(cmd, requestRows(reqs))
}

func exportRequests(cmd *cobra.Command, _ []string) error {
	query, err := buildQuery()
	if err != nil {
		return err
	}
	exporter, err := export.New(requestsFlags.format)
	if err != nil {
		return cli.NewConfigError("--format", err.Error())
	}

	ctx := cmd.Context()
	_, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	total, err := st.Count(ctx, &query)
	if err != nil {
		return cli.NewCommandError("requests export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if requestsFlags.out != "" {
		f, err := os.Create(requestsFlags.out)
		if err != nil {
			return cli.NewCommandError("requests export", err)
		}
		defer f.Close()
		w = f
	}

	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "requests")
	progress.Start(total)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, errCh := export.Stream(ctx, st, query, requestsFlags.pageSize)
	counted := make(chan *store.Request)
	go func() {
		defer close(counted)
		var n int64
		for r := range records {
			select {
			case <-ctx.Done():
				return
			case counted <- r:
			}
			n++
			progress.Update(n)
		}
	}()

	if err := exporter.ExportStream(ctx, counted, w); err != nil {
		progress.Error(err)
		return cli.NewCommandError("requests export", err)
	}
	if err := <-errCh; err != nil {
		progress.Error(err)
		return cli.NewCommandError("requests export", err)
	}
	progress.Finish()
	return nil
}

// pruneResult reports a prune run.
type pruneResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Deleted int64     `json:"deleted"`
	DryRun  bool      `json:"dry_run"`
}

func (p pruneResult) WriteText(w io.Writer) error {
	verb := "Deleted"
	if p.DryRun {
		verb = "Would delete"
	}
	_, err := fmt.Fprintf(w, "%s %d requests created before %s\n", verb, p.Deleted, p.Cutoff.Format(time.RFC3339))
	return err
}

func pruneRequests(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	retentionCfg := cfg.Storage.Retention
	if requestsFlags.days > 0 {
		retentionCfg.Days = requestsFlags.days
	}
	pruner := retention.NewPruner(st, retentionCfg, nil)

	cutoff := pruner.Cutoff()
	if requestsFlags.before != "" {
		cutoff, err = parseTimeFlag("--before", requestsFlags.before)
		if err != nil {
			return err
		}
	}
	if cutoff.IsZero() {
		return cli.NewConfigError("storage.retention.days", "no cutoff: set --days, --before or a retention period")
	}

	result := pruneResult{Cutoff: cutoff.UTC(), DryRun: requestsFlags.dryRun}
	if requestsFlags.dryRun {
		// EndTime is inclusive; DeleteBefore is not.
		end := cutoff.Add(-time.Nanosecond)
		result.Deleted, err = st.Count(ctx, &store.Query{EndTime: &end})
	} else {
		result.Deleted, err = pruner.PruneBefore(ctx, cutoff)
	}
	if err != nil {
		return cli.NewCommandError("requests prune", err)
	}
	return printResult(cmd, result)
}

// buildQuery turns the filter flags into a store query.
func buildQuery() (store.Query, error) {
	var q store.Query
	if requestsFlags.status != "" {
		q.Status = store.Status(requestsFlags.status)
		if !q.Status.Valid() {
			return q, cli.NewConfigError("--status", fmt.Sprintf("unknown status %q", requestsFlags.status))
		}
	}
	if requestsFlags.since != "" {
		t, err := parseTimeFlag("--since", requestsFlags.since)
		if err != nil {
			return q, err
		}
		q.StartTime = &t
	}
	if requestsFlags.until != "" {
		t, err := parseTimeFlag("--until", requestsFlags.until)
		if err != nil {
			return q, err
		}
		q.EndTime = &t
	}
	if err := q.Validate(); err != nil {
		return q, cli.NewConfigError("", err.Error())
	}
	return q, nil
}

func parseTimeFlag(flag, value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, cli.NewConfigError(flag, fmt.Sprintf("invalid time %q (use RFC3339 or YYYY-MM-DD)", value))
}
