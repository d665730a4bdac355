package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

var analyzeFlags struct {
	rulesFile      string
	threshold      float64
	persist        bool
	failOnProblems bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Analyze documents locally",
	Long: `Run the full pipeline on local text files: redact, extract, evaluate the
rule pack and write the report.

Each file becomes one document named after its base name. Nothing is stored
unless --persist is set, in which case the request is saved to the configured
storage and can be inspected with "getgsa requests".

Examples:
  getgsa analyze profile.txt past_performance.txt pricing.txt
  getgsa analyze --rules rules.yaml --output json docs/*.txt
  getgsa analyze --fail-on-problems profile.txt   # exit code 3 when items are missing`,
	Args: cobra.MinimumNArgs(1),
	RunE: analyzeFiles,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFlags.rulesFile, "rules", "", "rule pack file (overrides the configured source)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.threshold, "threshold", 0, "abstain threshold override (0 keeps the pack value)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.persist, "persist", false, "save the request to the configured storage")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.failOnProblems, "fail-on-problems", false, "exit with code 3 when required items are not met")
}

// analyzeReport is the output of the analyze command.
type analyzeReport struct {
	Ingest *analysis.IngestResponse `json:"ingest"`
	Result analysis.AnalyzeResponse `json:"result"`
}

func analyzeFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeFlags.rulesFile != "" {
		cfg.Rules.Source = "file"
		cfg.Rules.FilePath = analyzeFlags.rulesFile
	}
	cfg.Rules.Watch = false
	if analyzeFlags.threshold != 0 {
		if analyzeFlags.threshold < 0 || analyzeFlags.threshold > 1 {
			return cli.NewConfigError("--threshold", "must be between 0 and 1")
		}
		cfg.Rules.AbstainThreshold = analyzeFlags.threshold
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	docs, err := readDocuments(args)
	if err != nil {
		return err
	}

	registry, _, err := loadRules(ctx, cfg.Rules, nil, logger)
	if err != nil {
		return err
	}

	var st store.Store = store.NewMemoryStore()
	if analyzeFlags.persist {
		st, err = store.New(ctx, cfg.Storage)
		if err != nil {
			return cli.NewCommandError("analyze", err)
		}
	}
	defer st.Close()

	svc, collaborators, err := newService(cfg, st, registry, nil, tracing.Noop(), logger)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	defer collaborators.Close()

	ingest, err := svc.Ingest(ctx, analysis.IngestRequest{Documents: docs})
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	req, err := svc.Analyze(ctx, ingest.RequestID)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	if err := printResult(cmd, analyzeReport{Ingest: ingest, Result: analysis.NewAnalyzeResponse(req)}); err != nil {
		return err
	}
	if analyzeFlags.failOnProblems && req.Result != nil && !req.Result.Verdict.RequiredOK {
		return cli.NewCommandError("analyze", cli.ErrProblemsFound)
	}
	return nil
}

// readDocuments reads each file as one document. Size limits are left to
// ingest so oversized files are reported like any other rejection.
func readDocuments(paths []string) ([]analysis.DocumentInput, error) {
	docs := make([]analysis.DocumentInput, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		docs = append(docs, analysis.DocumentInput{
			Name: filepath.Base(p),
			Text: string(data),
		})
	}
	return docs, nil
}

func (r analyzeReport) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Request %s\n\nDocuments:\n", r.Ingest.RequestID)
	for _, d := range r.Ingest.Documents {
		if d.Status == store.DocumentRejected {
			fmt.Fprintf(&b, "  ✗ %s: %s\n", d.Name, strings.Join(d.Issues, "; "))
			continue
		}
		fmt.Fprintf(&b, "  ✓ %s (%d words%s)\n", d.Name, d.WordCount, piiSummary(d.PIICounts))
	}

	writeResult(&b, r.Result)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeResult renders the verdict and report of an analyzed request.
func writeResult(b *strings.Builder, resp analysis.AnalyzeResponse) {
	res := resp.Result
	if res == nil {
		fmt.Fprintf(b, "\nStatus: %s", resp.Status)
		if resp.Error != "" {
			fmt.Fprintf(b, " (%s)", resp.Error)
		}
		b.WriteString("\n")
		return
	}

	v := res.Verdict
	verdict := "MET"
	if !v.RequiredOK {
		verdict = "NOT MET"
	}
	fmt.Fprintf(b, "\nRequired items: %s (pack %s, confidence %.2f", verdict, v.PackVersion, v.OverallConfidence)
	if v.Degraded {
		b.WriteString(", degraded")
	}
	b.WriteString(")\n\nFindings:\n")
	for _, f := range v.Findings {
		fmt.Fprintf(b, "  %-7s %s\n", strings.ToUpper(string(f.Status)), f.RuleID)
	}

	if items := res.Report.Checklist.Items; len(items) > 0 {
		b.WriteString("\nChecklist:\n")
		for _, item := range items {
			line := fmt.Sprintf("  [%s] %s %s: %s", item.Status, item.RuleID, item.Code, item.Evidence)
			if item.Status == compliance.StatusAbstain && item.Reason != "" {
				line += fmt.Sprintf(" (%s)", item.Reason)
			}
			b.WriteString(line + "\n")
		}
	}

	if text := res.Report.Brief.Text; text != "" {
		fmt.Fprintf(b, "\nBrief:\n%s\n", indent(text))
	}
	if email := res.Report.ClientEmail; email.Body != "" {
		fmt.Fprintf(b, "\nClient email: %s\n%s\n", email.Subject, indent(email.Body))
	}
	fmt.Fprintf(b, "\nDigest: %s\n", res.Digest)
}

func piiSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return ", redacted " + strings.Join(parts, " ")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
