package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/api/handlers"
	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/compliance/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule packs",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured rule pack",
	Long: `Load the rule pack from the configured source and print its version,
parameters and rules.

Examples:
  getgsa rules show
  getgsa rules show --config config.yaml --output json`,
	Args: cobra.NoArgs,
	RunE: showRules,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate rule pack files",
	Long: `Parse and validate each rule pack file. The command fails when any file
is invalid.

Examples:
  getgsa rules validate rules.yaml
  getgsa rules validate packs/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateRules,
}

func init() {
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}

// packView renders a rule pack. It shares the JSON shape of GET /api/v1/rules.
type packView struct {
	handlers.RulesResponse
	Source string `json:"source"`
}

func newPackView(registry *rules.Registry, sourceName string) packView {
	pack := registry.Current()
	view := packView{
		RulesResponse: handlers.RulesResponse{
			Version:         pack.Version,
			Threshold:       pack.Threshold,
			MinProjectValue: pack.MinProjectValue,
			RecencyMonths:   pack.RecencyMonths,
			NAICSToSIN:      pack.NAICSToSIN,
			LoadedAt:        registry.LoadedAt().UTC(),
			Reloads:         registry.Reloads(),
			Rules:           make([]handlers.RuleInfo, 0, len(pack.Rules)),
		},
		Source: sourceName,
	}
	for _, r := range pack.Rules {
		view.Rules = append(view.Rules, handlers.RuleInfo{ID: r.ID, Title: r.Title, Description: r.Description})
	}
	return view
}

func (v packView) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule pack %s (%s)\n", v.Version, v.Source)
	fmt.Fprintf(&b, "  Abstain threshold:  %.2f\n", v.Threshold)
	fmt.Fprintf(&b, "  Min project value:  $%.0f\n", v.MinProjectValue)
	fmt.Fprintf(&b, "  Recency:            %d months\n", v.RecencyMonths)

	b.WriteString("\nRules:\n")
	for _, r := range v.Rules {
		fmt.Fprintf(&b, "  %s  %s\n", r.ID, r.Title)
	}

	codes := make([]string, 0, len(v.NAICSToSIN))
	for code := range v.NAICSToSIN {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	b.WriteString("\nNAICS to SIN:\n")
	for _, code := range codes {
		fmt.Fprintf(&b, "  %s -> %s\n", code, v.NAICSToSIN[code])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func showRules(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	cfg.Rules.Watch = false
	registry, reloader, err := loadRules(cmd.Context(), cfg.Rules, nil, logger)
	if err != nil {
		return err
	}
	return printResult(cmd, newPackView(registry, reloader.SourceName()))
}

// validationResult is the outcome for one rule pack file.
type validationResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Version string `json:"version,omitempty"`
	Rules   int    `json:"rules,omitempty"`
	Error   string `json:"error,omitempty"`
}

type validationResults []validationResult

func (v validationResults) Header() []string {
	return []string{"FILE", "VALID", "VERSION", "RULES", "ERROR"}
}

func (v validationResults) Rows() [][]string {
	rows := make([][]string, len(v))
	for i, r := range v {
		count := ""
		if r.Valid {
			count = fmt.Sprint(r.Rules)
		}
		rows[i] = []string{r.File, fmt.Sprint(r.Valid), r.Version, count, r.Error}
	}
	return rows
}

func (v validationResults) WriteText(w io.Writer) error {
	for _, r := range v {
		var err error
		if r.Valid {
			_, err = fmt.Fprintf(w, "✓ %s: version %s, %d rules\n", r.File, r.Version, r.Rules)
		} else {
			_, err = fmt.Fprintf(w, "✗ %s: %s\n", r.File, r.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

var errInvalidPacks = errors.New("one or more rule packs are invalid")

func validateRules(cmd *cobra.Command, args []string) error {
	results := make(validationResults, 0, len(args))
	failed := false
	for _, path := range args {
		res := validationResult{File: path}
		pack, err := loadPackFile(path)
		if err != nil {
			res.Error = err.Error()
			failed = true
		} else {
			res.Valid = true
			res.Version = pack.Version
			res.Rules = len(pack.Rules)
		}
		results = append(results, res)
	}

	if err := printResult(cmd, results); err != nil {
		return err
	}
	if failed {
		return cli.NewCommandError("rules validate", errInvalidPacks)
	}
	return nil
}

func loadPackFile(path string) (*rules.RulePack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rules.LoadPack(f)
}
