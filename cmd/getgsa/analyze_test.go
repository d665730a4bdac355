package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getgsa/onboarding/pkg/cli"
)

// analyzeOutput mirrors the JSON shape of the analyze command.
type analyzeOutput struct {
	Ingest struct {
		RequestID      string `json:"request_id"`
		TotalDocuments int    `json:"total_documents"`
		Documents      []struct {
			Name   string   `json:"name"`
			Status string   `json:"status"`
			Issues []string `json:"issues"`
		} `json:"doc_summaries"`
	} `json:"ingest"`
	Result struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
		Verdict   struct {
			RequiredOK  bool   `json:"required_ok"`
			PackVersion string `json:"pack_version"`
			Findings    []struct {
				RuleID string `json:"rule_id"`
				Status string `json:"status"`
			} `json:"findings"`
		} `json:"verdict"`
		Digest string `json:"digest"`
	} `json:"result"`
}

func TestAnalyzeCommand(t *testing.T) {
	dir := isolate(t)
	profile := writeFile(t, dir, "profile.txt", profileText)
	pricing := writeFile(t, dir, "pricing.txt", pricingText)

	out, err := execute(t, "analyze", "-o", "json", profile, pricing)
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Ingest.TotalDocuments)
	assert.Equal(t, "profile.txt", got.Ingest.Documents[0].Name)
	assert.Equal(t, got.Ingest.RequestID, got.Result.RequestID)
	assert.Equal(t, "processed", got.Result.Status)
	assert.Len(t, got.Result.Verdict.Findings, 5)
	// No past performance was submitted.
	assert.False(t, got.Result.Verdict.RequiredOK)
	assert.Len(t, got.Result.Digest, 64)
}

func TestAnalyzeCommand_Text(t *testing.T) {
	dir := isolate(t)
	profile := writeFile(t, dir, "profile.txt", profileText)
	empty := writeFile(t, dir, "empty.txt", "   ")

	out, err := execute(t, "analyze", profile, empty)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ profile.txt")
	assert.Contains(t, out, "✗ empty.txt")
	assert.Contains(t, out, "Required items: NOT MET")
	assert.Contains(t, out, "Checklist:")
	assert.Contains(t, out, "Digest:")
	assert.NotContains(t, out, "jane.doe@acme.example")
}

func TestAnalyzeCommand_FailOnProblems(t *testing.T) {
	dir := isolate(t)
	profile := writeFile(t, dir, "profile.txt", profileText)

	_, err := execute(t, "analyze", "--fail-on-problems", profile)
	require.Error(t, err)
	assert.ErrorIs(t, err, cli.ErrProblemsFound)
	assert.Equal(t, cli.ExitProblems, cli.ExitCode(err))
}

func TestAnalyzeCommand_RulesFile(t *testing.T) {
	dir := isolate(t)
	profile := writeFile(t, dir, "profile.txt", profileText)
	pack := writeFile(t, dir, "pack.yaml", "version: 2.3.0\nrules:\n  - id: R3\n    disabled: true\n")

	out, err := execute(t, "analyze", "-o", "json", "--rules", pack, profile)
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2.3.0", got.Result.Verdict.PackVersion)
	assert.Len(t, got.Result.Verdict.Findings, 4)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	dir := isolate(t)
	profile := writeFile(t, dir, "profile.txt", profileText)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "missing file", args: []string{"analyze", dir + "/missing.txt"}, wantCode: cli.ExitFailure},
		{name: "threshold out of range", args: []string{"analyze", "--threshold", "1.5", profile}, wantCode: cli.ExitConfig},
		{name: "missing rules file", args: []string{"analyze", "--rules", dir + "/nope.yaml", profile}, wantCode: cli.ExitFailure},
		{name: "only empty documents", args: []string{"analyze", writeFile(t, dir, "blank.txt", "")}, wantCode: cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, cli.ExitCode(err))
		})
	}

	_, err := execute(t, "analyze")
	assert.Error(t, err)
}
