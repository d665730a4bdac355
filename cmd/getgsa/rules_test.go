package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/compliance/rules"
)

func TestRulesShow_Builtin(t *testing.T) {
	isolate(t)

	out, err := execute(t, "rules", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule pack "+rules.DefaultPackVersion)
	assert.Contains(t, out, "R1")
	assert.Contains(t, out, "541511 -> 54151S")
}

func TestRulesShow_File(t *testing.T) {
	dir := isolate(t)
	pack := writeFile(t, dir, "pack.yaml", `version: 1.4.0
threshold: 0.8
rules:
  - id: R5
    title: No personal data
`)
	t.Setenv("GETGSA_RULES_SOURCE", "file")
	t.Setenv("GETGSA_RULES_FILE_PATH", pack)

	out, err := execute(t, "rules", "show", "-o", "json")
	require.NoError(t, err)

	var got packView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.4.0", got.Version)
	assert.InDelta(t, 0.8, got.Threshold, 1e-9)
	assert.Contains(t, got.Source, pack)
	require.Len(t, got.Rules, 5)
	assert.Equal(t, "No personal data", got.Rules[4].Title)
}

func TestRulesValidate(t *testing.T) {
	dir := isolate(t)
	valid := writeFile(t, dir, "valid.yaml", "version: 1.0.1\nrecency_months: 24\n")
	invalid := writeFile(t, dir, "invalid.yaml", "version: 1.0.1\nthreshold: 2\n")

	out, err := execute(t, "rules", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+valid+": version 1.0.1, 5 rules")

	out, err = execute(t, "rules", "validate", valid, invalid, dir+"/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(err))
	assert.Contains(t, out, "✗ "+invalid+": ")
	assert.Contains(t, out, "missing.yaml")

	out, err = execute(t, "rules", "validate", "-o", "csv", valid, invalid)
	require.Error(t, err)
	assert.Contains(t, out, "FILE,VALID,VERSION,RULES,ERROR")
	assert.Contains(t, out, valid+",true,1.0.1,5,")
}
