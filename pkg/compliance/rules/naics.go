package rules

import (
	"fmt"
	"strings"

	"getgsa/onboarding/pkg/compliance"
)

// MapNAICS resolves every code through the pack table and returns the mapped
// SINs and the codes that have no mapping, both in input order.
func (p *RulePack) MapNAICS(codes []string) (sins map[string]string, unmapped []string) {
	sins = make(map[string]string, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if sin, ok := p.SIN(code); ok {
			sins[code] = sin
			continue
		}
		unmapped = append(unmapped, code)
	}
	return sins, unmapped
}

func evaluateNAICS(c *EvalContext) compliance.RuleFinding {
	m := c.Fields.Get(compliance.FieldNAICS)

	var codes []string
	if m.Value != nil {
		codes = m.Value.Items
	}

	var problems []compliance.Problem
	_, unmapped := c.Pack.MapNAICS(codes)
	for _, code := range unmapped {
		problems = append(problems, failed(RuleNAICS, compliance.CodeNAICSSINMappingError,
			fmt.Sprintf("NAICS code %s does not map to a SIN", code)))
	}
	if len(problems) > 0 {
		return compliance.NewFinding(RuleNAICS, problems)
	}

	if reason, ok := m.AnyWithheld(); ok {
		return compliance.NewFinding(RuleNAICS, []compliance.Problem{abstained(RuleNAICS, compliance.CodeMissingNAICS, reason,
			"NAICS codes could not be determined with sufficient confidence")})
	}

	if len(codes) > 0 {
		return compliance.NewFinding(RuleNAICS, nil)
	}

	// An empty NAICS list depends on a resolved identity: when the registry
	// identifiers themselves were withheld the absence is not conclusive.
	for _, field := range []string{compliance.FieldUEI, compliance.FieldDUNS} {
		if id := c.Fields.Get(field); id.Abstained() {
			return compliance.NewFinding(RuleNAICS, []compliance.Problem{abstained(RuleNAICS, compliance.CodeMissingNAICS, id.Reason,
				fmt.Sprintf("no NAICS codes listed and %s could not be determined", strings.ToUpper(field)))})
		}
	}

	if m.Missing() {
		return compliance.NewFinding(RuleNAICS, []compliance.Problem{c.missing(RuleNAICS, compliance.CodeMissingNAICS)})
	}
	return compliance.NewFinding(RuleNAICS, []compliance.Problem{failed(RuleNAICS, compliance.CodeMissingNAICS, "no NAICS codes listed")})
}
