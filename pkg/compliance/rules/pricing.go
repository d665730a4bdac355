package rules

import (
	"fmt"
	"strings"

	"getgsa/onboarding/pkg/compliance"
)

// laborGaps lists what a labor line lacks for the pricing check. totalKnown
// reports whether a request-level total value is available.
func laborGaps(l compliance.LaborCategory, totalKnown bool) []string {
	var gaps []string
	if strings.TrimSpace(l.Category) == "" {
		gaps = append(gaps, "labor category")
	}
	if l.Rate == nil || *l.Rate <= 0 {
		gaps = append(gaps, "positive rate")
	}
	hours := l.Hours != nil && *l.Hours > 0
	total := l.Total != nil && *l.Total > 0
	if !hours && !total && !totalKnown {
		gaps = append(gaps, "hours or total value")
	}
	return gaps
}

func evaluatePricing(c *EvalContext) compliance.RuleFinding {
	m := c.Fields.Get(compliance.FieldPricing)
	tv := c.Fields.Get(compliance.FieldTotalValue)
	totalKnown := !tv.Abstained() && tv.Value != nil && tv.Value.Kind == compliance.KindNumber && tv.Value.Number > 0

	var labor []compliance.LaborCategory
	if m.Value != nil {
		labor = m.Value.Labor
	}

	// A line that would pass if the withheld total were known makes the
	// outcome undecidable rather than failing.
	totalWithheld := false
	parts := make([]string, 0, len(labor))
	for i, l := range labor {
		gaps := laborGaps(l, totalKnown)
		if len(gaps) == 0 {
			return compliance.NewFinding(RulePricing, nil)
		}
		if tv.Abstained() && len(laborGaps(l, true)) == 0 {
			totalWithheld = true
		}
		label := strings.TrimSpace(l.Category)
		if label == "" {
			label = fmt.Sprintf("line %d", i+1)
		} else {
			label = fmt.Sprintf("%q", label)
		}
		parts = append(parts, fmt.Sprintf("%s missing %s", label, strings.Join(gaps, ", ")))
	}

	if reason, ok := m.AnyWithheld(); ok {
		return compliance.NewFinding(RulePricing, []compliance.Problem{abstained(RulePricing, compliance.CodePricingIncomplete, reason,
			"pricing could not be determined with sufficient confidence")})
	}
	if totalWithheld {
		return compliance.NewFinding(RulePricing, []compliance.Problem{abstained(RulePricing, compliance.CodePricingIncomplete, tv.Reason,
			"total project value could not be determined with sufficient confidence")})
	}
	if m.Missing() {
		return compliance.NewFinding(RulePricing, []compliance.Problem{c.missing(RulePricing, compliance.CodePricingIncomplete)})
	}
	if len(labor) == 0 {
		return compliance.NewFinding(RulePricing, []compliance.Problem{failed(RulePricing, compliance.CodePricingIncomplete,
			"no labor categories listed")})
	}
	return compliance.NewFinding(RulePricing, []compliance.Problem{failed(RulePricing, compliance.CodePricingIncomplete,
		strings.Join(parts, "; "))})
}
