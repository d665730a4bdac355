package rules

import (
	"fmt"
	"sort"
	"strings"

	"getgsa/onboarding/pkg/compliance"
)

var piiLabels = map[string]string{
	"email": "email address",
	"phone": "phone number",
	"ssn":   "SSN",
}

func piiLabel(t string) string {
	if l, ok := piiLabels[t]; ok {
		return l
	}
	return t
}

// leakedEntries returns the manifest entries of doc that still occur in its
// redacted text, and whether some entries could not be checked. Entries
// holding the raw value are matched literally; fingerprint-only entries are
// matched against a re-scan of the text.
func leakedEntries(c *EvalContext, doc compliance.DocumentRecord) (leaked []compliance.PIIEntry, unverifiable bool) {
	var rescanned map[string]bool
	for _, e := range doc.PIIManifest.Entries {
		if e.Value != "" {
			if strings.Contains(doc.RedactedText, e.Value) {
				leaked = append(leaked, e)
			}
			continue
		}
		if e.Fingerprint == "" {
			continue
		}
		if c.Detector == nil || c.Fingerprinter == nil {
			unverifiable = true
			continue
		}
		if rescanned == nil {
			rescanned = make(map[string]bool)
			for _, found := range c.Detector.Detect(doc.RedactedText) {
				rescanned[c.Fingerprinter.Fingerprint(found.Value)] = true
			}
		}
		if rescanned[e.Fingerprint] {
			leaked = append(leaked, e)
		}
	}
	return leaked, unverifiable
}

func evaluateHygiene(c *EvalContext) compliance.RuleFinding {
	var problems []compliance.Problem
	var unverified []string

	for _, doc := range c.Documents {
		leaked, unverifiable := leakedEntries(c, doc)
		if unverifiable {
			unverified = append(unverified, documentName(doc))
		}
		if len(leaked) == 0 {
			continue
		}
		counts := make(map[string]int)
		for _, e := range leaked {
			counts[e.Type]++
		}
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			noun := piiLabel(t)
			if counts[t] > 1 {
				noun = fmt.Sprintf("%d %s values", counts[t], noun)
			}
			problems = append(problems, failed(RuleHygiene, compliance.CodePIINotRedacted,
				fmt.Sprintf("%s from the PII manifest still present in %s", noun, documentName(doc))))
		}
	}

	if len(problems) == 0 && len(unverified) > 0 {
		problems = append(problems, abstained(RuleHygiene, compliance.CodePIINotRedacted, compliance.ReasonInsufficientData,
			"redaction could not be verified for "+strings.Join(unverified, ", ")))
	}
	return compliance.NewFinding(RuleHygiene, problems)
}

func documentName(doc compliance.DocumentRecord) string {
	switch {
	case doc.Name != "":
		return fmt.Sprintf("%q", doc.Name)
	case doc.ID != "":
		return "document " + doc.ID
	}
	return "unnamed document"
}
