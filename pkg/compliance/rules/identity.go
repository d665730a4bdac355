package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"getgsa/onboarding/pkg/compliance"
)

var (
	ueiPattern   = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)
	dunsPattern  = regexp.MustCompile(`^[0-9]{9}$`)
	naicsPattern = regexp.MustCompile(`^[0-9]{6}$`)
	sinPattern   = regexp.MustCompile(`^[0-9]{5}S$`)
)

var folder = cases.Fold()

// NormalizeName folds case, applies compatibility normalization and
// collapses whitespace so that equivalent spellings of a name compare equal.
func NormalizeName(name string) string {
	folded := folder.String(norm.NFKC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}

// ValidUEI reports whether s has the UEI format.
func ValidUEI(s string) bool {
	return ueiPattern.MatchString(strings.TrimSpace(s))
}

// ValidDUNS reports whether s has the DUNS format.
func ValidDUNS(s string) bool {
	return dunsPattern.MatchString(strings.TrimSpace(s))
}

func evaluateIdentity(c *EvalContext) compliance.RuleFinding {
	var problems []compliance.Problem
	problems = append(problems, checkFormat(c, compliance.FieldUEI, "UEI", compliance.CodeMissingUEI, ValidUEI,
		"is not 12 alphanumeric characters")...)
	problems = append(problems, checkFormat(c, compliance.FieldDUNS, "DUNS", compliance.CodeMissingDUNS, ValidDUNS,
		"is not 9 digits")...)
	problems = append(problems, checkSAMStatus(c)...)
	problems = append(problems, checkEntityName(c)...)
	return compliance.NewFinding(RuleIdentity, problems)
}

func checkFormat(c *EvalContext, field, label string, code compliance.ProblemCode, valid func(string) bool, invalidMsg string) []compliance.Problem {
	m := c.Fields.Get(field)
	switch {
	case m.Missing():
		return []compliance.Problem{c.missing(RuleIdentity, code)}
	case m.Abstained():
		return []compliance.Problem{abstained(RuleIdentity, code, m.Reason,
			fmt.Sprintf("%s could not be determined with sufficient confidence", label))}
	case m.Value.Empty():
		return []compliance.Problem{failed(RuleIdentity, code, fmt.Sprintf("%s not found in documents", label))}
	}
	value := strings.TrimSpace(m.Value.Text)
	if !valid(value) {
		return []compliance.Problem{failed(RuleIdentity, code, fmt.Sprintf("%s %q %s", label, value, invalidMsg))}
	}
	return nil
}

func checkSAMStatus(c *EvalContext) []compliance.Problem {
	m := c.Fields.Get(compliance.FieldSAMStatus)
	switch {
	case m.Missing():
		return []compliance.Problem{c.missing(RuleIdentity, compliance.CodeSAMInactive)}
	case m.Abstained():
		return []compliance.Problem{abstained(RuleIdentity, compliance.CodeSAMInactive, m.Reason,
			"SAM registration status could not be determined with sufficient confidence")}
	case m.Value.Empty():
		return []compliance.Problem{failed(RuleIdentity, compliance.CodeSAMInactive, "SAM registration status not stated")}
	}
	status := NormalizeName(m.Value.Text)
	for _, active := range c.Pack.ActiveSAMStatuses {
		if status == NormalizeName(active) {
			return nil
		}
	}
	return []compliance.Problem{failed(RuleIdentity, compliance.CodeSAMInactive,
		fmt.Sprintf("SAM status %q is not one of %s", strings.TrimSpace(m.Value.Text), strings.Join(c.Pack.ActiveSAMStatuses, ", ")))}
}

func checkEntityName(c *EvalContext) []compliance.Problem {
	m := c.Fields.Get(compliance.FieldEntityName)
	if m.Missing() {
		return []compliance.Problem{c.missing(RuleIdentity, compliance.CodeMissingEntityName)}
	}

	// normalized name -> documents that state it
	byName := make(map[string][]string)
	var order []string
	for _, o := range m.Decided() {
		if o.Value.Empty() {
			continue
		}
		key := NormalizeName(o.Value.Text)
		if _, ok := byName[key]; !ok {
			order = append(order, key)
		}
		byName[key] = append(byName[key], documentLabel(o))
	}
	reason, withheld := m.AnyWithheld()

	if len(order) == 0 {
		if withheld {
			return []compliance.Problem{abstained(RuleIdentity, compliance.CodeMissingEntityName, reason,
				"entity name could not be determined with sufficient confidence")}
		}
		return []compliance.Problem{failed(RuleIdentity, compliance.CodeMissingEntityName, "entity name not found in documents")}
	}

	if len(order) > 1 {
		parts := make([]string, 0, len(order))
		for _, key := range order {
			docs := byName[key]
			sort.Strings(docs)
			parts = append(parts, fmt.Sprintf("%q in %s", key, strings.Join(docs, ", ")))
		}
		return []compliance.Problem{failed(RuleIdentity, compliance.CodeEntityNameMismatch,
			"entity name differs across documents: "+strings.Join(parts, "; "))}
	}

	if withheld {
		return []compliance.Problem{abstained(RuleIdentity, compliance.CodeEntityNameMismatch, reason,
			"entity name in at least one document could not be confirmed")}
	}
	return nil
}

func documentLabel(o Occurrence) string {
	if o.DocumentName != "" {
		return o.DocumentName
	}
	if o.DocumentID != "" {
		return o.DocumentID
	}
	return "unnamed document"
}
