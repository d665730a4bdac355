package rules

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/abstain"
)

// Rule identifiers in evaluation order.
const (
	RuleIdentity        = "R1"
	RuleNAICS           = "R2"
	RulePastPerformance = "R3"
	RulePricing         = "R4"
	RuleHygiene         = "R5"
)

// Rule is one entry of a rule pack. Evaluate must be a pure function of the
// context it is given.
type Rule struct {
	ID          string
	Title       string
	Description string
	Evaluate    func(*EvalContext) compliance.RuleFinding
}

// RulePack is an immutable, versioned set of rules and their parameters.
// Packs are built by DefaultPack or LoadPack and must not be modified after
// construction; evaluations running concurrently may share one pack.
type RulePack struct {
	Version           string
	Threshold         float64
	MinProjectValue   float64
	RecencyMonths     int
	ActiveSAMStatuses []string
	NAICSToSIN        map[string]string
	Rules             []Rule
}

// Default pack parameters.
const (
	DefaultPackVersion     = "1.0.0"
	DefaultMinProjectValue = 25000
	DefaultRecencyMonths   = 36
)

// DefaultActiveSAMStatuses lists the SAM registration statuses treated as active.
var DefaultActiveSAMStatuses = []string{"Active", "Active - Pending"}

// DefaultNAICSToSIN is the NAICS to SIN lookup table of the built-in pack.
var DefaultNAICSToSIN = map[string]string{
	"541511": "54151S",
	"541512": "54151S",
	"541513": "54151S",
	"541519": "54151S",
	"541611": "54161S",
	"541612": "54161S",
	"541613": "54161S",
	"541614": "54161S",
	"541618": "54161S",
}

// builtinRules returns the rule definitions in evaluation order.
func builtinRules() []Rule {
	return []Rule{
		{
			ID:    RuleIdentity,
			Title: "Identity & Registry",
			Description: "UEI must be 12 alphanumeric characters. DUNS must be 9 digits. " +
				"SAM.gov registration must be active. The entity name must match across all documents.",
			Evaluate: evaluateIdentity,
		},
		{
			ID:    RuleNAICS,
			Title: "NAICS & SIN Mapping",
			Description: "Every NAICS code must map to a SIN: 541511, 541512, 541513 and 541519 map to 54151S; " +
				"541611, 541612, 541613, 541614 and 541618 map to 54161S.",
			Evaluate: evaluateNAICS,
		},
		{
			ID:    RulePastPerformance,
			Title: "Past Performance",
			Description: "At least one past performance project valued at $25,000 or more " +
				"completed within the last 36 months.",
			Evaluate: evaluatePastPerformance,
		},
		{
			ID:    RulePricing,
			Title: "Pricing & Catalog",
			Description: "At least one labor category with a positive rate and either labor hours " +
				"or a total project value.",
			Evaluate: evaluatePricing,
		},
		{
			ID:          RuleHygiene,
			Title:       "Submission Hygiene",
			Description: "All personal data (emails, phone numbers, SSNs) must be redacted from submitted documents.",
			Evaluate:    evaluateHygiene,
		},
	}
}

// DefaultPack returns the built-in rule pack.
func DefaultPack() *RulePack {
	naics := make(map[string]string, len(DefaultNAICSToSIN))
	for k, v := range DefaultNAICSToSIN {
		naics[k] = v
	}
	return &RulePack{
		Version:           DefaultPackVersion,
		Threshold:         abstain.DefaultThreshold,
		MinProjectValue:   DefaultMinProjectValue,
		RecencyMonths:     DefaultRecencyMonths,
		ActiveSAMStatuses: append([]string(nil), DefaultActiveSAMStatuses...),
		NAICSToSIN:        naics,
		Rules:             builtinRules(),
	}
}

// SIN returns the SIN mapped to a NAICS code.
func (p *RulePack) SIN(naics string) (string, bool) {
	sin, ok := p.NAICSToSIN[strings.TrimSpace(naics)]
	return sin, ok
}

// NAICSCodes returns the mapped NAICS codes in ascending order.
func (p *RulePack) NAICSCodes() []string {
	codes := make([]string, 0, len(p.NAICSToSIN))
	for code := range p.NAICSToSIN {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rule returns the rule with the given id.
func (p *RulePack) Rule(id string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Gate returns the abstention gate configured by the pack threshold.
func (p *RulePack) Gate() abstain.Gate {
	return abstain.New(p.Threshold)
}

// Validate checks that the pack is usable.
func (p *RulePack) Validate() error {
	if p == nil {
		return &PackError{Message: "rule pack is nil"}
	}
	if _, err := semver.NewVersion(p.Version); err != nil {
		return &PackError{Field: "version", Message: fmt.Sprintf("invalid semantic version %q", p.Version), Cause: err}
	}
	if p.Threshold <= 0 || p.Threshold > 1 {
		return &PackError{Field: "threshold", Message: fmt.Sprintf("must be in (0,1], got %v", p.Threshold)}
	}
	if p.MinProjectValue < 0 {
		return &PackError{Field: "min_project_value", Message: "must not be negative"}
	}
	if p.RecencyMonths <= 0 {
		return &PackError{Field: "recency_months", Message: "must be positive"}
	}
	if len(p.ActiveSAMStatuses) == 0 {
		return &PackError{Field: "active_sam_statuses", Message: "at least one status is required"}
	}
	if len(p.NAICSToSIN) == 0 {
		return &PackError{Field: "naics_to_sin", Message: "lookup table is empty"}
	}
	for naics, sin := range p.NAICSToSIN {
		if !naicsPattern.MatchString(naics) {
			return &PackError{Field: "naics_to_sin", Message: fmt.Sprintf("NAICS code %q must be 6 digits", naics)}
		}
		if !sinPattern.MatchString(sin) {
			return &PackError{Field: "naics_to_sin", Message: fmt.Sprintf("SIN %q for %s must be 5 digits followed by S", sin, naics)}
		}
	}
	if len(p.Rules) == 0 {
		return &PackError{Field: "rules", Message: "pack has no rules"}
	}
	seen := make(map[string]bool, len(p.Rules))
	for _, r := range p.Rules {
		if seen[r.ID] {
			return &PackError{Field: "rules", Message: fmt.Sprintf("duplicate rule %s", r.ID)}
		}
		seen[r.ID] = true
		if r.Evaluate == nil {
			return &PackError{Field: "rules", Message: fmt.Sprintf("rule %s has no implementation", r.ID)}
		}
	}
	return nil
}

// packFile is the YAML form of a rule pack. Every parameter is optional and
// defaults to the built-in pack.
type packFile struct {
	Version           string            `yaml:"version"`
	Threshold         *float64          `yaml:"threshold"`
	MinProjectValue   *float64          `yaml:"min_project_value"`
	RecencyMonths     *int              `yaml:"recency_months"`
	ActiveSAMStatuses []string          `yaml:"active_sam_statuses"`
	NAICSToSIN        map[string]string `yaml:"naics_to_sin"`
	Rules             []ruleFile        `yaml:"rules"`
}

type ruleFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Disabled    bool   `yaml:"disabled"`
}

// LoadPack reads a YAML rule pack. Rule entries may override the title and
// description of built-in rules or disable them; they cannot introduce rules
// without an implementation.
func LoadPack(r io.Reader) (*RulePack, error) {
	var pf packFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, &PackError{Message: "rule pack is empty"}
		}
		return nil, &PackError{Message: "failed to parse rule pack", Cause: err}
	}

	pack := DefaultPack()
	if pf.Version == "" {
		return nil, &PackError{Field: "version", Message: "version is required"}
	}
	v, err := semver.NewVersion(pf.Version)
	if err != nil {
		return nil, &PackError{Field: "version", Message: fmt.Sprintf("invalid semantic version %q", pf.Version), Cause: err}
	}
	pack.Version = v.String()

	if pf.Threshold != nil {
		pack.Threshold = *pf.Threshold
	}
	if pf.MinProjectValue != nil {
		pack.MinProjectValue = *pf.MinProjectValue
	}
	if pf.RecencyMonths != nil {
		pack.RecencyMonths = *pf.RecencyMonths
	}
	if len(pf.ActiveSAMStatuses) > 0 {
		pack.ActiveSAMStatuses = append([]string(nil), pf.ActiveSAMStatuses...)
	}
	if len(pf.NAICSToSIN) > 0 {
		pack.NAICSToSIN = make(map[string]string, len(pf.NAICSToSIN))
		for k, v := range pf.NAICSToSIN {
			pack.NAICSToSIN[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	if len(pf.Rules) > 0 {
		builtin := make(map[string]Rule, len(pack.Rules))
		for _, r := range pack.Rules {
			builtin[r.ID] = r
		}
		disabled := make(map[string]bool)
		for _, rf := range pf.Rules {
			r, ok := builtin[rf.ID]
			if !ok {
				return nil, &PackError{Field: "rules", Message: fmt.Sprintf("unknown rule %q", rf.ID)}
			}
			if rf.Title != "" {
				r.Title = rf.Title
			}
			if rf.Description != "" {
				r.Description = strings.TrimSpace(rf.Description)
			}
			builtin[rf.ID] = r
			disabled[rf.ID] = rf.Disabled
		}
		// Keep the fixed evaluation order regardless of file order.
		rules := make([]Rule, 0, len(pack.Rules))
		for _, r := range pack.Rules {
			if disabled[r.ID] {
				continue
			}
			rules = append(rules, builtin[r.ID])
		}
		pack.Rules = rules
	}

	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return pack, nil
}

// PackError is returned when a rule pack cannot be loaded or is invalid.
type PackError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PackError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("rule pack error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("rule pack error: %s", msg)
}

// Unwrap returns the underlying cause error.
func (e *PackError) Unwrap() error {
	return e.Cause
}
