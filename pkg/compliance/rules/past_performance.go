package rules

import (
	"fmt"
	"strings"
	"time"

	"getgsa/onboarding/pkg/compliance"
)

// ProjectCheck is the assessment of one past-performance project.
type ProjectCheck struct {
	Project   compliance.Project
	MeetsBar  bool
	Recent    bool
	Qualifies bool
	Issues    []string
}

// CheckProject assesses proj against the pack value bar and recency window
// relative to now. The window is [now-RecencyMonths, now]; a completion date
// after now is not past performance yet.
func (p *RulePack) CheckProject(proj compliance.Project, now time.Time) ProjectCheck {
	pc := ProjectCheck{Project: proj}

	switch {
	case proj.Value == nil:
		pc.Issues = append(pc.Issues, "value not stated")
	case *proj.Value < p.MinProjectValue:
		pc.Issues = append(pc.Issues, fmt.Sprintf("value %s below minimum %s", money(*proj.Value), money(p.MinProjectValue)))
	default:
		pc.MeetsBar = true
	}

	switch {
	case proj.CompletionDate == nil:
		pc.Issues = append(pc.Issues, "completion date not stated")
	default:
		earliest := now.AddDate(0, -p.RecencyMonths, 0)
		d := proj.CompletionDate.UTC()
		switch {
		case d.After(now):
			pc.Issues = append(pc.Issues, fmt.Sprintf("completes %s, after the analysis date", d.Format("2006-01-02")))
		case d.Before(earliest):
			pc.Issues = append(pc.Issues, fmt.Sprintf("completed %s, outside the %d month window", d.Format("2006-01-02"), p.RecencyMonths))
		default:
			pc.Recent = true
		}
	}

	pc.Qualifies = pc.MeetsBar && pc.Recent
	return pc
}

func evaluatePastPerformance(c *EvalContext) compliance.RuleFinding {
	m := c.Fields.Get(compliance.FieldPastPerformance)

	var projects []compliance.Project
	if m.Value != nil {
		projects = m.Value.Projects
	}

	checks := make([]ProjectCheck, 0, len(projects))
	anyMeetsBar := false
	for _, p := range projects {
		pc := c.Pack.CheckProject(p, c.Now)
		if pc.Qualifies {
			return compliance.NewFinding(RulePastPerformance, nil)
		}
		anyMeetsBar = anyMeetsBar || pc.MeetsBar
		checks = append(checks, pc)
	}

	code := compliance.CodePastPerformanceMinValue
	if anyMeetsBar {
		code = compliance.CodePastPerformanceOutdated
	}

	if reason, ok := m.AnyWithheld(); ok {
		return compliance.NewFinding(RulePastPerformance, []compliance.Problem{abstained(RulePastPerformance, code, reason,
			"past performance could not be determined with sufficient confidence")})
	}
	if m.Missing() {
		return compliance.NewFinding(RulePastPerformance, []compliance.Problem{c.missing(RulePastPerformance, code)})
	}
	if len(checks) == 0 {
		return compliance.NewFinding(RulePastPerformance, []compliance.Problem{failed(RulePastPerformance, code,
			"no past performance projects listed")})
	}

	parts := make([]string, 0, len(checks))
	for i, pc := range checks {
		parts = append(parts, fmt.Sprintf("%s: %s", projectLabel(pc.Project, i), strings.Join(pc.Issues, ", ")))
	}
	return compliance.NewFinding(RulePastPerformance, []compliance.Problem{failed(RulePastPerformance, code,
		"no qualifying project; "+strings.Join(parts, "; "))})
}

func projectLabel(p compliance.Project, i int) string {
	if p.Title != "" {
		return fmt.Sprintf("%q", p.Title)
	}
	return fmt.Sprintf("project %d", i+1)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
