// Package rules evaluates onboarding documents against a versioned rule
// pack.
//
// A RulePack is an immutable value holding the rule parameters (abstain
// threshold, minimum project value, recency window, active SAM statuses,
// NAICS to SIN table) and the ordered list of rules R1 to R5:
//
//   - R1 Identity & Registry: UEI, DUNS, SAM status and entity name agreement
//   - R2 NAICS & SIN Mapping: every NAICS code maps to a SIN
//   - R3 Past Performance: one recent project above the value bar
//   - R4 Pricing & Catalog: one complete labor category
//   - R5 Submission Hygiene: no manifest PII left in redacted text
//
// Fields are gated by the abstain package and merged across documents before
// any rule runs. A rule never sees a value whose confidence is below the
// threshold; checks that depend on such a value report an abstained problem
// and the finding status becomes abstain unless another check failed.
//
// Basic usage:
//
//	ev := rules.NewEvaluator(rules.DefaultPack())
//	verdict, err := ev.Evaluate(docs)
//
// Packs can be loaded from YAML with LoadPack and served through a Registry
// that swaps packs atomically on reload.
package rules
