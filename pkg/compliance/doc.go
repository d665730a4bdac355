// Package compliance defines the value types shared by the compliance rule
// engine: extracted fields, document records, rule findings and the overall
// verdict.
//
// # Data Flow
//
// Documents are redacted and run through a field extractor before they reach
// this package. Each extracted field carries a confidence score in [0,1]. The
// abstain package clears any value whose confidence is below the configured
// threshold, the rules package evaluates R1..R5 over the cleaned field set,
// and the report package selects what goes into the checklist, the internal
// negotiation brief and the client email.
//
//	docs := []compliance.DocumentRecord{profile, pricing}
//	verdict, err := evaluator.Evaluate(docs)
//	if err != nil {
//	    var verr *compliance.ValidationError
//	    if errors.As(err, &verr) {
//	        // reject the request before any rule runs
//	    }
//	}
//	if !verdict.RequiredOK {
//	    // at least one rule failed
//	}
//
// # Outcomes
//
// Every rule produces exactly one RuleFinding with status pass, fail or
// abstain. Abstain means the engine did not have enough confidence to decide;
// it never fails the verdict but it is always surfaced and is never treated as
// a pass.
//
// All types in this package are plain values. They are built once per
// analysis request and never mutated afterwards, so they are safe to share
// between goroutines.
package compliance
