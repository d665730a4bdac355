// Package report turns a compliance verdict into the three artifacts of an
// analysis: the compliance checklist, the internal negotiation brief and the
// client email.
//
// Selection is deterministic and done here; only the wording is delegated to
// a ProseRenderer. The client email lists decided deficiencies only, never
// anything derived from an abstained check. When the renderer fails, the
// affected section carries the text "requires human review" and is flagged,
// so no content is ever invented.
package report
