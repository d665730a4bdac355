// Package extraction turns redacted onboarding documents into
// confidence-annotated field records for the compliance engine.
//
// Two extractors are provided. PatternExtractor reads labelled lines with
// regular expressions and never leaves the process. LLMExtractor asks a
// language model and rejects any answer that does not match the extraction
// JSON Schema. WithFallback combines them: when the model fails, times out
// or answers badly the pattern extractor takes over, and when no fallback is
// left the failure surfaces as a compliance.CollaboratorUnavailableError.
//
// The package also provides the model-backed report.ProseRenderer used for
// the brief and client email, with the same fallback decorator.
//
// Extractors only ever see redacted text. Confidence values follow the
// engine's abstention threshold: anything the extractor is unsure of should
// be reported below 0.70 rather than guessed.
package extraction
