package extraction

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/providers"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed extraction.schema.json
var extractionSchema string

const extractionSchemaURL = "extraction.schema.json"

const extractionSystemPrompt = `You are a GSA compliance analyst reviewing onboarding documents.
Classify the document and extract fields. Personal data has been replaced by placeholders such as [EMAIL_REDACTED]; report placeholders as they appear.
Give every field a confidence between 0 and 1. When you are not sure, lower the confidence and set reason instead of guessing.
Respond with valid JSON only.`

const extractionUserPrompt = `Document name: %s

Return a JSON object of the form
{"classification": {"type": "profile|past_performance|pricing|unknown", "confidence": 0.0},
 "fields": {
  "uei": {"value": "12-character UEI or null", "confidence": 0.0},
  "duns": {"value": "9-digit DUNS or null", "confidence": 0.0},
  "sam_status": {"value": "SAM registration status as written or null", "confidence": 0.0},
  "entity_name": {"value": "legal entity name or null", "confidence": 0.0},
  "poc_email": {"value": "string or null", "confidence": 0.0},
  "poc_phone": {"value": "string or null", "confidence": 0.0},
  "naics": {"value": ["6-digit codes"], "confidence": 0.0},
  "past_performance": {"value": [{"title": "", "client": "", "value": 0, "completion_date": "YYYY-MM-DD", "duration": "", "scope": ""}], "confidence": 0.0},
  "pricing": {"value": [{"labor_category": "", "rate": 0, "hours": 0, "total": 0, "unit": "Hour"}], "confidence": 0.0},
  "total_value": {"value": 0, "confidence": 0.0}
 }}
Omit fields the document does not mention. Allowed reasons: confidence_too_low, insufficient_data, conflicting_information, ambiguous_content.

Document text:
%s`

// fieldOrder fixes the order of fields in extracted records.
var fieldOrder = []string{
	compliance.FieldUEI,
	compliance.FieldDUNS,
	compliance.FieldSAMStatus,
	compliance.FieldEntityName,
	compliance.FieldNAICS,
	compliance.FieldPOCEmail,
	compliance.FieldPOCPhone,
	compliance.FieldPastPerformance,
	compliance.FieldPricing,
	compliance.FieldTotalValue,
}

// LLMExtractor asks a language model for the fields of a document and
// validates the answer against a JSON Schema before trusting any of it.
type LLMExtractor struct {
	provider    providers.Provider
	schema      *jsonschema.Schema
	model       string
	temperature float64
}

// NewLLMExtractor returns an extractor backed by provider. An empty model
// uses the provider's default.
func NewLLMExtractor(provider providers.Provider, model string) (*LLMExtractor, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &LLMExtractor{
		provider:    provider,
		schema:      schema,
		model:       model,
		temperature: 0.1,
	}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(extractionSchemaURL, strings.NewReader(extractionSchema)); err != nil {
		return nil, fmt.Errorf("failed to add extraction schema: %w", err)
	}
	schema, err := c.Compile(extractionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extraction schema: %w", err)
	}
	return schema, nil
}

// Extract sends the redacted text to the model. Provider errors are
// returned unchanged; output that fails the schema yields a ResponseError.
func (e *LLMExtractor) Extract(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error) {
	name := hint.Name
	if name == "" {
		name = "(unnamed)"
	}
	resp, err := e.provider.Complete(ctx, &providers.CompletionRequest{
		Model: e.model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: extractionSystemPrompt},
			{Role: providers.RoleUser, Content: fmt.Sprintf(extractionUserPrompt, name, redactedText)},
		},
		Temperature: e.temperature,
		JSON:        true,
	})
	if err != nil {
		return compliance.DocumentRecord{}, err
	}

	out, err := e.decode(resp.Content)
	if err != nil {
		return compliance.DocumentRecord{}, &ResponseError{Collaborator: CollaboratorExtractor, Cause: err}
	}
	return out.record(redactedText, hint)
}

type llmOutput struct {
	Classification struct {
		Type       compliance.Classification `json:"type"`
		Confidence float64                   `json:"confidence"`
	} `json:"classification"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type llmField[T any] struct {
	Value      *T                       `json:"value"`
	Confidence float64                  `json:"confidence"`
	Reason     compliance.AbstainReason `json:"reason"`
}

type llmProject struct {
	Title          *string  `json:"title"`
	Client         *string  `json:"client"`
	Value          *float64 `json:"value"`
	CompletionDate *string  `json:"completion_date"`
	Duration       *string  `json:"duration"`
	Scope          *string  `json:"scope"`
}

type llmLabor struct {
	Category *string  `json:"labor_category"`
	Rate     *float64 `json:"rate"`
	Hours    *float64 `json:"hours"`
	Total    *float64 `json:"total"`
	Unit     *string  `json:"unit"`
}

// decode validates content against the schema and then unmarshals it.
func (e *LLMExtractor) decode(content string) (*llmOutput, error) {
	raw := []byte(stripCodeFence(content))

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	var out llmOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (o *llmOutput) record(text string, hint Hint) (compliance.DocumentRecord, error) {
	rec := newRecord(text, hint)
	rec.Classification = o.Classification.Type
	rec.ClassificationConfidence = o.Classification.Confidence
	if rec.Classification == compliance.ClassUnknown {
		// No type was recognised, so there is no confidence in one.
		rec.ClassificationConfidence = 0
	}

	for _, name := range fieldOrder {
		raw, ok := o.Fields[name]
		if !ok {
			continue
		}
		f, err := convertField(name, raw)
		if err != nil {
			return compliance.DocumentRecord{}, &ResponseError{
				Collaborator: CollaboratorExtractor,
				Cause:        fmt.Errorf("field %s: %w", name, err),
			}
		}
		rec.Fields = append(rec.Fields, f)
	}
	return rec, nil
}

func convertField(name string, raw json.RawMessage) (compliance.ExtractedField, error) {
	switch name {
	case compliance.FieldNAICS:
		var f llmField[[]string]
		if err := json.Unmarshal(raw, &f); err != nil {
			return compliance.ExtractedField{}, err
		}
		var v *compliance.Value
		if f.Value != nil {
			v = compliance.ListValue(*f.Value...)
		}
		return extracted(name, v, f.Confidence, f.Reason), nil

	case compliance.FieldPastPerformance:
		var f llmField[[]llmProject]
		if err := json.Unmarshal(raw, &f); err != nil {
			return compliance.ExtractedField{}, err
		}
		var v *compliance.Value
		if f.Value != nil {
			projects := make([]compliance.Project, 0, len(*f.Value))
			for _, p := range *f.Value {
				projects = append(projects, compliance.Project{
					Title:          deref(p.Title),
					Client:         deref(p.Client),
					Value:          p.Value,
					CompletionDate: parseDate(deref(p.CompletionDate)),
					Duration:       deref(p.Duration),
					Scope:          deref(p.Scope),
				})
			}
			v = compliance.ProjectsValue(projects...)
		}
		return extracted(name, v, f.Confidence, f.Reason), nil

	case compliance.FieldPricing:
		var f llmField[[]llmLabor]
		if err := json.Unmarshal(raw, &f); err != nil {
			return compliance.ExtractedField{}, err
		}
		var v *compliance.Value
		if f.Value != nil {
			labor := make([]compliance.LaborCategory, 0, len(*f.Value))
			for _, l := range *f.Value {
				labor = append(labor, compliance.LaborCategory{
					Category: deref(l.Category),
					Rate:     l.Rate,
					Hours:    l.Hours,
					Total:    l.Total,
					Unit:     deref(l.Unit),
				})
			}
			v = compliance.LaborValue(labor...)
		}
		return extracted(name, v, f.Confidence, f.Reason), nil

	case compliance.FieldTotalValue:
		var f llmField[float64]
		if err := json.Unmarshal(raw, &f); err != nil {
			return compliance.ExtractedField{}, err
		}
		var v *compliance.Value
		if f.Value != nil {
			v = compliance.NumberValue(*f.Value)
		}
		return extracted(name, v, f.Confidence, f.Reason), nil

	default:
		var f llmField[string]
		if err := json.Unmarshal(raw, &f); err != nil {
			return compliance.ExtractedField{}, err
		}
		var v *compliance.Value
		if f.Value != nil {
			v = compliance.StringValue(strings.TrimSpace(*f.Value))
		}
		return extracted(name, v, f.Confidence, f.Reason), nil
	}
}

func extracted(name string, v *compliance.Value, confidence float64, reason compliance.AbstainReason) compliance.ExtractedField {
	return compliance.ExtractedField{Name: name, Value: v, Confidence: confidence, Reason: reason}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
