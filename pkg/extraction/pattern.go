package extraction

import (
	"context"
	"regexp"
	"strings"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/redact"
)

// Confidence assigned by the pattern extractor.
const (
	confidenceLabelled  = 0.95 // labelled value in the expected format
	confidenceStructure = 0.90 // labelled value, free format
	confidencePartial   = 0.80 // labelled value that is malformed or incomplete
	confidenceInferred  = 0.75 // value found without a label
)

var (
	ueiPattern    = regexp.MustCompile(`(?i)\bUEI\b\)?(?:\s*(?:number|#|no\.?))?(?:\s+is)?\s*[:#=-]?\s*([A-Za-z0-9-]+)`)
	ueiFormat     = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)
	dunsPattern   = regexp.MustCompile(`(?i)\bD-?U-?N-?S\b\)?(?:\s*(?:number|#|no\.?))?(?:\s+is)?\s*[:#=-]?\s*([0-9][0-9 -]*[0-9]|[A-Za-z0-9]+)`)
	dunsFormat    = regexp.MustCompile(`^[0-9]{9}$`)
	naicsLabel    = regexp.MustCompile(`(?i)\bNAICS\b`)
	naicsCode     = regexp.MustCompile(`\b[0-9]{6}\b`)
	samLabel      = regexp.MustCompile(`(?i)\bSAM(?:\.gov)?\b`)
	samSentence   = regexp.MustCompile(`(?i)\bSAM(?:\.gov)?\s+(?:registration|status)\s+(?:is\s+)?(active|inactive|expired|pending)\b`)
	entityLabel   = regexp.MustCompile(`(?im)^\s*(?:legal\s+|registered\s+)?(?:entity|company|business|contractor|offeror|vendor)(?:\s+name)?\s*:\s*(.+?)\s*$`)
	entitySkip    = regexp.MustCompile(`(?i)\b(?:profile|uei|duns|naics|sam|poc|contact|past performance|pricing)\b|:`)
	contactLabel  = regexp.MustCompile(`(?i)\b(?:POC|point of contact|contact)\b`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}|` + regexp.QuoteMeta(redact.EmailPlaceholder))
	phonePattern  = regexp.MustCompile(`\(?\b[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b|` + regexp.QuoteMeta(redact.PhonePlaceholder))
	totalPattern  = regexp.MustCompile(`(?im)^\s*(?:total\s+(?:project\s+|contract\s+)?(?:value|price|cost)|grand\s+total)\s*[:=-]\s*(.+)$`)
	laborRow      = regexp.MustCompile(`(?i)^\s*(?:[-*•]|\d+[.)])?\s*([A-Za-z][A-Za-z0-9 /&().,'-]*?)\s*(?:[:,|–-]\s*)*\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(?:/\s*|per\s+)(hour|hr|day)s?\b(.*)$`)
	laborHours    = regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]+)?)\s*(?:hours|hrs|hr|h)\b`)
	laborRowTotal = regexp.MustCompile(`(?i)(?:total\s*[:=]?|=)\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

var classKeywords = map[compliance.Classification][]string{
	compliance.ClassProfile: {
		"uei", "duns", "sam", "naics", "company profile", "entity", "cage", "point of contact",
	},
	compliance.ClassPastPerformance: {
		"past performance", "client", "contract value", "period of performance", "project", "completed", "customer",
	},
	compliance.ClassPricing: {
		"labor category", "rate", "hourly", "pricing", "price", "hours", "per hour",
	},
}

// classPatterns matches each keyword as a whole word.
var classPatterns = func() map[compliance.Classification][]*regexp.Regexp {
	out := make(map[compliance.Classification][]*regexp.Regexp, len(classKeywords))
	for class, keywords := range classKeywords {
		for _, kw := range keywords {
			out[class] = append(out[class], regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
	}
	return out
}()

var classOrder = []compliance.Classification{
	compliance.ClassProfile,
	compliance.ClassPastPerformance,
	compliance.ClassPricing,
}

var projectSpec = recordSpec{
	start: "title",
	aliases: map[string]string{
		"project":               "title",
		"project title":         "title",
		"project name":          "title",
		"contract title":        "title",
		"contract":              "title",
		"contract name":         "title",
		"client":                "client",
		"customer":              "client",
		"agency":                "client",
		"value":                 "value",
		"contract value":        "value",
		"project value":         "value",
		"amount":                "value",
		"award amount":          "value",
		"completed":             "completion",
		"completion":            "completion",
		"completion date":       "completion",
		"date completed":        "completion",
		"end date":              "completion",
		"period of performance": "completion",
		"pop":                   "completion",
		"duration":              "duration",
		"scope":                 "scope",
		"description":           "scope",
	},
}

var laborSpec = recordSpec{
	start: "category",
	aliases: map[string]string{
		"labor category":  "category",
		"category":        "category",
		"lcat":            "category",
		"role":            "category",
		"position":        "category",
		"rate":            "rate",
		"hourly rate":     "rate",
		"bill rate":       "rate",
		"price":           "rate",
		"hours":           "hours",
		"estimated hours": "hours",
		"est. hours":      "hours",
		"quantity":        "hours",
		"total":           "total",
		"extended price":  "total",
		"unit":            "unit",
	},
	row: parseLaborRow,
}

// PatternExtractor reads labelled values ("UEI: ...", "Client: ...") with
// regular expressions. It needs no network access and backs the LLM
// extractor when that is unavailable. It is safe for concurrent use.
type PatternExtractor struct{}

// NewPatternExtractor returns a pattern extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract classifies text and extracts every field it finds a label for.
// Fields without a label are omitted rather than reported empty.
func (e *PatternExtractor) Extract(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return compliance.DocumentRecord{}, err
	}

	rec := newRecord(redactedText, hint)
	rec.Classification, rec.ClassificationConfidence = classify(redactedText, hint.Name)

	extractors := []func(string) (compliance.ExtractedField, bool){
		extractUEI,
		extractDUNS,
		extractSAMStatus,
		func(text string) (compliance.ExtractedField, bool) {
			return extractEntityName(text, rec.Classification == compliance.ClassProfile)
		},
		extractNAICS,
		extractPOCEmail,
		extractPOCPhone,
		extractProjects,
		extractLabor,
		extractTotalValue,
	}
	for _, extract := range extractors {
		if f, ok := extract(redactedText); ok {
			rec.Fields = append(rec.Fields, f)
		}
	}
	return rec, nil
}

// classify scores each classification by the distinct keywords present in
// text, with a bonus for a matching document name. Confidence grows with
// the number of keywords and with the lead over the other classes.
func classify(text, name string) (compliance.Classification, float64) {
	lowerName := strings.ToLower(name)

	scores := make(map[compliance.Classification]float64, len(classOrder))
	total := 0.0
	for _, class := range classOrder {
		for _, kw := range classPatterns[class] {
			if kw.MatchString(text) {
				scores[class]++
			}
		}
		if nameMatches(class, lowerName) {
			scores[class] += 2
		}
		total += scores[class]
	}

	best := compliance.ClassUnknown
	for _, class := range classOrder {
		if scores[class] > scores[best] {
			best = class
		}
	}
	if best == compliance.ClassUnknown {
		return compliance.ClassUnknown, 0
	}

	share := scores[best] / total
	var confidence float64
	if scores[best] < 2 {
		confidence = 0.5 * share
	} else {
		confidence = 0.4 + 0.6*share
	}
	if confidence > confidenceLabelled {
		confidence = confidenceLabelled
	}
	return best, confidence
}

func nameMatches(class compliance.Classification, name string) bool {
	switch class {
	case compliance.ClassProfile:
		return strings.Contains(name, "profile")
	case compliance.ClassPastPerformance:
		return strings.Contains(name, "past") || strings.Contains(name, "performance")
	case compliance.ClassPricing:
		return strings.Contains(name, "pric") || strings.Contains(name, "rates")
	}
	return false
}

func extractUEI(text string) (compliance.ExtractedField, bool) {
	m := ueiPattern.FindStringSubmatch(text)
	if m == nil {
		return compliance.ExtractedField{}, false
	}
	value := strings.ToUpper(m[1])
	confidence := confidenceLabelled
	if !ueiFormat.MatchString(value) {
		confidence = confidencePartial
	}
	return stringField(compliance.FieldUEI, value, confidence), true
}

func extractDUNS(text string) (compliance.ExtractedField, bool) {
	m := dunsPattern.FindStringSubmatch(text)
	if m == nil {
		return compliance.ExtractedField{}, false
	}
	value := strings.NewReplacer(" ", "", "-", "").Replace(m[1])
	confidence := confidenceLabelled
	if !dunsFormat.MatchString(value) {
		confidence = confidencePartial
	}
	return stringField(compliance.FieldDUNS, value, confidence), true
}

func extractSAMStatus(text string) (compliance.ExtractedField, bool) {
	for _, line := range strings.Split(text, "\n") {
		if !samLabel.MatchString(line) {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		label := strings.ToLower(line[:idx])
		if strings.Contains(label, "uei") || strings.Contains(label, "date") || strings.Contains(label, "expir") {
			continue
		}
		value := line[idx+1:]
		if cut := strings.IndexAny(value, "(;,"); cut >= 0 {
			value = value[:cut]
		}
		if value = strings.TrimSpace(value); value != "" {
			return stringField(compliance.FieldSAMStatus, value, confidenceStructure), true
		}
	}
	if m := samSentence.FindStringSubmatch(text); m != nil {
		return stringField(compliance.FieldSAMStatus, m[1], confidenceInferred), true
	}
	return compliance.ExtractedField{}, false
}

// extractEntityName prefers a labelled name. Profiles commonly open with the
// company name, so for them the first line that is not a heading or a
// labelled value is taken at lower confidence.
func extractEntityName(text string, profile bool) (compliance.ExtractedField, bool) {
	if m := entityLabel.FindStringSubmatch(text); m != nil {
		return stringField(compliance.FieldEntityName, m[1], confidenceStructure), true
	}
	if !profile {
		return compliance.ExtractedField{}, false
	}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines) && i < 3; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || entitySkip.MatchString(line) {
			continue
		}
		return stringField(compliance.FieldEntityName, line, confidenceInferred), true
	}
	return compliance.ExtractedField{}, false
}

// extractNAICS collects six-digit codes from NAICS lines. A label line
// without codes is followed onto the next lines while they carry codes.
func extractNAICS(text string) (compliance.ExtractedField, bool) {
	var codes []string
	seen := make(map[string]bool)
	add := func(line string) int {
		found := naicsCode.FindAllString(line, -1)
		for _, c := range found {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
		return len(found)
	}

	found := false
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		if !naicsLabel.MatchString(lines[i]) {
			continue
		}
		found = true
		if add(lines[i]) > 0 {
			continue
		}
		for i+1 < len(lines) && add(lines[i+1]) > 0 {
			i++
		}
	}
	if !found {
		return compliance.ExtractedField{}, false
	}
	return compliance.ExtractedField{
		Name:       compliance.FieldNAICS,
		Value:      compliance.ListValue(codes...),
		Confidence: confidenceStructure,
	}, true
}

func extractPOCEmail(text string) (compliance.ExtractedField, bool) {
	return extractContact(text, compliance.FieldPOCEmail, emailPattern)
}

func extractPOCPhone(text string) (compliance.ExtractedField, bool) {
	return extractContact(text, compliance.FieldPOCPhone, phonePattern)
}

func extractContact(text, name string, re *regexp.Regexp) (compliance.ExtractedField, bool) {
	for _, line := range strings.Split(text, "\n") {
		if !contactLabel.MatchString(line) {
			continue
		}
		if v := re.FindString(line); v != "" {
			return stringField(name, v, confidenceStructure), true
		}
	}
	return compliance.ExtractedField{}, false
}

func extractProjects(text string) (compliance.ExtractedField, bool) {
	records := parseRecords(text, projectSpec)
	if len(records) == 0 {
		return compliance.ExtractedField{}, false
	}
	confidence := confidenceStructure
	projects := make([]compliance.Project, 0, len(records))
	for _, r := range records {
		p := compliance.Project{
			Title:          r["title"],
			Client:         r["client"],
			Value:          parseAmount(r["value"]),
			CompletionDate: parseDate(r["completion"]),
			Duration:       r["duration"],
			Scope:          r["scope"],
		}
		if p.Value == nil || p.CompletionDate == nil {
			confidence = confidencePartial
		}
		projects = append(projects, p)
	}
	return compliance.ExtractedField{
		Name:       compliance.FieldPastPerformance,
		Value:      compliance.ProjectsValue(projects...),
		Confidence: confidence,
	}, true
}

func extractLabor(text string) (compliance.ExtractedField, bool) {
	records := parseRecords(text, laborSpec)
	if len(records) == 0 {
		return compliance.ExtractedField{}, false
	}
	confidence := confidenceStructure
	labor := make([]compliance.LaborCategory, 0, len(records))
	for _, r := range records {
		lc := compliance.LaborCategory{
			Category: r["category"],
			Rate:     parseAmount(r["rate"]),
			Hours:    parseAmount(r["hours"]),
			Total:    parseAmount(r["total"]),
			Unit:     laborUnit(r["unit"], r["rate"]),
		}
		if lc.Category == "" || lc.Rate == nil {
			confidence = confidencePartial
		}
		labor = append(labor, lc)
	}
	return compliance.ExtractedField{
		Name:       compliance.FieldPricing,
		Value:      compliance.LaborValue(labor...),
		Confidence: confidence,
	}, true
}

// parseLaborRow reads an unlabelled pricing line such as
// "Senior Engineer - $125/hr - 200 hours".
func parseLaborRow(line string) (record, bool) {
	m := laborRow.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	r := record{
		"category": strings.TrimSpace(m[1]),
		"rate":     m[2],
		"unit":     m[3],
	}
	if h := laborHours.FindStringSubmatch(m[4]); h != nil {
		r["hours"] = h[1]
	}
	if t := laborRowTotal.FindStringSubmatch(m[4]); t != nil {
		r["total"] = t[1]
	}
	return r, true
}

func laborUnit(unit, rate string) string {
	s := strings.ToLower(unit + " " + rate)
	switch {
	case strings.Contains(s, "day"):
		return "Day"
	case strings.Contains(s, "hour"), strings.Contains(s, "hr"):
		return "Hour"
	}
	return strings.TrimSpace(unit)
}

func extractTotalValue(text string) (compliance.ExtractedField, bool) {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return compliance.ExtractedField{}, false
	}
	amount := parseAmount(m[1])
	if amount == nil {
		return compliance.ExtractedField{}, false
	}
	return compliance.ExtractedField{
		Name:       compliance.FieldTotalValue,
		Value:      compliance.NumberValue(*amount),
		Confidence: confidenceStructure,
	}, true
}

func stringField(name, value string, confidence float64) compliance.ExtractedField {
	return compliance.ExtractedField{
		Name:       name,
		Value:      compliance.StringValue(strings.TrimSpace(value)),
		Confidence: confidence,
	}
}
