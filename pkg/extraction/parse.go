package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var amountPattern = regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k|m|mm|million|thousand)?\b`)

// parseAmount reads the first number in s, honoring thousands separators and
// k/m suffixes. It returns nil when s holds no number.
func parseAmount(s string) *float64 {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	switch strings.ToLower(m[2]) {
	case "k", "thousand":
		n *= 1_000
	case "m", "mm", "million":
		n *= 1_000_000
	}
	return &n
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
	"01/2006",
	"1/2006",
}

var rangeSeparator = regexp.MustCompile(`\s+(?:-|–|to|through|until)\s+`)

// parseDate reads a calendar date. For a range such as "Jan 2022 - Mar 2024"
// the end of the range is returned. Month-only dates resolve to the first of
// the month. Open ranges ("present", "ongoing") and unparseable text yield
// nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
	if s == "" {
		return nil
	}
	parts := rangeSeparator.Split(s, -1)
	last := strings.TrimSpace(parts[len(parts)-1])
	if t, ok := parseDateLayouts(last); ok {
		return &t
	}
	if t, ok := parseDateLayouts(s); ok {
		return &t
	}
	return nil
}

func parseDateLayouts(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// record is one block of labelled values, keyed by canonical field name.
type record map[string]string

type segment struct {
	key   string
	value string
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// segments splits a line into "key: value" pairs. Pairs may share a line
// when separated by "|" or ";".
func segments(line string) []segment {
	var out []segment
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == '|' || r == ';' }) {
		idx := strings.Index(part, ":")
		if idx <= 0 {
			continue
		}
		key := normalizeKey(part[:idx])
		if key == "" || len(key) > 40 {
			continue
		}
		out = append(out, segment{key: key, value: strings.TrimSpace(part[idx+1:])})
	}
	return out
}

func normalizeKey(k string) string {
	k = bulletPrefix.ReplaceAllString(k, "")
	k = strings.TrimRight(strings.TrimSpace(k), "#")
	return strings.Join(strings.Fields(strings.ToLower(k)), " ")
}

// recordSpec describes one kind of repeated block, such as a project or a
// labor category.
type recordSpec struct {
	// aliases maps normalized labels to canonical keys.
	aliases map[string]string

	// start is the canonical key that opens a new record.
	start string

	// row parses an unlabelled line into a complete record.
	row func(line string) (record, bool)
}

// parseRecords collects the records described by spec in document order. A
// record ends at a blank line or where the next one starts; labels seen
// before any start label are ignored.
func parseRecords(text string, spec recordSpec) []record {
	var (
		out []record
		cur record
	)
	flush := func() {
		if cur != nil {
			out = append(out, cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		matched := false
		for _, seg := range segments(line) {
			canon, ok := spec.aliases[seg.key]
			if !ok {
				continue
			}
			matched = true
			if canon == spec.start {
				flush()
				cur = record{}
			}
			if cur == nil {
				continue
			}
			if _, dup := cur[canon]; !dup && seg.value != "" {
				cur[canon] = seg.value
			}
		}
		if matched || spec.row == nil {
			continue
		}
		if r, ok := spec.row(line); ok {
			flush()
			out = append(out, r)
		}
	}
	flush()
	return out
}
