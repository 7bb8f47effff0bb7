package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

// Outcome classifies what normalization did with one field.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeCoerced Outcome = "coerced"
	OutcomeInvalid Outcome = "invalid"
	OutcomeEmpty   Outcome = "empty"
)

// FieldResult is the diagnostic trail for one field.
type FieldResult struct {
	Field   string  `json:"field"`
	Input   any     `json:"input,omitempty"`
	Output  any     `json:"output,omitempty"`
	Outcome Outcome `json:"outcome"`
	Note    string  `json:"note,omitempty"`
}

// Record is the store-ready payload plus per-field outcomes. OK iff no field
// came out invalid, at least one field produced a payload entry, and the
// title field is among them.
type Record struct {
	Payload      map[string]any `json:"payload"`
	FieldResults []FieldResult  `json:"field_results"`
	OK           bool           `json:"ok"`
	ErrorCount   int            `json:"error_count"`
	WarningCount int            `json:"warning_count"`
}

type Config struct {
	// FuzzyThreshold is the minimum 0-100 similarity for accepting a near-miss
	// enum value. Values at the threshold are accepted.
	FuzzyThreshold float64
	// MaxTextLength truncates free-text fields; 0 means the default of 2000.
	MaxTextLength int
	// StrictMode disables fuzzy enum matching entirely.
	StrictMode bool
}

// Normalizer coerces raw extracted values into the types and vocabularies the
// schema demands. Pure per-field transforms, no I/O.
type Normalizer struct {
	log       *logger.Logger
	threshold float64
	maxText   int
	strict    bool
}

func NewNormalizer(log *logger.Logger, cfg Config) *Normalizer {
	threshold := cfg.FuzzyThreshold
	if threshold <= 0 {
		threshold = 70
	}
	maxText := cfg.MaxTextLength
	if maxText <= 0 {
		maxText = 2000
	}
	return &Normalizer{
		log:       log.With("service", "Normalizer"),
		threshold: threshold,
		maxText:   maxText,
		strict:    cfg.StrictMode,
	}
}

var (
	urlPattern   = regexp.MustCompile(`^https?://[^\s]+\.[^\s]+$`)
	bareDomain   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}(/[^\s]*)?$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s().-]{7,}$`)
	multiSplit   = regexp.MustCompile(`[,;|\n，]`)
)

// Normalize walks every schema field, coerces the matching raw value and
// shapes it for the store's wire format. Fields are processed in deterministic
// name order.
func (n *Normalizer) Normalize(raw map[string]any, s *schema.DatabaseSchema) Record {
	rec := Record{Payload: make(map[string]any)}

	for _, name := range s.FieldNames() {
		f := s.Fields[name]
		if f.Kind.System() || f.Kind == schema.KindUnsupported {
			continue
		}

		value, present := raw[name]
		if !present || isEmpty(value) {
			rec.FieldResults = append(rec.FieldResults, FieldResult{Field: name, Outcome: OutcomeEmpty})
			continue
		}

		fr := n.normalizeField(f, value)
		rec.FieldResults = append(rec.FieldResults, fr)
		switch fr.Outcome {
		case OutcomeInvalid:
			rec.ErrorCount++
		case OutcomeCoerced:
			rec.WarningCount++
			rec.Payload[name] = wireValue(f.Kind, fr.Output)
		case OutcomeValid:
			rec.Payload[name] = wireValue(f.Kind, fr.Output)
		}
	}

	_, hasTitle := rec.Payload[s.TitleField]
	rec.OK = rec.ErrorCount == 0 && len(rec.Payload) > 0 && hasTitle
	if !rec.OK {
		n.log.Warn("normalization rejected record",
			"errors", rec.ErrorCount,
			"payload_fields", len(rec.Payload),
			"has_title", hasTitle)
	}
	return rec
}

func (n *Normalizer) normalizeField(f schema.FieldSchema, value any) FieldResult {
	fr := FieldResult{Field: f.Name, Input: value}
	switch f.Kind {
	case schema.KindTitle, schema.KindText:
		n.coerceText(&fr)
	case schema.KindEnum:
		n.coerceEnum(&fr, f.OptionLabels())
	case schema.KindMultiEnum:
		n.coerceMultiEnum(&fr, f.OptionLabels())
	case schema.KindDate:
		coerceDate(&fr)
	case schema.KindNumber:
		coerceNumber(&fr)
	case schema.KindBoolean:
		coerceBoolean(&fr)
	case schema.KindURL:
		coerceURL(&fr)
	case schema.KindEmail:
		coercePattern(&fr, emailPattern, "not a valid email address")
	case schema.KindPhone:
		coercePattern(&fr, phonePattern, "not a valid phone number")
	default:
		n.coerceText(&fr)
	}
	return fr
}

func (n *Normalizer) coerceText(fr *FieldResult) {
	s := strings.TrimSpace(stringify(fr.Input))
	runes := []rune(s)
	if len(runes) > n.maxText {
		// The marker only fits when the limit leaves room for it.
		out := string(runes[:n.maxText])
		if n.maxText > 3 {
			out = string(runes[:n.maxText-3]) + "..."
		}
		fr.Output = out
		fr.Outcome = OutcomeCoerced
		fr.Note = fmt.Sprintf("truncated from %d to %d characters", len(runes), n.maxText)
		return
	}
	fr.Output = s
	fr.Outcome = OutcomeValid
}

func (n *Normalizer) coerceEnum(fr *FieldResult, options []string) {
	input := strings.TrimSpace(stringify(fr.Input))
	for _, opt := range options {
		if opt == input {
			fr.Output = opt
			fr.Outcome = OutcomeValid
			return
		}
	}
	if !n.strict {
		if match, score := bestMatch(input, options); score >= n.threshold {
			fr.Output = match
			fr.Outcome = OutcomeCoerced
			fr.Note = fmt.Sprintf("%q matched option %q (similarity %.0f)", input, match, score)
			return
		}
	}
	fr.Outcome = OutcomeInvalid
	fr.Note = fmt.Sprintf("%q is not one of the allowed options", input)
}

func (n *Normalizer) coerceMultiEnum(fr *FieldResult, options []string) {
	var tokens []string
	switch v := fr.Input.(type) {
	case []any:
		for _, item := range v {
			tokens = append(tokens, stringify(item))
		}
	case []string:
		tokens = v
	default:
		tokens = multiSplit.Split(stringify(fr.Input), -1)
	}

	var matched []string
	var rejected []string
	fuzzed := false
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		exact := false
		for _, opt := range options {
			if opt == tok {
				matched = append(matched, opt)
				exact = true
				break
			}
		}
		if exact {
			continue
		}
		if !n.strict {
			if match, score := bestMatch(tok, options); score >= n.threshold {
				matched = append(matched, match)
				fuzzed = true
				continue
			}
		}
		rejected = append(rejected, tok)
	}

	if len(matched) == 0 {
		fr.Outcome = OutcomeInvalid
		fr.Note = "no token matched an allowed option"
		return
	}
	fr.Output = matched
	if fuzzed || len(rejected) > 0 {
		fr.Outcome = OutcomeCoerced
		if len(rejected) > 0 {
			fr.Note = fmt.Sprintf("dropped unmatched tokens: %s", strings.Join(rejected, ", "))
		}
		return
	}
	fr.Outcome = OutcomeValid
}

var dateAlternates = []string{"2006/01/02", "2006.01.02", "02-01-2006", "02/01/2006"}

func coerceDate(fr *FieldResult) {
	s := strings.TrimSpace(stringify(fr.Input))
	if lower := strings.ToLower(s); lower == "today" || lower == "今天" {
		fr.Output = time.Now().Format("2006-01-02")
		fr.Outcome = OutcomeCoerced
		fr.Note = "relative date resolved"
		return
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		fr.Output = t.Format("2006-01-02")
		fr.Outcome = OutcomeValid
		return
	}
	for _, layout := range dateAlternates {
		if t, err := time.Parse(layout, s); err == nil {
			fr.Output = t.Format("2006-01-02")
			fr.Outcome = OutcomeCoerced
			fr.Note = fmt.Sprintf("reformatted from %q", s)
			return
		}
	}
	fr.Outcome = OutcomeInvalid
	fr.Note = fmt.Sprintf("%q is not a recognized date", s)
}

var numberCleaner = strings.NewReplacer(",", "", "¥", "", "$", "", "€", "", "£", "", " ", "")

func coerceNumber(fr *FieldResult) {
	switch v := fr.Input.(type) {
	case float64:
		fr.Output = v
		fr.Outcome = OutcomeValid
		return
	case int:
		fr.Output = float64(v)
		fr.Outcome = OutcomeValid
		return
	}
	s := numberCleaner.Replace(strings.TrimSpace(stringify(fr.Input)))
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		fr.Output = float64(i)
		fr.Outcome = OutcomeCoerced
		fr.Note = "parsed from string"
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		fr.Output = f
		fr.Outcome = OutcomeCoerced
		fr.Note = "parsed from string"
		return
	}
	fr.Outcome = OutcomeInvalid
	fr.Note = fmt.Sprintf("%v is not a number", fr.Input)
}

var (
	truthy = map[string]bool{"true": true, "yes": true, "是": true, "1": true, "on": true, "enabled": true, "启用": true}
	falsy  = map[string]bool{"false": true, "no": true, "否": true, "0": true, "off": true, "disabled": true, "禁用": true}
)

func coerceBoolean(fr *FieldResult) {
	if b, ok := fr.Input.(bool); ok {
		fr.Output = b
		fr.Outcome = OutcomeValid
		return
	}
	s := strings.ToLower(strings.TrimSpace(stringify(fr.Input)))
	switch {
	case truthy[s]:
		fr.Output = true
		fr.Outcome = OutcomeCoerced
	case falsy[s]:
		fr.Output = false
		fr.Outcome = OutcomeCoerced
	default:
		fr.Outcome = OutcomeInvalid
		fr.Note = fmt.Sprintf("%q is not a recognized boolean", s)
	}
}

func coerceURL(fr *FieldResult) {
	s := strings.TrimSpace(stringify(fr.Input))
	if urlPattern.MatchString(s) {
		fr.Output = s
		fr.Outcome = OutcomeValid
		return
	}
	if bareDomain.MatchString(s) {
		candidate := "https://" + s
		if urlPattern.MatchString(candidate) {
			fr.Output = candidate
			fr.Outcome = OutcomeCoerced
			fr.Note = "default scheme added"
			return
		}
	}
	fr.Outcome = OutcomeInvalid
	fr.Note = fmt.Sprintf("%q is not a valid URL", s)
}

func coercePattern(fr *FieldResult, pattern *regexp.Regexp, failNote string) {
	s := strings.TrimSpace(stringify(fr.Input))
	if pattern.MatchString(s) {
		fr.Output = s
		fr.Outcome = OutcomeValid
		return
	}
	fr.Outcome = OutcomeInvalid
	fr.Note = failNote
}

// wireValue shapes a normalized value for the store's property format.
func wireValue(kind schema.FieldKind, value any) any {
	switch kind {
	case schema.KindTitle:
		return map[string]any{"title": []any{map[string]any{"text": map[string]any{"content": value}}}}
	case schema.KindText:
		return map[string]any{"rich_text": []any{map[string]any{"text": map[string]any{"content": value}}}}
	case schema.KindEnum:
		return map[string]any{"name": value}
	case schema.KindMultiEnum:
		labels, _ := value.([]string)
		out := make([]any, 0, len(labels))
		for _, l := range labels {
			out = append(out, map[string]any{"name": l})
		}
		return out
	case schema.KindDate:
		return map[string]any{"start": value}
	default:
		return value
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
