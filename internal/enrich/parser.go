package enrich

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names as they appear in completion output.
const (
	FieldSentiment    = "sentiment"
	FieldEntities     = "entities"
	FieldIntent       = "intent"
	FieldPriority     = "priority"
	FieldDeliverables = "deliverables"
	FieldActionItems  = "actionItems"
)

var (
	objectFields = []string{FieldSentiment, FieldIntent, FieldPriority}
	arrayFields  = []string{FieldEntities, FieldDeliverables, FieldActionItems}
)

// Draft is the loosely typed result of parsing completion output. Nothing
// about its shape is trusted until Validate has run. A nil member means the
// field was absent or unrecoverable.
type Draft struct {
	Sentiment    Fields
	Intent       Fields
	Priority     Fields
	Entities     []Fields
	Deliverables []Fields
	ActionItems  []Fields
}

// FieldFailure records a field every recovery stage rejected.
type FieldFailure struct {
	Field   string
	Raw     string
	Reasons []string
}

// Diagnostics describes how a Draft was recovered.
type Diagnostics struct {
	// Fields maps each field found in the output to the stage that produced it.
	Fields   map[string]Stage
	Failures []FieldFailure
	// TopLevel is the stage that parsed the whole object, or StageFailed when
	// fields had to be recovered one at a time.
	TopLevel Stage
	Panic    string
}

func (d Diagnostics) HasFailures() bool {
	return len(d.Failures) > 0 || d.Panic != ""
}

// Parser turns stripped completion text into a Draft. It never fails: on
// total failure the Draft is empty and Diagnostics says why.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(text string) (draft Draft, diag Diagnostics) {
	diag.Fields = make(map[string]Stage)

	defer func() {
		if r := recover(); r != nil {
			draft = Draft{}
			diag.Panic = fmt.Sprint(r)
		}
	}()

	// Strict parse first; a clean response needs no recovery.
	if obj, err := ParseStrictObject(text); err == nil {
		diag.TopLevel = StageStrict
		return p.fromObject(obj, StageStrict, &diag), diag
	}

	if obj, stage, _ := recoverObject(text); obj != nil {
		diag.TopLevel = stage
		return p.fromObject(obj, stage, &diag), diag
	}

	diag.TopLevel = StageFailed
	return p.fromText(text, &diag), diag
}

// fromObject builds a Draft from a parsed top-level object. Fields that
// arrive as strings instead of structured values go through recovery.
func (p *Parser) fromObject(obj Fields, stage Stage, diag *Diagnostics) Draft {
	var d Draft
	for _, field := range objectFields {
		v, ok := obj[field]
		if !ok || v == nil {
			continue
		}
		var fields Fields
		switch val := v.(type) {
		case map[string]any:
			fields = val
			diag.Fields[field] = stage
		case string:
			fields = p.recoverObjectField(field, []string{val}, diag)
		default:
			diag.Fields[field] = StageFailed
			diag.Failures = append(diag.Failures, FieldFailure{
				Field:   field,
				Raw:     fmt.Sprint(val),
				Reasons: []string{fmt.Sprintf("unexpected %T", val)},
			})
		}
		d.set(field, fields, nil)
	}

	for _, field := range arrayFields {
		v, ok := obj[field]
		if !ok || v == nil {
			continue
		}
		var items []Fields
		switch val := v.(type) {
		case []any:
			items = objectsOnly(val)
			diag.Fields[field] = stage
		case map[string]any:
			items = []Fields{val}
			diag.Fields[field] = stage
		case string:
			items = p.recoverArrayField(field, []string{val}, diag)
		default:
			items = []Fields{}
			diag.Fields[field] = StageFailed
		}
		d.set(field, nil, items)
	}
	return d
}

// fromText recovers each field independently from text that does not parse
// as a whole.
func (p *Parser) fromText(text string, diag *Diagnostics) Draft {
	var d Draft
	for _, field := range objectFields {
		candidates := fieldValues(text, field)
		if len(candidates) == 0 {
			continue
		}
		d.set(field, p.recoverObjectField(field, candidates, diag), nil)
	}
	for _, field := range arrayFields {
		candidates := fieldValues(text, field)
		if len(candidates) == 0 {
			continue
		}
		d.set(field, nil, p.recoverArrayField(field, candidates, diag))
	}
	return d
}

// recoverArrayField tries each candidate value in turn. When all of them
// fail, the first one is reported.
func (p *Parser) recoverArrayField(field string, candidates []string, diag *Diagnostics) []Fields {
	var failure *FieldFailure
	for _, raw := range candidates {
		items, stage, reasons := recoverArray(raw)
		if stage != StageFailed {
			diag.Fields[field] = stage
			return items
		}
		if failure == nil {
			failure = &FieldFailure{Field: field, Raw: raw, Reasons: reasons}
		}
	}
	diag.Fields[field] = StageFailed
	diag.Failures = append(diag.Failures, *failure)
	return []Fields{}
}

func (p *Parser) recoverObjectField(field string, candidates []string, diag *Diagnostics) Fields {
	var failure *FieldFailure
	for _, raw := range candidates {
		obj, stage, reasons := recoverObject(raw)
		if stage != StageFailed {
			diag.Fields[field] = stage
			return obj
		}
		if failure == nil {
			failure = &FieldFailure{Field: field, Raw: raw, Reasons: reasons}
		}
	}
	diag.Fields[field] = StageFailed
	diag.Failures = append(diag.Failures, *failure)
	return nil
}

func (d *Draft) set(field string, obj Fields, items []Fields) {
	switch field {
	case FieldSentiment:
		d.Sentiment = obj
	case FieldIntent:
		d.Intent = obj
	case FieldPriority:
		d.Priority = obj
	case FieldEntities:
		d.Entities = items
	case FieldDeliverables:
		d.Deliverables = items
	case FieldActionItems:
		d.ActionItems = items
	}
}

// fieldValues locates every `key: value` in text that may not parse, quoted
// or bare key alike, and returns the raw values. Occurrences that sit in key
// position come first; ones inside string values, such as "priority: soon",
// follow so unbalanced quotes elsewhere cannot hide the real key.
func fieldValues(text, key string) []string {
	inString := stringMask(text)
	var keyed, loose []string
	for _, loc := range keyPattern(key).FindAllStringIndex(text, -1) {
		raw, ok := valueAt(text, loc[1])
		if !ok {
			continue
		}
		if !inString[loc[0]] && isKeyToken(text[loc[0]:loc[1]]) {
			keyed = append(keyed, raw)
		} else {
			loose = append(loose, raw)
		}
	}
	return append(keyed, loose...)
}

// isKeyToken reports whether a match like `"priority":` is a whole key: a
// leading quote must be closed by the same quote right after the name.
func isKeyToken(match string) bool {
	token := strings.TrimRight(match, " \t\r\n:")
	first, last := token[0], token[len(token)-1]
	if first == '"' || first == '\'' {
		return len(token) > 1 && last == first
	}
	return last != '"' && last != '\''
}

// stringMask marks the bytes of text that lie inside a quoted string. The
// opening quote itself is not marked. Quote tracking matches matchingClose.
func stringMask(text string) []bool {
	mask := make([]bool, len(text))
	var (
		quote  byte
		escape bool
	)
	for i := 0; i < len(text); i++ {
		b := text[i]
		if quote != 0 {
			mask[i] = true
			switch {
			case escape:
				escape = false
			case b == '\\':
				escape = true
			case b == quote:
				quote = 0
			}
			continue
		}
		if b == '"' || b == '\'' {
			quote = b
		}
	}
	return mask
}

// valueAt returns the raw value that starts after a key match ending at
// end. Bracketed values run to their matching close, or to the end of text
// when unbalanced.
func valueAt(text string, end int) (string, bool) {
	rest := strings.TrimLeft(text[end:], " \t\r\n")
	if rest == "" {
		return "", false
	}

	switch rest[0] {
	case '{', '[':
		if end := matchingClose(rest, 0); end >= 0 {
			return rest[:end+1], true
		}
		return rest, true
	case '"', '\'':
		if end := closingQuote(rest); end > 0 {
			return rest[1:end], true
		}
		return rest[1:], true
	default:
		if end := strings.IndexAny(rest, ",}\n"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
		return strings.TrimSpace(rest), true
	}
}

var keyPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, key := range append(append([]string{}, objectFields...), arrayFields...) {
		patterns[key] = regexp.MustCompile(`["']?\b` + regexp.QuoteMeta(key) + `\b["']?\s*:`)
	}
	return patterns
}()

func keyPattern(key string) *regexp.Regexp {
	return keyPatterns[key]
}

func closingQuote(s string) int {
	quote := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}
