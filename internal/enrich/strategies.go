package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Stage names the recovery step that produced a value.
type Stage string

const (
	StageStrict    Stage = "strict"
	StageLenient   Stage = "lenient"
	StageRepair    Stage = "repair"
	StageFragments Stage = "fragments"
	StageFailed    Stage = "failed"
)

// ErrNoFragments is returned when fragment extraction finds nothing usable.
var ErrNoFragments = errors.New("no parseable brace fragments")

// Fields is one loosely typed object from completion output.
type Fields map[string]any

// arrayStrategy recovers a list of objects from raw field text.
type arrayStrategy struct {
	stage Stage
	parse func(raw string) ([]Fields, error)
}

// objectStrategy recovers a single object from raw text.
type objectStrategy struct {
	stage Stage
	parse func(raw string) (Fields, error)
}

// arrayChain is tried in order; the first success wins.
var arrayChain = []arrayStrategy{
	{stage: StageLenient, parse: ParseLenientArray},
	{stage: StageRepair, parse: ParseRepairedArray},
	{stage: StageFragments, parse: ExtractFragments},
}

var objectChain = []objectStrategy{
	{stage: StageStrict, parse: ParseStrictObject},
	{stage: StageLenient, parse: ParseLenientObject},
	{stage: StageRepair, parse: ParseRepairedObject},
}

// recoverArray runs arrayChain over raw. On total failure it returns a nil
// slice, StageFailed and one reason per strategy.
func recoverArray(raw string) ([]Fields, Stage, []string) {
	reasons := make([]string, 0, len(arrayChain))
	for _, s := range arrayChain {
		items, err := s.parse(raw)
		if err == nil {
			return items, s.stage, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", s.stage, err))
	}
	return nil, StageFailed, reasons
}

func recoverObject(raw string) (Fields, Stage, []string) {
	reasons := make([]string, 0, len(objectChain))
	for _, s := range objectChain {
		obj, err := s.parse(raw)
		if err == nil {
			return obj, s.stage, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", s.stage, err))
	}
	return nil, StageFailed, reasons
}

// ParseStrictObject parses raw as strict JSON and requires an object.
func ParseStrictObject(raw string) (Fields, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, err
	}
	return asObject(v)
}

// ParseLenientObject parses the outermost brace-delimited object in raw
// with the JSON5 grammar (unquoted keys, single quotes, trailing commas).
func ParseLenientObject(raw string) (Fields, error) {
	var v any
	if err := json5.Unmarshal([]byte(outermostObject(raw)), &v); err != nil {
		return nil, err
	}
	return asObject(v)
}

// ParseRepairedObject applies RepairSyntax to the outermost object and
// parses the result strictly.
func ParseRepairedObject(raw string) (Fields, error) {
	return ParseStrictObject(RepairSyntax(outermostObject(raw)))
}

// ParseLenientArray wraps raw in brackets, dropping any it already has, and
// parses it with the JSON5 grammar.
func ParseLenientArray(raw string) ([]Fields, error) {
	var items []any
	if err := json5.Unmarshal([]byte(bracketed(raw)), &items); err != nil {
		return nil, err
	}
	return objectsOnly(items), nil
}

// ParseRepairedArray is ParseLenientArray with RepairSyntax and a strict parser.
func ParseRepairedArray(raw string) ([]Fields, error) {
	var items []any
	if err := json.Unmarshal([]byte(RepairSyntax(bracketed(raw))), &items); err != nil {
		return nil, err
	}
	return objectsOnly(items), nil
}

var fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)

// ExtractFragments parses every flat brace-delimited fragment in raw on its
// own. Fragments that still fail after repair are skipped.
func ExtractFragments(raw string) ([]Fields, error) {
	var items []Fields
	for _, fragment := range fragmentPattern.FindAllString(raw, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(RepairSyntax(fragment)), &obj); err != nil {
			continue
		}
		if obj != nil {
			items = append(items, obj)
		}
	}
	if len(items) == 0 {
		return nil, ErrNoFragments
	}
	return items, nil
}

var (
	bareKey       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// RepairSyntax applies the fixed textual repairs, in order: collapse
// newlines and whitespace runs, quote bare keys, turn single quotes into
// double quotes, drop trailing commas.
func RepairSyntax(raw string) string {
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	s = bareKey.ReplaceAllString(s, `$1"$2":`)
	s = strings.ReplaceAll(s, "'", `"`)
	return trailingComma.ReplaceAllString(s, "$1")
}

func bracketed(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return "[" + s + "]"
}

// outermostObject returns raw from its first '{' to the matching '}', or to
// the end of raw when braces never balance. Quoted text is skipped.
func outermostObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return strings.TrimSpace(raw)
	}
	end := matchingClose(raw, start)
	if end < 0 {
		return raw[start:]
	}
	return raw[start : end+1]
}

// matchingClose returns the index of the bracket closing the one at open,
// or -1. Both quote styles delimit strings.
func matchingClose(s string, open int) int {
	var (
		depth  int
		quote  byte
		escape bool
	)
	for i := open; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if quote != 0 {
			if b == '\\' {
				escape = true
			} else if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '"', '\'':
			quote = b
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func asObject(v any) (Fields, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return obj, nil
}

// objectsOnly keeps non-null object entries and drops everything else.
func objectsOnly(items []any) []Fields {
	out := make([]Fields, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
