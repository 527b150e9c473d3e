package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/valpere/tear/internal/postprocess"
)

// Value is a parsed field. Null is set when the model answered JSON null.
type Value struct {
	Text string
	Null bool
}

// Values maps field names to parsed values.
type Values map[string]Value

// Text returns the text of field name, or "" when it is null or unknown.
func (v Values) Text(name string) string {
	return v[name].Text
}

// ParseError reports a response that does not carry the declared fields.
type ParseError struct {
	Schema  string
	Missing []string
	Reason  string
	Raw     string
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s output: missing field(s) %s", e.Schema, strings.Join(quoteAll(e.Missing), ", "))
	}
	return fmt.Sprintf("%s output: %s", e.Schema, e.Reason)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

var fencedRe = regexp.MustCompile("(?s)```[A-Za-z]*[ \t]*\\n?(.*?)```")

// Parse extracts every declared field from a raw model response. Surrounding
// prose, code fences, reasoning blocks and raw newlines inside strings are
// tolerated. Malformed JSON or a field that cannot be located is a *ParseError.
func (s *Schema) Parse(raw string) (Values, error) {
	candidate, ok := locateObject(postprocess.StripReasoning(raw))
	if !ok {
		return nil, &ParseError{Schema: s.name, Reason: "no JSON object found", Raw: raw}
	}

	candidate = escapeControls(candidate)
	if !gjson.Valid(candidate) {
		return nil, &ParseError{Schema: s.name, Reason: "malformed JSON object", Raw: raw}
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return nil, &ParseError{Schema: s.name, Reason: "response is not a JSON object", Raw: raw}
	}

	found := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		found[key.String()] = value
		return true
	})

	values := make(Values, len(s.fields))
	var missing []string
	for _, f := range s.fields {
		r, ok := found[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if r.Type == gjson.Null && !f.Nullable {
			return nil, &ParseError{Schema: s.name, Reason: fmt.Sprintf("field %q is null", f.Name), Raw: raw}
		}
		values[f.Name] = toValue(r)
	}
	if len(missing) > 0 {
		return nil, &ParseError{Schema: s.name, Missing: missing, Raw: raw}
	}
	return values, nil
}

func toValue(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Value{Null: true}
	case gjson.String:
		return Value{Text: r.String()}
	default:
		return Value{Text: r.Raw}
	}
}

// locateObject returns the JSON object text inside raw: the last fenced
// block holding one, else the span from the first '{' to the last '}'.
func locateObject(raw string) (string, bool) {
	blocks := fencedRe.FindAllStringSubmatch(raw, -1)
	for i := len(blocks) - 1; i >= 0; i-- {
		if obj, ok := braceSpan(blocks[i][1]); ok {
			return obj, true
		}
	}
	return braceSpan(raw)
}

func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// escapeControls escapes raw control characters inside JSON strings. Models
// often break a long translation over several lines without escaping.
func escapeControls(obj string) string {
	var sb strings.Builder
	sb.Grow(len(obj))
	inString, escaped := false, false
	for i := 0; i < len(obj); i++ {
		c := obj[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c < 0x20:
			switch c {
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			case '\t':
				sb.WriteString(`\t`)
			default:
				fmt.Fprintf(&sb, `\u%04x`, c)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
