// Package prompt renders the per-stage prompt templates.
//
// Templates use "{name}" placeholders. "{{" and "}}" render as literal braces,
// so JSON snippets can be written inside a template. Rendering is strict: a
// placeholder with no supplied value is an error, never left in the output.
package prompt

import (
	"fmt"
	"strings"
)

// MissingValueError is returned by Render when a placeholder present in the
// template has no value.
type MissingValueError struct {
	Template    string
	Placeholder string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("template %s: no value for placeholder {%s}", e.Template, e.Placeholder)
}

type segment struct {
	text        string
	placeholder bool
}

// Template is a parsed prompt template. It is immutable and safe for
// concurrent use.
type Template struct {
	name     string
	segments []segment
	names    []string
}

// Parse splits raw into literal text and placeholders.
func Parse(name, raw string) (*Template, error) {
	t := &Template{name: name}
	seen := make(map[string]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end := placeholderEnd(raw, i+1)
			if end < 0 {
				lit.WriteByte(c)
				i++
				continue
			}
			flush()
			ph := raw[i+1 : end]
			t.segments = append(t.segments, segment{text: ph, placeholder: true})
			if !seen[ph] {
				seen[ph] = true
				t.names = append(t.names, ph)
			}
			i = end + 1
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	if len(t.segments) == 0 {
		return nil, fmt.Errorf("template %s is empty", name)
	}
	return t, nil
}

// placeholderEnd returns the index of the closing brace of an identifier
// starting at start, or -1 when raw[start:] does not begin with one.
func placeholderEnd(raw string, start int) int {
	for j := start; j < len(raw); j++ {
		c := raw[j]
		switch {
		case c == '}':
			if j == start {
				return -1
			}
			return j
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && j > start:
		default:
			return -1
		}
	}
	return -1
}

// Name returns the resource name the template was loaded from.
func (t *Template) Name() string { return t.name }

// Placeholders returns the placeholder names in first-appearance order.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render substitutes every placeholder with its value. Values for names the
// template does not use are ignored.
func (t *Template) Render(values map[string]string) (string, error) {
	var sb strings.Builder
	for _, seg := range t.segments {
		if !seg.placeholder {
			sb.WriteString(seg.text)
			continue
		}
		v, ok := values[seg.text]
		if !ok {
			return "", &MissingValueError{Template: t.name, Placeholder: seg.text}
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}
