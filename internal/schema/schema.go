// Package schema declares the structured output each stage asks the model
// for, the formatting instructions embedded in the prompt, and the parser
// that reads a raw response back into named field values.
package schema

import (
	"fmt"
	"strings"

	"github.com/valpere/tear/internal/stage"
)

// Field is one named value the model must return. JSON null is rejected
// unless Nullable is set.
type Field struct {
	Name        string
	Description string
	Nullable    bool
}

// Schema is an ordered list of fields.
type Schema struct {
	name   string
	fields []Field
}

// New builds a schema. Field names must be unique.
func New(name string, fields ...Field) *Schema {
	return &Schema{name: name, fields: fields}
}

const (
	TargetField      = "Target"
	FinalTargetField = "Final Target"
	CriticalField    = "critical"
	MajorField       = "major"
	MinorField       = "minor"
)

const translationDescription = "The final translation. Please use escape characters for the quotation marks in the sentence."

var (
	// Translate holds the first-pass translation.
	Translate = New("translate", Field{Name: TargetField, Description: translationDescription})

	// Estimate holds the MQM error report, one free-text field per severity.
	Estimate = New("estimate",
		Field{Name: CriticalField, Description: "critical errors", Nullable: true},
		Field{Name: MajorField, Description: "major errors", Nullable: true},
		Field{Name: MinorField, Description: "minor errors", Nullable: true},
	)

	// Refine holds the corrected translation.
	Refine = New("refine", Field{Name: FinalTargetField, Description: translationDescription})
)

// For returns the schema bound to st.
func For(st stage.Stage) (*Schema, error) {
	switch st {
	case stage.Translate:
		return Translate, nil
	case stage.Estimate:
		return Estimate, nil
	case stage.Refine:
		return Refine, nil
	}
	return nil, fmt.Errorf("no output schema for stage %v", st)
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the declared fields.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FormatInstructions describes the expected response shape. The text is
// embedded verbatim in the rendered prompt.
func (s *Schema) FormatInstructions() string {
	var sb strings.Builder
	sb.WriteString("The output should be a markdown code snippet formatted in the following schema, including the leading and trailing \"```json\" and \"```\":\n\n")
	sb.WriteString("```json\n{\n")
	for _, f := range s.fields {
		sb.WriteString(fmt.Sprintf("\t%q: string  // %s\n", f.Name, f.Description))
	}
	sb.WriteString("}\n```")
	return sb.String()
}
