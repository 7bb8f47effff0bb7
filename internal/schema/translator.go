package schema

import (
	"fmt"
	"strings"
)

// ToolContract is the machine-callable extraction contract handed to the
// language model as a function/tool definition.
type ToolContract struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ExtractToolName is the function the model is instructed to always call.
const ExtractToolName = "extract_job_info"

// BuildContract converts a schema snapshot into a JSON-shape tool contract.
// Pure function of the snapshot: no I/O, deterministic output (fields are
// emitted in sorted name order). System-managed fields are excluded and the
// title field is always required.
func BuildContract(s *DatabaseSchema) ToolContract {
	properties := make(map[string]any)
	var required []string

	for _, name := range s.FieldNames() {
		f := s.Fields[name]
		if f.Kind.System() || f.Kind == KindUnsupported {
			continue
		}
		properties[name] = fieldShape(f)
		if f.Required || f.Kind == KindTitle {
			required = append(required, name)
		}
	}

	return ToolContract{
		Name: ExtractToolName,
		Description: fmt.Sprintf(
			"Extract structured job posting information from web page content for the %q database. "+
				"Required fields must have values. Enum fields must use one of the given options. "+
				"Dates use YYYY-MM-DD. Leave a field empty when the page does not state it.",
			s.Title),
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

func fieldShape(f FieldSchema) map[string]any {
	shape := map[string]any{"description": fieldDescription(f)}
	switch f.Kind {
	case KindNumber:
		shape["type"] = "number"
	case KindBoolean:
		shape["type"] = "boolean"
	case KindMultiEnum:
		shape["type"] = "array"
		items := map[string]any{"type": "string"}
		if labels := f.OptionLabels(); len(labels) > 0 {
			items["enum"] = labels
		}
		shape["items"] = items
	case KindEnum:
		shape["type"] = "string"
		if labels := f.OptionLabels(); len(labels) > 0 {
			shape["enum"] = labels
		}
	case KindDate:
		shape["type"] = "string"
		shape["format"] = "date"
	case KindURL:
		shape["type"] = "string"
		shape["format"] = "uri"
	case KindEmail:
		shape["type"] = "string"
		shape["format"] = "email"
	default:
		shape["type"] = "string"
	}
	return shape
}

func fieldDescription(f FieldSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s field", f.Name)
	switch f.Kind {
	case KindTitle:
		b.WriteString(". Primary title, required")
	case KindEnum:
		b.WriteString(". Single choice, pick one of the given options")
	case KindMultiEnum:
		b.WriteString(". Multiple choice, pick any of the given options")
	case KindDate:
		b.WriteString(". Date in YYYY-MM-DD format")
	case KindURL:
		b.WriteString(". Must be a valid URL")
	case KindEmail:
		b.WriteString(". Must be a valid email address")
	case KindBoolean:
		b.WriteString(". true or false")
	case KindText:
		b.WriteString(". Free text, may span multiple lines")
	}
	if labels := f.OptionLabels(); len(labels) > 0 {
		preview := labels
		more := ""
		if len(preview) > 5 {
			preview = preview[:5]
			more = fmt.Sprintf(" and %d more", len(labels)-5)
		}
		fmt.Fprintf(&b, ". Options include: %s%s", strings.Join(preview, ", "), more)
	}
	return b.String()
}

// BuildInstructions renders the same contract as a natural-language system
// prompt. Pure and deterministic like BuildContract.
func BuildInstructions(s *DatabaseSchema) string {
	var required, enums []string
	for _, name := range s.FieldNames() {
		f := s.Fields[name]
		if f.Kind.System() || f.Kind == KindUnsupported {
			continue
		}
		if f.Required || f.Kind == KindTitle {
			required = append(required, name)
		}
		if labels := f.OptionLabels(); len(labels) > 0 {
			enums = append(enums, fmt.Sprintf("- %s: %s", name, strings.Join(labels, ", ")))
		}
	}

	var b strings.Builder
	b.WriteString("You are a job posting extraction assistant. Extract structured job information ")
	fmt.Fprintf(&b, "from web page content to fill the %q database.\n\n", s.Title)
	fmt.Fprintf(&b, "Title field: %s\n", s.TitleField)
	if s.URLField != "" {
		fmt.Fprintf(&b, "URL field: %s (always set to the original page URL)\n", s.URLField)
	}
	if len(required) > 0 {
		fmt.Fprintf(&b, "\nRequired fields: %s\n", strings.Join(required, ", "))
	}
	if len(enums) > 0 {
		b.WriteString("\nChoice fields and their options:\n")
		b.WriteString(strings.Join(enums, "\n"))
		b.WriteString("\n")
	}
	b.WriteString(`
Extraction rules:
1. Follow the field definitions exactly.
2. Required fields must have values.
3. Choice fields must use one of the given options, never invent new ones.
4. Dates use the YYYY-MM-DD format.
5. For requirements-style fields, gather education, experience, skill and
   certification requirements even when they are scattered across sections.
6. Leave a field empty when the page does not state the information.`)
	return b.String()
}
