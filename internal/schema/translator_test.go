package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func contractSchema() *DatabaseSchema {
	return &DatabaseSchema{
		ID:    "db1",
		Title: "Job Applications",
		Fields: map[string]FieldSchema{
			"Name": {Name: "Name", Kind: KindTitle},
			"Status": {Name: "Status", Kind: KindEnum, Options: []Option{
				{ID: "1", Label: "Applied"}, {ID: "2", Label: "Offer"},
			}},
			"Skills": {Name: "Skills", Kind: KindMultiEnum, Options: []Option{
				{ID: "1", Label: "Go"}, {ID: "2", Label: "Python"},
			}},
			"Posted": {Name: "Posted", Kind: KindDate},
			"Salary": {Name: "Salary", Kind: KindNumber, Required: true},
			"Remote": {Name: "Remote", Kind: KindBoolean},
			"URL":    {Name: "URL", Kind: KindURL},
			"Added":  {Name: "Added", Kind: KindCreatedAt},
			"Legacy": {Name: "Legacy", Kind: KindUnsupported},
		},
		TitleField: "Name",
		URLField:   "URL",
	}
}

func TestBuildContractShape(t *testing.T) {
	c := BuildContract(contractSchema())
	if c.Name != ExtractToolName {
		t.Fatalf("tool name: got %q", c.Name)
	}

	props, ok := c.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("parameters missing properties")
	}
	if _, present := props["Added"]; present {
		t.Fatalf("system field leaked into the contract")
	}
	if _, present := props["Legacy"]; present {
		t.Fatalf("unsupported field leaked into the contract")
	}

	status := props["Status"].(map[string]any)
	enum, ok := status["enum"].([]string)
	if !ok || len(enum) != 2 || enum[0] != "Applied" {
		t.Fatalf("enum constraint: got %v", status["enum"])
	}

	skills := props["Skills"].(map[string]any)
	if skills["type"] != "array" {
		t.Fatalf("multi-enum type: got %v", skills["type"])
	}
	items := skills["items"].(map[string]any)
	if _, ok := items["enum"].([]string); !ok {
		t.Fatalf("multi-enum items missing enum constraint")
	}

	if props["Posted"].(map[string]any)["format"] != "date" {
		t.Fatalf("date field missing format constraint")
	}
	if props["Salary"].(map[string]any)["type"] != "number" {
		t.Fatalf("number field type wrong")
	}
	if props["Remote"].(map[string]any)["type"] != "boolean" {
		t.Fatalf("boolean field type wrong")
	}

	required, ok := c.Parameters["required"].([]string)
	if !ok {
		t.Fatalf("parameters missing required")
	}
	hasTitle, hasSalary := false, false
	for _, name := range required {
		if name == "Name" {
			hasTitle = true
		}
		if name == "Salary" {
			hasSalary = true
		}
	}
	if !hasTitle || !hasSalary {
		t.Fatalf("required set incomplete: %v", required)
	}
}

func TestBuildContractDeterministic(t *testing.T) {
	s := contractSchema()
	a, err := json.Marshal(BuildContract(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(BuildContract(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("contract not deterministic")
	}
}

func TestBuildInstructions(t *testing.T) {
	text := BuildInstructions(contractSchema())
	for _, want := range []string{"Job Applications", "Name", "Applied, Offer", "YYYY-MM-DD", "URL field: URL"} {
		if !strings.Contains(text, want) {
			t.Fatalf("instructions missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Added") {
		t.Fatalf("instructions mention a system field")
	}
}
