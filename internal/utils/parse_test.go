package utils

import "testing"

type modelDetails struct {
	Model struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"model"`
}

func TestParseStringAs_Primitives(t *testing.T) {
	if got, err := ParseStringAs[string]("plain"); err != nil || got != "plain" {
		t.Errorf("string: got %q, %v", got, err)
	}
	if got, err := ParseStringAs[int]("42"); err != nil || got != 42 {
		t.Errorf("int: got %d, %v", got, err)
	}
	if got, err := ParseStringAs[bool]("true"); err != nil || !got {
		t.Errorf("bool: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[float64]("2.5"); err != nil || got != 2.5 {
		t.Errorf("float: got %v, %v", got, err)
	}
	if _, err := ParseStringAs[int]("not a number"); err == nil {
		t.Error("expected an error parsing a non-numeric int")
	}
}

func TestParseStringAs_Struct(t *testing.T) {
	details, err := ParseStringAs[modelDetails](`{"model": {"name": "gpt-4o", "version": "2024-08-06"}}`)
	if err != nil {
		t.Fatalf("ParseStringAs returned unexpected error: %v", err)
	}
	if details.Model.Name != "gpt-4o" || details.Model.Version != "2024-08-06" {
		t.Errorf("parsed model: got %+v", details.Model)
	}
}

// TestParseStringAs_RepairsSloppyJSON covers the jsonrepair fallback: gateway
// metadata sometimes arrives with single quotes or unquoted keys.
func TestParseStringAs_RepairsSloppyJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"single quotes", `{'model': {'name': 'claude-3-5-sonnet', 'version': '20241022'}}`},
		{"unquoted keys", `{model: {name: 'claude-3-5-sonnet', version: '20241022'}}`},
		{"trailing comma", `{"model": {"name": "claude-3-5-sonnet", "version": "20241022",}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := ParseStringAs[modelDetails](tt.content)
			if err != nil {
				t.Fatalf("ParseStringAs returned unexpected error: %v", err)
			}
			if details.Model.Name != "claude-3-5-sonnet" {
				t.Errorf("model name: got %q, want %q", details.Model.Name, "claude-3-5-sonnet")
			}
		})
	}
}

func TestParseStringAs_UnrepairableContent(t *testing.T) {
	if _, err := ParseStringAs[modelDetails](`<html>error page</html>`); err == nil {
		t.Error("expected an error for unrepairable content")
	}
}
