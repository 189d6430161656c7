package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractPlanJSONDirect(t *testing.T) {
	in := `{"overview": {"duration": 7}, "days": []}`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if string(got) != in {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestExtractPlanJSONFenced(t *testing.T) {
	in := "Here is your meal plan:\n```json\n{\"days\": [1, 2]}\n```\nEnjoy!"
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if string(got) != `{"days": [1, 2]}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractPlanJSONTrailingCommas(t *testing.T) {
	in := `{"days": [{"day": 1,}, {"day": 2,},]}`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if !json.Valid(got) {
		t.Errorf("result is not valid JSON: %q", got)
	}
}

func TestExtractPlanJSONBareKeys(t *testing.T) {
	in := `{overview: {duration: 7}, days: []}`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	var parsed struct {
		Overview struct {
			Duration int `json:"duration"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("repaired JSON does not parse: %v", err)
	}
	if parsed.Overview.Duration != 7 {
		t.Errorf("duration = %d, want 7", parsed.Overview.Duration)
	}
}

func TestExtractPlanJSONProseWrapped(t *testing.T) {
	in := `Sure! The plan follows. {"days": [{"day": 1}]} Let me know if you need changes.`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if string(got) != `{"days": [{"day": 1}]}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractPlanJSONPicksLargestObject(t *testing.T) {
	want := `{"overview": {"duration": 7}, "days": [{"day": 1}]}`
	in := `{"note": "schema follows"} Here it is, ` + want + ` done.`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if string(got) != want {
		t.Errorf("got %q, want the plan object, not the preamble", got)
	}
}

func TestExtractPlanJSONTruncated(t *testing.T) {
	in := `{"overview": {"duration": 7}, "days": [{"day": 1, "meals": {"breakfast": {"name": "Oats"`
	got, err := ExtractPlanJSON(in)
	if err != nil {
		t.Fatalf("ExtractPlanJSON failed: %v", err)
	}
	if !json.Valid(got) {
		t.Errorf("balanced result is not valid JSON: %q", got)
	}
}

func TestExtractPlanJSONNone(t *testing.T) {
	for _, in := range []string{"", "I cannot generate a meal plan for that request.", "[1, 2, 3"} {
		if _, err := ExtractPlanJSON(in); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractPlanJSON(%q) err = %v, want ErrNoJSON", in, err)
		}
	}
}
