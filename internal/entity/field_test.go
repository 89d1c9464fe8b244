package entity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestKnownNormalisesPlaceholders(t *testing.T) {
	tests := map[string]struct {
		input string
		state FieldState
		value string
	}{
		"blank":            {input: "   ", state: FieldAbsent},
		"placeholder":      {input: "N/A", state: FieldUnknown},
		"lower case":       {input: " n/a ", state: FieldUnknown},
		"dash":             {input: "-", state: FieldUnknown},
		"value":            {input: "Jane Doe", state: FieldKnown, value: "Jane Doe"},
		"inner whitespace": {input: "Jane \n  Doe", state: FieldKnown, value: "Jane Doe"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := Known(tt.input)
			if f.State() != tt.state {
				t.Fatalf("expected state %d, got %d", tt.state, f.State())
			}
			if got, _ := f.Get(); got != tt.value {
				t.Fatalf("expected value %q, got %q", tt.value, got)
			}
		})
	}
}

func TestFieldJSON(t *testing.T) {
	payload := struct {
		A Field `json:"a"`
		B Field `json:"b"`
		C Field `json:"c"`
	}{A: Known("x"), B: Unknown()}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"x","b":"N/A","c":null}` {
		t.Fatalf("unexpected json: %s", data)
	}

	var decoded struct {
		A Field `json:"a"`
		B Field `json:"b"`
		C Field `json:"c"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.A.Equal(Known("x")) || !decoded.B.IsUnknown() || !decoded.C.IsAbsent() {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}
}

func TestAddressJSONAcceptsBothShapes(t *testing.T) {
	var flat Address
	if err := json.Unmarshal([]byte(`"12 Mall Road, Sialkot"`), &flat); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if flat.Kind != AddressUnstructured || flat.Text != "12 Mall Road, Sialkot" {
		t.Fatalf("unexpected flat address: %+v", flat)
	}

	var structured Address
	if err := json.Unmarshal([]byte(`{"street":"12 Mall Road","city":"Sialkot"}`), &structured); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if structured.Kind != AddressStructured || structured.City() != "Sialkot" {
		t.Fatalf("unexpected structured address: %+v", structured)
	}

	var placeholder Address
	if err := json.Unmarshal([]byte(`"N/A"`), &placeholder); err != nil {
		t.Fatalf("unmarshal placeholder: %v", err)
	}
	if placeholder.Kind != AddressUnknown || placeholder.IsKnown() {
		t.Fatalf("expected unknown address, got %+v", placeholder)
	}

	out, err := json.Marshal(structured)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"street":"12 Mall Road","city":"Sialkot"}` {
		t.Fatalf("unexpected json: %s", out)
	}
}

func TestBusinessMarshalIncludesStatus(t *testing.T) {
	scraped := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	b := Business{
		Name:          "Acme Traders",
		ContactPerson: Known("Jane Doe"),
		Phone:         Unknown(),
		Details:       EnrichmentState{Status: StatusCompleted, LastAttemptAt: &scraped},
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	for _, want := range []string{
		`"contactPerson":"Jane Doe"`,
		`"phone":"N/A"`,
		`"scrapingStatus":"completed"`,
		`"presenceStatus":"pending"`,
		`"links":[]`,
		`"lastScraped":"2024-05-01T10:00:00Z"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}
