package rules

import (
	"encoding/json"
	"testing"
)

func TestSeverityStringAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []Severity{SeverityError, SeverityWarning, SeverityInfo, SeverityStyle, SeverityOff} {
		parsed, err := ParseSeverity(s.String())
		if err != nil {
			t.Fatalf("ParseSeverity(%q) error = %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseSeverity(%q) = %v, want %v", s.String(), parsed, s)
		}
	}

	if got := Severity(99).String(); got != "unknown" {
		t.Errorf("Severity(99).String() = %q, want unknown", got)
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"warning", SeverityWarning, false},
		{"warn", SeverityWarning, false},
		{"WARN", SeverityWarning, false},
		{"Style", SeverityStyle, false},
		{"info", SeverityInfo, false},
		{"off", SeverityOff, false},
		{"fatal", SeverityError, true},
		{"", SeverityError, true},
	}

	for _, tc := range cases {
		got, err := ParseSeverity(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSeverityJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(SeverityWarning)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `"warning"` {
		t.Errorf("Marshal = %s, want %q", data, `"warning"`)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"style"`), &s); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if s != SeverityStyle {
		t.Errorf("Unmarshal = %v, want SeverityStyle", s)
	}

	if err := json.Unmarshal([]byte(`"loud"`), &s); err == nil {
		t.Error("Unmarshal accepted an unknown severity name")
	}
	if err := json.Unmarshal([]byte(`2`), &s); err == nil {
		t.Error("Unmarshal accepted a bare number")
	}
}

func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if !SeverityError.IsMoreSevereThan(SeverityWarning) {
		t.Error("error should outrank warning")
	}
	if SeverityWarning.IsMoreSevereThan(SeverityWarning) {
		t.Error("a severity does not outrank itself")
	}
	if SeverityStyle.IsMoreSevereThan(SeverityInfo) {
		t.Error("style should not outrank info")
	}

	if !SeverityError.IsAtLeast(SeverityWarning) {
		t.Error("error should satisfy a warning threshold")
	}
	if !SeverityStyle.IsAtLeast(SeverityStyle) {
		t.Error("IsAtLeast should be inclusive")
	}
	if SeverityInfo.IsAtLeast(SeverityWarning) {
		t.Error("info should not satisfy a warning threshold")
	}
}

// The zero value of Severity must be "error", never "off": a Violation
// built without an explicit severity should fail loudly, not vanish.
func TestSeverityZeroValue(t *testing.T) {
	t.Parallel()

	if SeverityError != 0 {
		t.Errorf("SeverityError = %d, want the zero value", SeverityError)
	}
	var v Violation
	if v.Severity != SeverityError {
		t.Errorf("zero Violation severity = %v, want SeverityError", v.Severity)
	}
	if SeverityOff <= SeverityStyle {
		t.Errorf("SeverityOff = %d, must sort after every live severity", SeverityOff)
	}
}
