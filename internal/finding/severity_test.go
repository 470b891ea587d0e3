package finding

import "testing"

func TestParseSeverity_CaseInsensitive(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"informational", Informational},
		{"Informational", Informational},
		{"low", Low},
		{"LOW", Low},
		{"Medium", Medium},
		{"medium", Medium},
		{"high", High},
		{"High", High},
		{"HIGH", High},
		{"critical", Critical},
		{"CRITICAL", Critical},
		{"  high  ", High},
	}

	for _, tc := range cases {
		if got := ParseSeverity(tc.in); got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSeverity_UnknownDefaultsToLow(t *testing.T) {
	for _, in := range []string{"", "unknown", "severe", "critial"} {
		if got := ParseSeverity(in); got != Low {
			t.Errorf("ParseSeverity(%q) = %v, want Low", in, got)
		}
	}
}

func TestParseSeverityStrict_RejectsUnknown(t *testing.T) {
	if _, err := ParseSeverityStrict("blocker"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if s, err := ParseSeverityStrict("critical"); err != nil || s != Critical {
		t.Errorf("ParseSeverityStrict(critical) = %v, %v", s, err)
	}
}

func TestSeverity_TotalOrder(t *testing.T) {
	ordered := []Severity{Informational, Low, Medium, High, Critical}
	for i, lower := range ordered {
		for j, higher := range ordered {
			got := higher.AtLeast(lower)
			want := j >= i
			if got != want {
				t.Errorf("%v.AtLeast(%v) = %v, want %v", higher, lower, got, want)
			}
		}
	}
}

func TestSeverity_AtLeastReflexive(t *testing.T) {
	for _, s := range []Severity{Informational, Low, Medium, High, Critical} {
		if !s.AtLeast(s) {
			t.Errorf("%v.AtLeast(%v) = false, want true", s, s)
		}
	}
}

func TestSeverity_String(t *testing.T) {
	cases := map[Severity]string{
		Informational: "Informational",
		Low:           "Low",
		Medium:        "Medium",
		High:          "High",
		Critical:      "Critical",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
	if got := Severity(99).String(); got != "Severity(99)" {
		t.Errorf("out-of-range String() = %q", got)
	}
}

func TestSeverity_Rank(t *testing.T) {
	if Informational.Rank() != 0 || Critical.Rank() != 4 {
		t.Errorf("ranks = %d..%d, want 0..4", Informational.Rank(), Critical.Rank())
	}
}
