package dates

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso date", "2021-03-03", "2021-03-03"},
		{"iso with single digits", "2021-3-3", "2021-03-03"},
		{"bare year", "2021", "2021-01-01"},
		{"textual", "March 3, 2021", "2021-03-03"},
		{"textual no comma", "March 3 2021", "2021-03-03"},
		{"textual lowercase", "march 3, 2021", "2021-03-03"},
		{"slash form", "3/15/2020", "2020-03-15"},
		{"day zero corrected", "2021-03-00", "2021-03-01"},
		{"day clamped to short month", "2021-02-30", "2021-02-28"},
		{"leap year clamp", "2020-02-30", "2020-02-29"},
		{"year too early", "1799", ""},
		{"year too late", "2101-01-01", ""},
		{"month out of range", "2021-13-01", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"garbage", "sometime last century", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_AlwaysCalendarValid(t *testing.T) {
	// Whatever comes out must survive strict calendar parsing.
	inputs := []string{
		"2021-02-30", "2021-04-31", "1999", "March 3, 2021",
		"2000-02-29", "12/31/1999", "January 1, 1800", "December 31, 2100",
	}
	for _, in := range inputs {
		got := Normalize(in)
		if got == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", got); err != nil {
			t.Errorf("Normalize(%q) = %q is not a valid calendar date", in, got)
		}
	}
}

func TestNormalize_FreeTextFallback(t *testing.T) {
	// Forms outside the explicit patterns go through the dateparse
	// fallback and still get range validation.
	got := Normalize("15 Mar 2020")
	if got != "2020-03-15" {
		t.Errorf("Normalize(15 Mar 2020) = %q, want 2020-03-15", got)
	}
}

func TestParse(t *testing.T) {
	if _, ok := Parse("2021-02-30"); ok {
		t.Error("Parse must reject non-calendar dates")
	}
	d, ok := Parse("1999-01-01")
	if !ok {
		t.Fatal("Parse rejected a valid date")
	}
	if d.Year() != 1999 {
		t.Errorf("unexpected year %d", d.Year())
	}
}

func TestDaysApart(t *testing.T) {
	a, _ := Parse("1999-01-01")
	b, _ := Parse("1999-01-31")
	if got := DaysApart(a, b); got != 30 {
		t.Errorf("DaysApart = %d, want 30", got)
	}
	if got := DaysApart(b, a); got != 30 {
		t.Errorf("DaysApart should be symmetric, got %d", got)
	}
}
