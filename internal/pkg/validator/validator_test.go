package validator

import (
	"testing"
	"time"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-02-30", "01-01-2023", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidDateTime(t *testing.T) {
	valid := []string{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00+07:00", "2024-01-15T10:30:00.123Z"}
	invalid := []string{"2024-01-15 10:30:00", "10:30", ""}
	for _, s := range valid {
		if _, ok := IsValidDateTime(s); !ok {
			t.Errorf("IsValidDateTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDateTime(s); ok {
			t.Errorf("IsValidDateTime(%q) = true, want false", s)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		input string
		want  int
		ok    bool
	}{
		{"00:00", 0, true},
		{"09:00", 540, true},
		{"17:30", 1050, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"9:00", 0, false},
		{"09:60", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.input)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseTimeOfDay(%q) = %d, %v; want %d", c.input, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseTimeOfDay(%q) expected error", c.input)
		}
	}
}

func TestParseDateIn(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	got, err := ParseDateIn("2024-03-01", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != loc || got.Hour() != 0 || got.Day() != 1 {
		t.Errorf("ParseDateIn returned %v", got)
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Fatal("empty ValidationErrors should yield nil error")
	}
	errs.Add("employee_id", "employee_id is required")
	errs.Add("type", "type must be one of: in, out")

	err := errs.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "employee_id: employee_id is required; type: type must be one of: in, out" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if m := errs.ToMap(); m["type"] == "" || len(m) != 2 {
		t.Errorf("unexpected map %v", m)
	}
}
