package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-03-05"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"", "2024-3-5", "2024/03/05", "2024-02-30", "05-03-2024"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestMonthKeyDays(t *testing.T) {
	cases := []struct {
		month string
		days  int
	}{
		{"2024-01", 31},
		{"2024-02", 29},
		{"2023-02", 28},
		{"1900-02", 28},
		{"2000-02", 29},
		{"2024-04", 30},
		{"2024-12", 31},
	}
	for _, tc := range cases {
		m := MustMonth(tc.month)
		days := m.Days()
		if len(days) != tc.days || m.DaysIn() != tc.days {
			t.Fatalf("%s: expected %d days, got %d", tc.month, tc.days, len(days))
		}
		if days[0].String() != tc.month+"-01" {
			t.Fatalf("%s: first day %s", tc.month, days[0])
		}
		for i := 1; i < len(days); i++ {
			if !days[i].After(days[i-1].Time) {
				t.Fatalf("%s: days not ascending at %d", tc.month, i)
			}
		}
	}
}

func TestMonthKeyContains(t *testing.T) {
	m := MustMonth("2024-03")
	cases := map[string]bool{
		"2024-03-01": true,
		"2024-03-31": true,
		"2024-02-29": false,
		"2024-04-01": false,
		"2023-03-15": false,
	}
	for d, want := range cases {
		if got := m.Contains(MustDate(d)); got != want {
			t.Errorf("Contains(%s) = %v, want %v", d, got, want)
		}
	}
	if m.Contains(Date{}) {
		t.Errorf("zero date must not belong to any month")
	}
}

func TestIsTodayUsesFixedOffset(t *testing.T) {
	// 20:30 UTC on the 5th is already the 6th in PKT.
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	if !IsToday(MustDate("2024-03-06"), now) {
		t.Fatalf("expected 2024-03-06 to be today in PKT")
	}
	if IsToday(MustDate("2024-03-05"), now) {
		t.Fatalf("2024-03-05 is yesterday in PKT")
	}
	// 18:59 UTC is still the same day.
	now = time.Date(2024, 3, 5, 18, 59, 0, 0, time.UTC)
	if !IsToday(MustDate("2024-03-05"), now) {
		t.Fatalf("expected 2024-03-05 to be today in PKT")
	}
	// Month rolls over with the day.
	now = time.Date(2024, 3, 31, 19, 0, 0, 0, time.UTC)
	if got := CurrentMonth(now).String(); got != "2024-04" {
		t.Fatalf("expected 2024-04, got %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date     `json:"d"`
		M MonthKey `json:"m"`
	}{MustDate("2024-03-05"), MustMonth("2024-03")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2024-03-05","m":"2024-03"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-3-5"}`), &out); err == nil {
		t.Fatalf("expected error for unpadded date")
	}
}
