package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day wire form used by every record.
const DateLayout = "2006-01-02"

// MonthLayout is the wire form of a month key.
const MonthLayout = "2006-01"

// pktOffset is the fixed Pakistan Standard Time offset used for "today".
const pktOffset = 5 * 60 * 60

// PKT is the zone used to decide which calendar day is "today" for the account.
// It is a fixed offset, not derived from the host timezone. Swap it to change
// the highlighting behaviour without touching aggregation.
var PKT = time.FixedZone("PKT", pktOffset)

// Date is a calendar day. The embedded time is always midnight UTC so that
// comparisons and formatting never shift the day.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strictly zero-padded YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// MustDate is ParseDate for literals; it panics on malformed input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Time.Month()}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKey identifies a calendar month. Membership is a (year, month) tuple
// comparison, which selects exactly the dates whose YYYY-MM-DD form starts
// with the key's YYYY-MM form.
type MonthKey struct {
	Year  int
	Month time.Month
}

// ParseMonthKey parses a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// MustMonth is ParseMonthKey for literals; it panics on malformed input.
func MustMonth(s string) MonthKey {
	m, err := ParseMonthKey(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Contains reports whether d falls inside the month.
func (m MonthKey) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return d.Year() == m.Year && d.Time.Month() == m.Month
}

// DaysIn returns the number of calendar days in the month.
func (m MonthKey) DaysIn() int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Days enumerates every date of the month in ascending order.
func (m MonthKey) Days() []Date {
	n := m.DaysIn()
	days := make([]Date, n)
	for i := 0; i < n; i++ {
		days[i] = NewDate(m.Year, int(m.Month), i+1)
	}
	return days
}

// Label is the human form used in report headers, e.g. "March 2024".
func (m MonthKey) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

func (m MonthKey) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *MonthKey) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMonth, string(b))
	}
	parsed, err := ParseMonthKey(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// TodayIn returns the calendar day of now as seen in loc.
func TodayIn(loc *time.Location, now time.Time) Date {
	local := now.In(loc)
	return NewDate(local.Year(), int(local.Month()), local.Day())
}

// Today returns the account's current calendar day (PKT).
func Today(now time.Time) Date {
	return TodayIn(PKT, now)
}

// IsToday reports whether d is the account's current calendar day (PKT).
func IsToday(d Date, now time.Time) bool {
	return d.Equal(Today(now).Time)
}

// CurrentMonth is the month that monthly views default to.
func CurrentMonth(now time.Time) MonthKey {
	return Today(now).MonthKey()
}
