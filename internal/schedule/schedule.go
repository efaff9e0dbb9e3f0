package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
)

// searchYears bounds Next. Every feasible month/day combination,
// Feb 29 on a given weekday included, recurs well within it.
const searchYears = 400

// field is one parsed schedule component as a bitset of allowed values.
type field struct {
	bits uint64
}

func (f field) has(v int) bool {
	return f.bits&(1<<uint(v)) != 0
}

// Schedule is a parsed EPCIS query schedule. A time matches when every
// component matches; dayOfMonth and dayOfWeek must both match.
// All times are evaluated in UTC.
type Schedule struct {
	wire v1.QuerySchedule

	second     field
	minute     field
	hour       field
	dayOfMonth field
	month      field
	dayOfWeek  field
}

// Parse validates qs and returns the schedule it describes. It fails when a
// component is malformed or out of range, or when no date can ever match.
func Parse(qs v1.QuerySchedule) (*Schedule, error) {
	s := &Schedule{wire: qs}

	fields := []struct {
		target   *field
		name     string
		raw      string
		min, max int
	}{
		{&s.second, "second", qs.Second, 0, 59},
		{&s.minute, "minute", qs.Minute, 0, 59},
		{&s.hour, "hour", qs.Hour, 0, 23},
		{&s.dayOfMonth, "dayOfMonth", qs.DayOfMonth, 1, 31},
		{&s.month, "month", qs.Month, 1, 12},
		{&s.dayOfWeek, "dayOfWeek", qs.DayOfWeek, 1, 7},
	}
	for _, fd := range fields {
		f, err := parseField(fd.name, fd.raw, fd.min, fd.max)
		if err != nil {
			return nil, err
		}
		*fd.target = f
	}

	if !s.feasible() {
		return nil, fmt.Errorf("schedule can never fire: no month in %q has a day in %q", qs.Month, qs.DayOfMonth)
	}
	return s, nil
}

// parseField parses a wildcard ("" or "*"), a value, a comma list, or "[a-b]" ranges.
func parseField(name, raw string, min, max int) (field, error) {
	var f field
	raw = strings.TrimSpace(raw)

	if raw == "" || raw == "*" {
		for v := min; v <= max; v++ {
			f.bits |= 1 << uint(v)
		}
		return f, nil
	}

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		lo, hi, err := parseItem(item)
		if err != nil {
			return field{}, fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if lo < min || hi > max {
			return field{}, fmt.Errorf("invalid %s %q: values must be within %d-%d", name, raw, min, max)
		}
		if lo > hi {
			return field{}, fmt.Errorf("invalid %s %q: range [%d-%d] is empty", name, raw, lo, hi)
		}
		for v := lo; v <= hi; v++ {
			f.bits |= 1 << uint(v)
		}
	}
	return f, nil
}

func parseItem(item string) (int, int, error) {
	if strings.HasPrefix(item, "[") && strings.HasSuffix(item, "]") {
		a, b, ok := strings.Cut(item[1:len(item)-1], "-")
		if !ok {
			return 0, 0, fmt.Errorf("range %q must look like [a-b]", item)
		}
		lo, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0, fmt.Errorf("range %q: %w", item, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return 0, 0, fmt.Errorf("range %q: %w", item, err)
		}
		return lo, hi, nil
	}

	v, err := strconv.Atoi(item)
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not a number", item)
	}
	return v, v, nil
}

// daysIn is the longest length of month m across leap and common years.
var daysIn = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func (s *Schedule) feasible() bool {
	for m := 1; m <= 12; m++ {
		if !s.month.has(m) {
			continue
		}
		for d := 1; d <= daysIn[m]; d++ {
			if s.dayOfMonth.has(d) {
				return true
			}
		}
	}
	return false
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// NextAtOrAfter is Next but also accepts t itself when t is a whole,
// matching second.
func (s *Schedule) NextAtOrAfter(t time.Time) (time.Time, bool) {
	if t.Equal(t.Truncate(time.Second)) {
		return s.Next(t.Add(-time.Second))
	}
	return s.Next(t)
}

// Next returns the first matching instant strictly after t, truncated to
// whole seconds. ok is false when nothing matches within the search horizon.
func (s *Schedule) Next(t time.Time) (next time.Time, ok bool) {
	t = t.UTC().Truncate(time.Second).Add(time.Second)
	limit := t.AddDate(searchYears, 0, 0)

	for !t.After(limit) {
		if !s.month.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			continue
		}
		if !s.dayOfMonth.has(t.Day()) || !s.dayOfWeek.has(isoWeekday(t)) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
			continue
		}
		if !s.hour.has(t.Hour()) {
			t = t.Truncate(time.Hour).Add(time.Hour)
			continue
		}
		if !s.minute.has(t.Minute()) {
			t = t.Truncate(time.Minute).Add(time.Minute)
			continue
		}
		if !s.second.has(t.Second()) {
			t = t.Add(time.Second)
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// Wire returns the schedule in the form it was given.
func (s *Schedule) Wire() v1.QuerySchedule {
	return s.wire
}

func (s *Schedule) String() string {
	w := s.wire
	parts := []string{w.Second, w.Minute, w.Hour, w.DayOfMonth, w.Month, w.DayOfWeek}
	for i, p := range parts {
		if p == "" {
			parts[i] = "*"
		}
	}
	return strings.Join(parts, " ")
}

// Every returns a schedule firing at a fixed interval. The interval must be a
// whole number of seconds dividing a minute or of minutes dividing an hour.
func Every(d time.Duration) (*Schedule, error) {
	switch {
	case d <= 0:
		return nil, fmt.Errorf("interval must be positive, got %s", d)
	case d < time.Minute && d%time.Second == 0 && 60%int(d/time.Second) == 0:
		return Parse(v1.QuerySchedule{Second: steps(int(d / time.Second))})
	case d <= time.Hour && d%time.Minute == 0 && 60%int(d/time.Minute) == 0:
		return Parse(v1.QuerySchedule{Second: "0", Minute: steps(int(d / time.Minute))})
	}
	return nil, fmt.Errorf("interval %s must be whole seconds dividing 60 or whole minutes dividing 60", d)
}

func steps(n int) string {
	var items []string
	for v := 0; v < 60; v += n {
		items = append(items, strconv.Itoa(v))
	}
	return strings.Join(items, ",")
}

// MarshalJSON encodes the wire form.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire)
}

// UnmarshalJSON decodes and validates the wire form.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var qs v1.QuerySchedule
	if err := json.Unmarshal(data, &qs); err != nil {
		return err
	}
	parsed, err := Parse(qs)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
