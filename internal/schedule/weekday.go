package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the symbolic day-of-week used everywhere outside of date
// arithmetic.
type Weekday string

const (
	Sunday    Weekday = "sun"
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
)

// weekdayTable is the single mapping between the symbolic form and the
// calendar weekday number (Sunday = 0).
var weekdayTable = [7]struct {
	symbol Weekday
	name   string
}{
	time.Sunday:    {Sunday, "Sunday"},
	time.Monday:    {Monday, "Monday"},
	time.Tuesday:   {Tuesday, "Tuesday"},
	time.Wednesday: {Wednesday, "Wednesday"},
	time.Thursday:  {Thursday, "Thursday"},
	time.Friday:    {Friday, "Friday"},
	time.Saturday:  {Saturday, "Saturday"},
}

// Weekdays lists the symbols in calendar order starting on Sunday.
func Weekdays() []Weekday {
	out := make([]Weekday, len(weekdayTable))
	for i, e := range weekdayTable {
		out[i] = e.symbol
	}
	return out
}

// WeekdayOf maps a calendar weekday to its symbol.
func WeekdayOf(wd time.Weekday) Weekday {
	return weekdayTable[wd%7].symbol
}

// ParseWeekday accepts a symbol ("mon"), a full English name ("Monday") or
// the numeric form "0".."6" with Sunday = 0.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return "", fmt.Errorf("weekday number %d out of range 0-6", n)
		}
		return weekdayTable[n].symbol, nil
	}
	lower := strings.ToLower(s)
	for _, e := range weekdayTable {
		if lower == string(e.symbol) || lower == strings.ToLower(e.name) {
			return e.symbol, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

func (w Weekday) Valid() bool {
	_, ok := w.index()
	return ok
}

func (w Weekday) index() (int, bool) {
	for i, e := range weekdayTable {
		if e.symbol == w {
			return i, true
		}
	}
	return 0, false
}

// Time returns the calendar weekday. It panics on an invalid symbol; input is
// validated before it gets here.
func (w Weekday) Time() time.Weekday {
	i, ok := w.index()
	if !ok {
		panic(fmt.Sprintf("schedule: invalid weekday %q", string(w)))
	}
	return time.Weekday(i)
}

func (w Weekday) Name() string {
	i, ok := w.index()
	if !ok {
		return string(w)
	}
	return weekdayTable[i].name
}

func (w *Weekday) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		parsed, err := ParseWeekday(strconv.Itoa(n))
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("weekday must be a string or a number: %w", err)
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
