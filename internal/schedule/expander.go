// Package schedule expands weekly class patterns into concrete session dates.
package schedule

import (
	"fmt"
	"math/rand/v2"
)

// Rule is one weekly recurrence: a weekday and a time slot on that day.
// Start must be before End; wraparound past midnight is not supported.
type Rule struct {
	Day   Weekday `json:"day_of_week"`
	Start Clock   `json:"start_time"`
	End   Clock   `json:"end_time"`
}

// Request is a date range (inclusive on both ends) and the weekly rules that
// apply inside it.
type Request struct {
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
	Rules     []Rule `json:"schedules"`
}

// Occurrence is one concrete session produced from a rule.
type Occurrence struct {
	Date  Date  `json:"date"`
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

// Expand returns every date in [start, end] that falls on day, in ascending
// order. The result is empty when no such date exists.
func Expand(start, end Date, day Weekday) []Date {
	offset := (int(day.Time()) - int(start.Weekday()) + 7) % 7
	first := start.AddDays(offset)
	if first.After(end) {
		return nil
	}

	dates := make([]Date, 0, first.DaysUntil(end)/7+1)
	for d := first; !d.After(end); d = d.AddDays(7) {
		dates = append(dates, d)
	}
	return dates
}

// Occurrences expands each rule independently and concatenates the results
// in rule order.
func (r Request) Occurrences() []Occurrence {
	var out []Occurrence
	for _, rule := range r.Rules {
		for _, d := range Expand(r.StartDate, r.EndDate, rule.Day) {
			out = append(out, Occurrence{Date: d, Start: rule.Start, End: rule.End})
		}
	}
	return out
}

// Validate reports the first reason the request cannot be expanded.
func (r Request) Validate() error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	for i, rule := range r.Rules {
		if !rule.Day.Valid() {
			return fmt.Errorf("schedules[%d]: invalid day_of_week %q", i, rule.Day)
		}
		if !rule.Start.Before(rule.End) {
			return fmt.Errorf("schedules[%d]: end_time must be after start_time", i)
		}
	}
	return nil
}

// NewSeriesCode returns a random 12 digit code shared by every session created
// from one request.
func NewSeriesCode() string {
	return fmt.Sprintf("%d", 100_000_000_000+rand.Int64N(900_000_000_000))
}
