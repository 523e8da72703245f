package service

import (
	"bytes"
	"context"
	"time"

	"github.com/emersion/go-ical"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

const calendarProductID = "-//kiriha//Class Schedule//EN"

// Calendar renders a series as an iCalendar document with one event per
// section.
func (s *Classes) Calendar(ctx context.Context, code string) ([]byte, error) {
	sections, err := s.Series(ctx, code)
	if err != nil {
		return nil, err
	}
	return encodeCalendar(code, sections, s.loc, s.now())
}

func encodeCalendar(code string, sections []model.ClassSectionDetail, loc *time.Location, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if len(sections) > 0 {
		cal.Props.SetText(ical.PropName, sections[0].Subject+" ("+code+")")
	}

	for _, sec := range sections {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, sec.ID+"@kiriha")
		event.Props.SetText(ical.PropSummary, sec.Subject)
		event.Props.SetText(ical.PropLocation, sec.Room)
		event.Props.SetText(ical.PropDescription, "Teacher: "+sec.Teacher)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, sec.Date.At(sec.StartTime, loc).UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, sec.Date.At(sec.EndTime, loc).UTC())
		if sec.Status == model.ClassCancelled {
			event.Props.SetText(ical.PropStatus, "CANCELLED")
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
