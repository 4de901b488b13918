package model

import (
	"fmt"
	"strings"
	"time"
)

type SessionType string

type SessionTypeInfo struct {
	Name               SessionType `json:"name"`
	Label              string      `json:"label"`
	RequiresStudentAge bool        `json:"requires_student_age"`
	DurationMinutes    int         `json:"duration_minutes"`
}

// WeekdaySet is a bitmask indexed by time.Weekday (Sunday=0).
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

var EveryDay = NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts an English day name or its three-letter abbreviation.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

type WeeklyScheduleRule struct {
	Start                  Clock       `json:"start"`
	End                    Clock       `json:"end"`
	Days                   WeekdaySet  `json:"-"`
	IntervalMinutes        int         `json:"interval_minutes"`
	MinSlotDurationMinutes int         `json:"min_slot_duration_minutes"`
	SessionType            SessionType `json:"session_type"`
}

// Validate checks the range and step of a rule. Session types are checked against the catalogue elsewhere.
func (r WeeklyScheduleRule) Validate() error {
	if r.Start < 0 || r.Start >= MinutesPerDay {
		return fmt.Errorf("rule start %s out of range", r.Start)
	}
	if r.End <= r.Start || r.End > MinutesPerDay {
		return fmt.Errorf("rule end %s must be after start %s and within the day", r.End, r.Start)
	}
	if r.IntervalMinutes <= 0 {
		return fmt.Errorf("rule interval must be positive, got %d", r.IntervalMinutes)
	}
	if r.MinSlotDurationMinutes < 0 || r.MinSlotDurationMinutes > r.IntervalMinutes {
		return fmt.Errorf("rule minimum slot duration must be between 0 and the interval, got %d", r.MinSlotDurationMinutes)
	}
	if r.Days == 0 {
		return fmt.Errorf("rule %s-%s has no days", r.Start, r.End)
	}
	if r.SessionType == "" {
		return fmt.Errorf("rule %s-%s has no session type", r.Start, r.End)
	}
	return nil
}

// MinDuration falls back to the interval when no explicit minimum is set.
func (r WeeklyScheduleRule) MinDuration() int {
	if r.MinSlotDurationMinutes <= 0 {
		return r.IntervalMinutes
	}
	return r.MinSlotDurationMinutes
}

type SlotStatus string

const (
	SlotAvailable  SlotStatus = "available"
	SlotBooked     SlotStatus = "booked"
	SlotNotOffered SlotStatus = "not_offered"
)

type Slot struct {
	Date        Date        `json:"date"`
	StartTime   Clock       `json:"start_time"`
	EndTime     Clock       `json:"end_time"`
	SessionType SessionType `json:"session_type"`
	Status      SlotStatus  `json:"status"`
}

type SlotKey struct {
	StartTime   Clock
	SessionType SessionType
}

func (s Slot) Key() SlotKey {
	return SlotKey{StartTime: s.StartTime, SessionType: s.SessionType}
}
