package schedule

import (
	"cmp"
	"slices"

	"booking-service/internal/model"
)

// Resolver expands a fixed set of weekly rules into the candidate slots of a calendar day.
// It holds no state besides the rules, so a Resolver is safe for concurrent use.
type Resolver struct {
	rules []model.WeeklyScheduleRule
}

func NewResolver(rules []model.WeeklyScheduleRule) *Resolver {
	return &Resolver{rules: slices.Clone(rules)}
}

func (r *Resolver) Rules() []model.WeeklyScheduleRule {
	return slices.Clone(r.rules)
}

// Resolve returns the slots offered on date, ordered by start time and session type.
// When several rules produce the same start for the same session type, the later rule wins.
func (r *Resolver) Resolve(date model.Date) []model.Slot {
	weekday := date.Weekday()
	byKey := make(map[model.SlotKey]model.Slot)

	for _, rule := range r.rules {
		if !rule.Days.Has(weekday) || rule.IntervalMinutes <= 0 {
			continue
		}

		minDuration := rule.MinDuration()
		for start := rule.Start; start < rule.End; start = start.Add(rule.IntervalMinutes) {
			end := min(start.Add(rule.IntervalMinutes), rule.End)
			if int(end-start) < minDuration {
				break
			}

			slot := model.Slot{
				Date:        date,
				StartTime:   start,
				EndTime:     end,
				SessionType: rule.SessionType,
			}
			byKey[slot.Key()] = slot
		}
	}

	slots := make([]model.Slot, 0, len(byKey))
	for _, slot := range byKey {
		slots = append(slots, slot)
	}
	slices.SortFunc(slots, func(a, b model.Slot) int {
		if c := cmp.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionType, b.SessionType)
	})

	return slots
}

// ResolveType is Resolve restricted to one session type. An empty type means all types.
func (r *Resolver) ResolveType(date model.Date, sessionType model.SessionType) []model.Slot {
	slots := r.Resolve(date)
	if sessionType == "" {
		return slots
	}
	return slices.DeleteFunc(slots, func(s model.Slot) bool {
		return s.SessionType != sessionType
	})
}

// Offers reports whether any rule produces the given slot on date.
func (r *Resolver) Offers(date model.Date, key model.SlotKey) bool {
	_, ok := Find(r.Resolve(date), key)
	return ok
}
