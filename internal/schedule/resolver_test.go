package schedule_test

import (
	"testing"
	"time"

	"booking-service/internal/model"
	"booking-service/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	require.NoError(t, err)
	return c
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func startTimes(slots []model.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime.String())
	}
	return out
}

func TestResolver_EarlyMorningEveryDay(t *testing.T) {
	rules := []model.WeeklyScheduleRule{{
		Start:           clock(t, "05:30"),
		End:             clock(t, "07:30"),
		Days:            model.EveryDay,
		IntervalMinutes: 30,
		SessionType:     "general",
	}}

	// 2026-10-19 is a Monday
	slots := schedule.NewResolver(rules).Resolve(date(t, "2026-10-19"))

	require.Len(t, slots, 4)
	assert.Equal(t, []string{"05:30", "06:00", "06:30", "07:00"}, startTimes(slots))
	for _, s := range slots {
		assert.Equal(t, model.SessionType("general"), s.SessionType)
		assert.Equal(t, 30, int(s.EndTime-s.StartTime))
	}
}

func TestResolver_WeekdayFiltering(t *testing.T) {
	rules := []model.WeeklyScheduleRule{{
		Start:           clock(t, "08:00"),
		End:             clock(t, "10:00"),
		Days:            model.NewWeekdaySet(time.Saturday, time.Sunday),
		IntervalMinutes: 30,
		SessionType:     "general",
	}}
	r := schedule.NewResolver(rules)

	assert.Empty(t, r.Resolve(date(t, "2026-10-21")), "wednesday")
	assert.Len(t, r.Resolve(date(t, "2026-10-24")), 4, "saturday")
	assert.Len(t, r.Resolve(date(t, "2026-10-25")), 4, "sunday")
}

func TestResolver_DiscardsPartialSlot(t *testing.T) {
	tests := []struct {
		name     string
		end      string
		interval int
		minimum  int
		want     []string
		lastEnd  string
	}{
		{name: "exact fit", end: "10:30", interval: 30, minimum: 30, want: []string{"09:00", "09:30", "10:00"}, lastEnd: "10:30"},
		{name: "trailing remainder dropped", end: "10:40", interval: 30, minimum: 30, want: []string{"09:00", "09:30", "10:00"}, lastEnd: "10:30"},
		{name: "remainder long enough is kept", end: "10:50", interval: 30, minimum: 20, want: []string{"09:00", "09:30", "10:00", "10:30"}, lastEnd: "10:50"},
		{name: "zero minimum means interval", end: "10:50", interval: 30, minimum: 0, want: []string{"09:00", "09:30", "10:00"}, lastEnd: "10:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []model.WeeklyScheduleRule{{
				Start:                  clock(t, "09:00"),
				End:                    clock(t, tt.end),
				Days:                   model.EveryDay,
				IntervalMinutes:        tt.interval,
				MinSlotDurationMinutes: tt.minimum,
				SessionType:            "adults",
			}}
			slots := schedule.NewResolver(rules).Resolve(date(t, "2026-10-20"))
			require.Equal(t, tt.want, startTimes(slots))
			assert.Equal(t, tt.lastEnd, slots[len(slots)-1].EndTime.String())
		})
	}
}

func TestResolver_DeduplicatesPerSessionType(t *testing.T) {
	rules := []model.WeeklyScheduleRule{
		{Start: clock(t, "19:30"), End: clock(t, "20:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "kids"},
		{Start: clock(t, "20:00"), End: clock(t, "21:00"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "kids"},
		{Start: clock(t, "20:00"), End: clock(t, "20:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "adults"},
	}

	slots := schedule.NewResolver(rules).Resolve(date(t, "2026-10-20"))

	var got []string
	for _, s := range slots {
		got = append(got, s.StartTime.String()+"/"+string(s.SessionType))
	}
	assert.Equal(t, []string{"19:30/kids", "20:00/adults", "20:00/kids", "20:30/kids"}, got)
}

func TestResolver_IsDeterministic(t *testing.T) {
	rules := []model.WeeklyScheduleRule{
		{Start: clock(t, "05:30"), End: clock(t, "07:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "general"},
		{Start: clock(t, "05:30"), End: clock(t, "07:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "kids"},
		{Start: clock(t, "06:00"), End: clock(t, "07:00"), Days: model.EveryDay, IntervalMinutes: 15, SessionType: "general"},
	}
	r := schedule.NewResolver(rules)
	d := date(t, "2026-11-03")

	assert.Equal(t, r.Resolve(d), r.Resolve(d))
}

func TestResolver_ResolveTypeAndOffers(t *testing.T) {
	rules := []model.WeeklyScheduleRule{
		{Start: clock(t, "05:30"), End: clock(t, "06:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "general"},
		{Start: clock(t, "05:30"), End: clock(t, "06:00"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "kids"},
	}
	r := schedule.NewResolver(rules)
	d := date(t, "2026-10-20")

	kids := r.ResolveType(d, "kids")
	require.Len(t, kids, 1)
	assert.Equal(t, "05:30", kids[0].StartTime.String())
	assert.Len(t, r.ResolveType(d, ""), 3)

	assert.True(t, r.Offers(d, model.SlotKey{StartTime: clock(t, "06:00"), SessionType: "general"}))
	assert.False(t, r.Offers(d, model.SlotKey{StartTime: clock(t, "06:00"), SessionType: "kids"}))
	assert.False(t, r.Offers(d, model.SlotKey{StartTime: clock(t, "06:15"), SessionType: "general"}))
}

func TestResolver_RulesAreCopied(t *testing.T) {
	rules := []model.WeeklyScheduleRule{
		{Start: clock(t, "05:30"), End: clock(t, "06:00"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "general"},
	}
	r := schedule.NewResolver(rules)
	rules[0].SessionType = "kids"

	assert.Equal(t, model.SessionType("general"), r.Rules()[0].SessionType)
}
