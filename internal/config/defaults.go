package config

func DefaultSessionTypes() []SessionTypeConfig {
	return []SessionTypeConfig{
		{Name: "general", Label: "General Session", DurationMinutes: 60},
		{Name: "kids", Label: "Kids Session", RequiresStudentAge: true, DurationMinutes: 90},
		{Name: "adults", Label: "Adults Session", DurationMinutes: 120},
	}
}

// DefaultScheduleRules is the weekly calendar the studio has been publishing.
func DefaultScheduleRules() []RuleConfig {
	all := []string{"general", "kids", "adults"}
	row := func(start, end string, days ...string) RuleConfig {
		return RuleConfig{
			Start:           start,
			End:             end,
			Days:            days,
			IntervalMinutes: 30,
			SessionTypes:    all,
		}
	}

	return []RuleConfig{
		row("05:30", "07:30", "everyday"),
		row("08:00", "10:00", "sat", "sun"),
		row("19:30", "20:00", "mon", "tue", "thu", "sat", "sun"),
		row("20:00", "20:30", "mon", "tue", "thu", "sat", "sun"),
		row("20:30", "21:00", "mon", "tue", "thu", "fri", "sat", "sun"),
		row("21:00", "21:30", "mon", "tue", "thu", "sat", "sun"),
	}
}
