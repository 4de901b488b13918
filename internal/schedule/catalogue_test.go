package schedule_test

import (
	"testing"

	"booking-service/internal/model"
	"booking-service/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	c, err := schedule.NewCatalogue(
		model.SessionTypeInfo{Name: "kids", Label: "Kids Session", RequiresStudentAge: true, DurationMinutes: 90},
		model.SessionTypeInfo{Name: "adults", Label: "Adults Session", DurationMinutes: 120},
	)
	require.NoError(t, err)

	assert.True(t, c.RequiresStudentAge("kids"))
	assert.False(t, c.RequiresStudentAge("adults"))
	assert.False(t, c.RequiresStudentAge("unknown"))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, model.SessionType("adults"), list[0].Name)

	_, ok := c.Lookup("general")
	assert.False(t, ok)
}

func TestNewCatalogue_RejectsDuplicates(t *testing.T) {
	_, err := schedule.NewCatalogue(
		model.SessionTypeInfo{Name: "kids"},
		model.SessionTypeInfo{Name: "kids"},
	)
	assert.Error(t, err)

	_, err = schedule.NewCatalogue(model.SessionTypeInfo{})
	assert.Error(t, err)
}

func TestCatalogue_CheckRules(t *testing.T) {
	c, err := schedule.NewCatalogue(model.SessionTypeInfo{Name: "general"})
	require.NoError(t, err)

	good := model.WeeklyScheduleRule{Start: clock(t, "05:30"), End: clock(t, "07:30"), Days: model.EveryDay, IntervalMinutes: 30, SessionType: "general"}
	require.NoError(t, c.CheckRules([]model.WeeklyScheduleRule{good}))

	unknown := good
	unknown.SessionType = "kids"
	assert.ErrorContains(t, c.CheckRules([]model.WeeklyScheduleRule{good, unknown}), "rule 1")

	broken := good
	broken.End = broken.Start
	assert.Error(t, c.CheckRules([]model.WeeklyScheduleRule{broken}))
}
