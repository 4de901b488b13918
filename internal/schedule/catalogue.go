package schedule

import (
	"fmt"
	"slices"
	"strings"

	"booking-service/internal/model"
)

// Catalogue holds the configured session types keyed by name.
type Catalogue map[model.SessionType]model.SessionTypeInfo

func NewCatalogue(types ...model.SessionTypeInfo) (Catalogue, error) {
	c := make(Catalogue, len(types))
	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("session type without a name")
		}
		if _, dup := c[t.Name]; dup {
			return nil, fmt.Errorf("session type %q declared twice", t.Name)
		}
		c[t.Name] = t
	}
	return c, nil
}

func (c Catalogue) Lookup(name model.SessionType) (model.SessionTypeInfo, bool) {
	info, ok := c[name]
	return info, ok
}

func (c Catalogue) RequiresStudentAge(name model.SessionType) bool {
	return c[name].RequiresStudentAge
}

// List returns the session types sorted by name.
func (c Catalogue) List() []model.SessionTypeInfo {
	out := make([]model.SessionTypeInfo, 0, len(c))
	for _, info := range c {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b model.SessionTypeInfo) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return out
}

// CheckRules validates every rule and makes sure it names a known session type.
func (c Catalogue) CheckRules(rules []model.WeeklyScheduleRule) error {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("schedule rule %d: %w", i, err)
		}
		if _, ok := c[rule.SessionType]; !ok {
			return fmt.Errorf("schedule rule %d: unknown session type %q", i, rule.SessionType)
		}
	}
	return nil
}
