package availability

import (
	"concierge/shared/constant"
	"concierge/shared/failure"
	"sort"
	"time"
)

// Day is a calendar date with no time component, normalized to YYYY-MM-DD.
// Equality is by calendar day, never by instant, and the ISO form makes
// lexicographic comparison match chronological order.
type Day string

func ParseDay(value string) (Day, error) {
	parsed, err := time.Parse(constant.DayFormat, value)
	if err != nil {
		return "", failure.BadRequestFromString("invalid date, expected YYYY-MM-DD") //nolint:wrapcheck
	}

	return Day(parsed.Format(constant.DayFormat)), nil
}

// DayOf truncates an instant to its calendar day in the instant's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(constant.DayFormat))
}

func (d Day) String() string {
	return string(d)
}

func (d Day) Before(other Day) bool {
	return d < other
}

// Time returns midnight of the day in the given location.
func (d Day) Time(loc *time.Location) time.Time {
	parsed, err := time.ParseInLocation(constant.DayFormat, string(d), loc)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

// Availability maps a calendar day to its bookable slots in provider order.
// A day present with an empty sequence means checked with no availability,
// which is distinct from a day that is absent and therefore never checked.
type Availability map[Day][]time.Time

// DisplayOrder returns the slots sorted by hour-of-day bucket in the given
// location. The provider order is not necessarily chronological, so views
// must not render the raw sequence.
func DisplayOrder(slots []time.Time, loc *time.Location) []time.Time {
	ordered := make([]time.Time, len(slots))
	copy(ordered, slots)

	sort.SliceStable(ordered, func(i, j int) bool {
		left := ordered[i].In(loc)
		right := ordered[j].In(loc)

		if left.Hour() != right.Hour() {
			return left.Hour() < right.Hour()
		}

		return left.Minute() < right.Minute()
	})

	return ordered
}
