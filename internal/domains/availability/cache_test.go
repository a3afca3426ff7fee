package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"concierge/internal/domains/availability"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    availability.Day
		wantErr bool
	}{
		{
			name:  "valid date",
			input: "2026-09-14",
			want:  availability.Day("2026-09-14"),
		},
		{
			name:    "wrong layout",
			input:   "14/09/2026",
			wantErr: true,
		},
		{
			name:    "not a date",
			input:   "tomorrow",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := availability.ParseDay(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, day)
			}
		})
	}
}

func TestDayBefore(t *testing.T) {
	earlier := availability.Day("2026-09-14")
	later := availability.Day("2026-10-02")

	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))
	assert.False(t, earlier.Before(earlier))
}

func TestDayOf(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	assert.NoError(t, err)

	// Just past midnight in Jakarta is still the previous day in UTC.
	instant := time.Date(2026, 9, 15, 0, 30, 0, 0, jakarta)

	assert.Equal(t, availability.Day("2026-09-15"), availability.DayOf(instant))
	assert.Equal(t, availability.Day("2026-09-14"), availability.DayOf(instant.UTC()))
}

func TestCacheCheckedVersusUnchecked(t *testing.T) {
	cache := availability.NewCache()

	checkedEmpty := availability.Day("2026-09-14")
	unchecked := availability.Day("2026-09-15")

	cache.Upsert(availability.Availability{
		checkedEmpty: {},
	})

	assert.True(t, cache.Checked(checkedEmpty))
	assert.False(t, cache.Checked(unchecked))

	assert.Empty(t, cache.SlotsFor(checkedEmpty))
	assert.Empty(t, cache.SlotsFor(unchecked))

	assert.False(t, cache.HasAvailability(checkedEmpty))
	assert.False(t, cache.HasAvailability(unchecked))
}

func TestCacheRepeatedReadsAreStable(t *testing.T) {
	cache := availability.NewCache()

	day := availability.Day("2026-09-14")
	slots := []time.Time{
		time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
	}

	cache.Upsert(availability.Availability{day: slots})

	first := cache.SlotsFor(day)
	second := cache.SlotsFor(day)

	assert.Equal(t, first, second)
	assert.True(t, cache.HasAvailability(day))
}

func TestCacheUpsertOverwritesDay(t *testing.T) {
	cache := availability.NewCache()

	day := availability.Day("2026-09-14")

	cache.Upsert(availability.Availability{
		day: {
			time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		},
	})

	// A newer fetch for the same day fully replaces the older slots.
	cache.Upsert(availability.Availability{
		day: {
			time.Date(2026, 9, 14, 14, 0, 0, 0, time.UTC),
		},
	})

	slots := cache.SlotsFor(day)

	assert.Len(t, slots, 1)
	assert.Equal(t, 14, slots[0].Hour())
}

func TestCacheUpsertKeepsOtherDays(t *testing.T) {
	cache := availability.NewCache()

	first := availability.Day("2026-09-14")
	second := availability.Day("2026-09-15")

	cache.Upsert(availability.Availability{
		first: {time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)},
	})
	cache.Upsert(availability.Availability{
		second: {time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC)},
	})

	assert.True(t, cache.HasAvailability(first))
	assert.True(t, cache.HasAvailability(second))
}

func TestDisplayOrder(t *testing.T) {
	day := []time.Time{
		time.Date(2026, 9, 14, 15, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 11, 0, 0, 0, time.UTC),
	}

	ordered := availability.DisplayOrder(day, time.UTC)

	assert.Len(t, ordered, 4)
	assert.Equal(t, 9, ordered[0].Hour())
	assert.Equal(t, 11, ordered[1].Hour())
	assert.Equal(t, 15, ordered[2].Hour())
	assert.Equal(t, 0, ordered[2].Minute())
	assert.Equal(t, 30, ordered[3].Minute())

	// The input sequence is left untouched.
	assert.Equal(t, 15, day[0].Hour())
}

func TestDisplayOrderUsesLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	assert.NoError(t, err)

	// 22:00 UTC is 05:00 the next day in Jakarta, so it sorts before 10:00 UTC
	// (17:00 Jakarta) when ordered in the Jakarta location.
	late := time.Date(2026, 9, 14, 22, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	ordered := availability.DisplayOrder([]time.Time{morning, late}, jakarta)

	assert.True(t, ordered[0].Equal(late))
	assert.True(t, ordered[1].Equal(morning))
}
