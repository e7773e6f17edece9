package business_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nearby/internal/domain/business"
)

// allWeek returns hours applying the same spans every day.
func allWeek(spans ...business.HoursSpan) business.WeeklyHours {
	hours := make(business.WeeklyHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = spans
	}
	return hours
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 11, hour, minute, 0, 0, time.UTC) // a Wednesday
}

func TestIsOpenAt_RegularHours(t *testing.T) {
	b := business.Business{
		Hours: allWeek(business.HoursSpan{OpenMinutes: 9 * 60, CloseMinutes: 17 * 60}),
	}

	assert.True(t, b.IsOpenAt(at(9, 0)))
	assert.True(t, b.IsOpenAt(at(12, 30)))
	assert.False(t, b.IsOpenAt(at(17, 0)), "close bound is exclusive")
	assert.False(t, b.IsOpenAt(at(8, 59)))
	assert.False(t, b.IsOpenAt(at(22, 0)))
}

func TestIsOpenAt_OvernightSpan(t *testing.T) {
	// Open 22:00-02:00 every day.
	b := business.Business{
		Hours: allWeek(business.HoursSpan{OpenMinutes: 22 * 60, CloseMinutes: 2 * 60}),
	}

	assert.True(t, b.IsOpenAt(at(23, 30)))
	assert.True(t, b.IsOpenAt(at(1, 0)), "early morning is covered by yesterday's span")
	assert.False(t, b.IsOpenAt(at(10, 0)))
	assert.False(t, b.IsOpenAt(at(2, 30)))
}

func TestIsOpenAt_OvernightOnlyOneDay(t *testing.T) {
	// Friday 22:00 through Saturday 02:00, nothing else.
	b := business.Business{
		Hours: business.WeeklyHours{
			time.Friday: {{OpenMinutes: 22 * 60, CloseMinutes: 2 * 60}},
		},
	}

	friday := time.Date(2026, time.March, 13, 23, 0, 0, 0, time.UTC)
	saturdayEarly := time.Date(2026, time.March, 14, 1, 30, 0, 0, time.UTC)
	saturdayNight := time.Date(2026, time.March, 14, 23, 0, 0, 0, time.UTC)

	assert.True(t, b.IsOpenAt(friday))
	assert.True(t, b.IsOpenAt(saturdayEarly))
	assert.False(t, b.IsOpenAt(saturdayNight), "the span belongs to Friday only")
}

func TestIsOpenAt_DeclaredTimezone(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("no tzdata available: %v", err)
	}

	b := business.Business{
		Timezone: "America/New_York",
		Hours:    allWeek(business.HoursSpan{OpenMinutes: 9 * 60, CloseMinutes: 17 * 60}),
	}

	// 18:00 UTC is 14:00 in New York in March (EDT): open.
	assert.True(t, b.IsOpenAt(time.Date(2026, time.March, 11, 18, 0, 0, 0, time.UTC)))

	// 23:00 UTC is 19:00 in New York: closed.
	assert.False(t, b.IsOpenAt(time.Date(2026, time.March, 11, 23, 0, 0, 0, time.UTC)))
}

func TestIsOpenAt_NoHours(t *testing.T) {
	b := business.Business{}
	assert.False(t, b.IsOpenAt(at(12, 0)))
}
