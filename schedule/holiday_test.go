package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func defaultPolicy() *schedule.HolidayPolicy {
	return schedule.NewHolidayPolicy(schedule.DefaultHolidayPolicyConfig())
}

// stubEvents serves fixed all-day event titles per date.
type stubEvents struct {
	titles map[schedule.Date][]string
	err    error
}

func (s *stubEvents) AllDayEventTitles(date schedule.Date) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.titles[date], nil
}

// =============================================================================
// NON-WORKING DAY RULES
// =============================================================================

func TestIsNonWorkingDay_Weekend(t *testing.T) {
	p := defaultPolicy()

	// 2025-05-24 is a Saturday, 2025-05-25 a Sunday.
	nonWorking, reason := p.IsNonWorkingDay(schedule.NewDate(2025, time.May, 24))
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonWeekly, reason)

	nonWorking, reason = p.IsNonWorkingDay(schedule.NewDate(2025, time.May, 25))
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonWeekly, reason)

	nonWorking, _ = p.IsNonWorkingDay(schedule.NewDate(2025, time.May, 26)) // Monday
	assert.False(t, nonWorking)
}

func TestIsNonWorkingDay_FixedHoliday(t *testing.T) {
	p := defaultPolicy()

	// Labour Day falls on a Thursday in 2025; only the holiday rule matches.
	nonWorking, reason := p.IsNonWorkingDay(schedule.NewDate(2025, time.May, 1))
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonFixedHoliday, reason)

	// Recurs every year.
	nonWorking, reason = p.IsNonWorkingDay(schedule.NewDate(2031, time.May, 1))
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonFixedHoliday, reason)
}

func TestIsNonWorkingDay_DatedHoliday(t *testing.T) {
	cfg := schedule.DefaultHolidayPolicyConfig()
	cfg.DatedHolidays = append(cfg.DatedHolidays, schedule.DatedHoliday{
		Date: schedule.NewDate(2025, time.March, 31),
		Name: "Ramadan Feast Day 2",
	})
	p := schedule.NewHolidayPolicy(cfg)

	nonWorking, reason := p.IsNonWorkingDay(schedule.NewDate(2025, time.March, 31))
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonDatedHoliday, reason)

	// Dated entries do not recur.
	nonWorking, _ = p.IsNonWorkingDay(schedule.NewDate(2026, time.March, 31))
	assert.False(t, nonWorking)
}

func TestIsNonWorkingDay_EventKeyword(t *testing.T) {
	// GIVEN: an all-day event titled with a configured keyword
	day := schedule.NewDate(2025, time.June, 4) // Wednesday
	src := &stubEvents{titles: map[schedule.Date][]string{
		day: {"Kurban Bayramı (Day 1)"},
	}}
	p := schedule.NewHolidayPolicy(schedule.DefaultHolidayPolicyConfig(), schedule.WithEventSource(src))

	// THEN: keyword match is case-insensitive substring
	nonWorking, reason := p.IsNonWorkingDay(day)
	assert.True(t, nonWorking)
	assert.Equal(t, schedule.ReasonCalendarEvent, reason)

	// A title without keywords is a working day.
	nonWorking, _ = p.IsNonWorkingDay(schedule.NewDate(2025, time.June, 5))
	assert.False(t, nonWorking)
}

func TestIsNonWorkingDay_EventSourceFailureIsSilence(t *testing.T) {
	src := &stubEvents{err: errors.New("calendar unavailable")}
	p := schedule.NewHolidayPolicy(schedule.DefaultHolidayPolicyConfig(), schedule.WithEventSource(src))

	nonWorking, _ := p.IsNonWorkingDay(schedule.NewDate(2025, time.June, 4))
	assert.False(t, nonWorking, "a failing event source must never create a holiday")
}

// =============================================================================
// NEXT WORKING DAY
// =============================================================================

func TestNextWorkingDay_WorkingDayIsFixpoint(t *testing.T) {
	p := defaultPolicy()
	monday := schedule.NewDate(2025, time.May, 26)
	assert.Equal(t, monday, p.NextWorkingDay(monday))
	// Idempotent: shifting a shifted date changes nothing.
	assert.Equal(t, monday, p.NextWorkingDay(p.NextWorkingDay(monday)))
}

func TestNextWorkingDay_SkipsWeekend(t *testing.T) {
	p := defaultPolicy()
	saturday := schedule.NewDate(2025, time.May, 24)
	assert.Equal(t, schedule.NewDate(2025, time.May, 26), p.NextWorkingDay(saturday))
}

func TestNextWorkingDay_ChainsHolidayIntoWeekend(t *testing.T) {
	p := defaultPolicy()
	// Victory Day 2025-08-30 is a Saturday; Sunday follows, Monday is clear.
	assert.Equal(t, schedule.NewDate(2025, time.September, 1),
		p.NextWorkingDay(schedule.NewDate(2025, time.August, 30)))
}

func TestNextWorkingDay_CapStopsDegenerateConfig(t *testing.T) {
	// GIVEN: every weekday flagged non-working
	var cfg schedule.HolidayPolicyConfig
	for i := range cfg.NonWorkingWeekdays {
		cfg.NonWorkingWeekdays[i] = true
	}
	p := schedule.NewHolidayPolicy(cfg)

	// THEN: the walk terminates after the shift bound instead of looping
	start := schedule.NewDate(2025, time.May, 1)
	assert.Equal(t, start.AddDays(schedule.MaxShiftDays), p.NextWorkingDay(start))
}
