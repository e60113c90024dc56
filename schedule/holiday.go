/*
holiday.go - Non-working-day policy

PURPOSE:
  Decides whether a calendar day is a working day, and shifts raw due dates
  forward onto the next working day. The policy is a composite of four rules,
  evaluated in order with short-circuit on first match:

    1. Weekly flags    - per-weekday non-working toggle (default Sat+Sun)
    2. Fixed holidays  - (month, day) pairs recurring every year
    3. Dated holidays  - (year, month, day) entries for moving observances;
                         supplied externally, absence means "not a holiday"
    4. Event signal    - optional: any all-day event in a user calendar whose
                         title contains a configured keyword substring

THREAD SAFETY:
  HolidayPolicy is immutable after construction and safe for concurrent use.
  Replace the whole policy to change configuration.

SEE ALSO:
  - scheduler.go: consumes NextWorkingDay for holiday-shiftable kinds
  - factory/policy.go: builds HolidayPolicy from serialized config
*/
package schedule

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaxShiftDays bounds the forward walk in NextWorkingDay. Hitting it means
// the configured holiday density is unreasonable (30 consecutive non-working
// days); the walk stops and returns the last candidate instead of looping.
const MaxShiftDays = 30

// =============================================================================
// CONFIG
// =============================================================================

// MonthDay is a holiday that recurs on the same month/day every year.
type MonthDay struct {
	Month time.Month
	Day   int
	Name  string
}

// DatedHoliday is a holiday pinned to one specific date, for observances
// whose date varies by year (lunar-calendar holidays).
type DatedHoliday struct {
	Date Date
	Name string
}

// HolidayPolicyConfig is the complete rule set for one policy.
type HolidayPolicyConfig struct {
	// NonWorkingWeekdays is indexed by time.Weekday (Sunday = 0).
	NonWorkingWeekdays [7]bool

	FixedHolidays []MonthDay
	DatedHolidays []DatedHoliday

	// Keywords for the external event signal, matched case-insensitively as
	// substrings against all-day event titles.
	Keywords []string
}

// DefaultHolidayPolicyConfig returns the out-of-the-box rule set: weekends
// non-working, the standard national holiday table, default keyword list.
func DefaultHolidayPolicyConfig() HolidayPolicyConfig {
	cfg := HolidayPolicyConfig{
		FixedHolidays: DefaultFixedHolidays(),
		Keywords:      DefaultHolidayKeywords(),
	}
	cfg.NonWorkingWeekdays[time.Saturday] = true
	cfg.NonWorkingWeekdays[time.Sunday] = true
	return cfg
}

// DefaultFixedHolidays is the static national holiday table.
func DefaultFixedHolidays() []MonthDay {
	return []MonthDay{
		{time.January, 1, "New Year's Day"},
		{time.April, 23, "National Sovereignty and Children's Day"},
		{time.May, 1, "Labour Day"},
		{time.May, 19, "Commemoration of Atatürk, Youth and Sports Day"},
		{time.July, 15, "Democracy and National Unity Day"},
		{time.August, 30, "Victory Day"},
		{time.October, 29, "Republic Day"},
	}
}

// DefaultHolidayKeywords is the default match list for the event signal.
func DefaultHolidayKeywords() []string {
	return []string{
		"bayram", "tatil", "resmi tatil", "yılbaşı", "ramazan", "kurban",
		"arefe", "cumhuriyet", "atatürk", "zafer", "çocuk", "gençlik",
		"spor", "egemenlik", "işçi", "demokrasi", "milli birlik",
		"holiday", "vacation", "eid", "festival",
	}
}

// =============================================================================
// EVENT SOURCE - optional external signal
// =============================================================================

// EventSource exposes the user's calendar to the holiday policy. Only all-day
// event titles are relevant; implementations should return an empty slice
// when access has not been granted.
type EventSource interface {
	AllDayEventTitles(date Date) ([]string, error)
}

// =============================================================================
// POLICY
// =============================================================================

// NonWorkingReason identifies which composite rule matched.
type NonWorkingReason string

const (
	ReasonWeekly        NonWorkingReason = "weekly"
	ReasonFixedHoliday  NonWorkingReason = "fixed_holiday"
	ReasonDatedHoliday  NonWorkingReason = "dated_holiday"
	ReasonCalendarEvent NonWorkingReason = "calendar_event"
)

// HolidayPolicy evaluates the composite non-working-day rule set.
type HolidayPolicy struct {
	cfg      HolidayPolicyConfig
	dated    map[Date]string
	keywords []string // pre-lowercased
	events   EventSource
	log      zerolog.Logger
}

// PolicyOption customizes a HolidayPolicy.
type PolicyOption func(*HolidayPolicy)

// WithEventSource enables the external calendar signal.
func WithEventSource(src EventSource) PolicyOption {
	return func(p *HolidayPolicy) { p.events = src }
}

// WithLogger attaches a logger for cap-hit warnings.
func WithLogger(log zerolog.Logger) PolicyOption {
	return func(p *HolidayPolicy) { p.log = log }
}

// NewHolidayPolicy builds an immutable policy from cfg.
func NewHolidayPolicy(cfg HolidayPolicyConfig, opts ...PolicyOption) *HolidayPolicy {
	p := &HolidayPolicy{
		cfg:   cfg,
		dated: make(map[Date]string, len(cfg.DatedHolidays)),
		log:   zerolog.Nop(),
	}
	for _, h := range cfg.DatedHolidays {
		p.dated[h.Date] = h.Name
	}
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			p.keywords = append(p.keywords, kw)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns a copy of the rule set the policy was built from.
func (p *HolidayPolicy) Config() HolidayPolicyConfig { return p.cfg }

// IsNonWorkingDay evaluates the composite rule for a single day.
// The returned reason is empty when the day is a working day.
func (p *HolidayPolicy) IsNonWorkingDay(date Date) (bool, NonWorkingReason) {
	if p.cfg.NonWorkingWeekdays[date.Weekday()] {
		return true, ReasonWeekly
	}
	for _, h := range p.cfg.FixedHolidays {
		if h.Month == date.Month() && h.Day == date.Day() {
			return true, ReasonFixedHoliday
		}
	}
	if _, ok := p.dated[date]; ok {
		return true, ReasonDatedHoliday
	}
	if p.events != nil && len(p.keywords) > 0 {
		if p.matchesEvent(date) {
			return true, ReasonCalendarEvent
		}
	}
	return false, ""
}

func (p *HolidayPolicy) matchesEvent(date Date) bool {
	titles, err := p.events.AllDayEventTitles(date)
	if err != nil {
		// Treat a failing event source as silence, never as a holiday.
		p.log.Warn().Err(err).Stringer("date", date).Msg("event source lookup failed")
		return false
	}
	for _, title := range titles {
		lower := strings.ToLower(title)
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// NextWorkingDay walks forward from date (inclusive) until the policy stops
// matching, capped at MaxShiftDays steps. On cap hit the last-examined date is
// returned; that is a configuration smell, not a fatal condition.
func (p *HolidayPolicy) NextWorkingDay(date Date) Date {
	candidate := date
	for i := 0; i < MaxShiftDays; i++ {
		nonWorking, _ := p.IsNonWorkingDay(candidate)
		if !nonWorking {
			return candidate
		}
		candidate = candidate.AddDays(1)
	}
	p.log.Warn().
		Stringer("from", date).
		Stringer("returned", candidate).
		Int("max_days", MaxShiftDays).
		Msg("no working day found within shift bound")
	return candidate
}
