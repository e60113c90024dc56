/*
Package factory converts serialized holiday policy definitions into
schedule.HolidayPolicy objects.

PURPOSE:
  Holiday rules change without code changes - a finance admin edits the
  policy document (JSON over the API, YAML in the config file) and the
  factory builds the proper schedule types. The same document shape is
  replicated through the sync settings channel so every device applies
  identical shifting rules.

DOCUMENT SCHEMA:
  {
    "non_working_weekdays": {"saturday": true, "sunday": true},
    "fixed_holidays": [
      {"month": 1, "day": 1, "name": "New Year's Day"}
    ],
    "dated_holidays": [
      {"date": "2026-03-20", "name": "Ramadan Feast Day 1"}
    ],
    "keywords": ["holiday", "bayram"]
  }

KEY FEATURES:
  - Validates month/day ranges and date formats
  - Empty document falls back to the built-in defaults
  - Round-trips: FromConfig(ToConfig(doc)) preserves meaning
  - Carries both json and yaml tags so the config file reuses the shape

SEE ALSO:
  - schedule/holiday.go: HolidayPolicyConfig and HolidayPolicy
  - config/config.go: embeds PolicyDocument in the app config
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// WeekdayFlags names each weekday explicitly so documents stay readable.
type WeekdayFlags struct {
	Sunday    bool `json:"sunday,omitempty" yaml:"sunday,omitempty"`
	Monday    bool `json:"monday,omitempty" yaml:"monday,omitempty"`
	Tuesday   bool `json:"tuesday,omitempty" yaml:"tuesday,omitempty"`
	Wednesday bool `json:"wednesday,omitempty" yaml:"wednesday,omitempty"`
	Thursday  bool `json:"thursday,omitempty" yaml:"thursday,omitempty"`
	Friday    bool `json:"friday,omitempty" yaml:"friday,omitempty"`
	Saturday  bool `json:"saturday,omitempty" yaml:"saturday,omitempty"`
}

// FixedHolidayDoc is a holiday recurring on the same month/day every year.
type FixedHolidayDoc struct {
	Month int    `json:"month" yaml:"month"`
	Day   int    `json:"day" yaml:"day"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DatedHolidayDoc is a holiday pinned to one calendar date (religious
// holidays move every year and must be listed per year).
type DatedHolidayDoc struct {
	Date string `json:"date" yaml:"date"` // YYYY-MM-DD
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// PolicyDocument is the serialized representation of a holiday policy.
type PolicyDocument struct {
	NonWorkingWeekdays WeekdayFlags      `json:"non_working_weekdays" yaml:"non_working_weekdays"`
	FixedHolidays      []FixedHolidayDoc `json:"fixed_holidays,omitempty" yaml:"fixed_holidays,omitempty"`
	DatedHolidays      []DatedHolidayDoc `json:"dated_holidays,omitempty" yaml:"dated_holidays,omitempty"`
	Keywords           []string          `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPolicyDocument mirrors schedule.DefaultHolidayPolicyConfig.
func DefaultPolicyDocument() PolicyDocument {
	return FromConfig(schedule.DefaultHolidayPolicyConfig())
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToConfig validates the document and builds a HolidayPolicyConfig.
func (d PolicyDocument) ToConfig() (schedule.HolidayPolicyConfig, error) {
	var cfg schedule.HolidayPolicyConfig

	cfg.NonWorkingWeekdays[time.Sunday] = d.NonWorkingWeekdays.Sunday
	cfg.NonWorkingWeekdays[time.Monday] = d.NonWorkingWeekdays.Monday
	cfg.NonWorkingWeekdays[time.Tuesday] = d.NonWorkingWeekdays.Tuesday
	cfg.NonWorkingWeekdays[time.Wednesday] = d.NonWorkingWeekdays.Wednesday
	cfg.NonWorkingWeekdays[time.Thursday] = d.NonWorkingWeekdays.Thursday
	cfg.NonWorkingWeekdays[time.Friday] = d.NonWorkingWeekdays.Friday
	cfg.NonWorkingWeekdays[time.Saturday] = d.NonWorkingWeekdays.Saturday

	for _, fh := range d.FixedHolidays {
		if fh.Month < 1 || fh.Month > 12 {
			return cfg, fmt.Errorf("fixed holiday %q: month %d out of range", fh.Name, fh.Month)
		}
		if fh.Day < 1 || fh.Day > 31 {
			return cfg, fmt.Errorf("fixed holiday %q: day %d out of range", fh.Name, fh.Day)
		}
		cfg.FixedHolidays = append(cfg.FixedHolidays, schedule.MonthDay{
			Month: time.Month(fh.Month),
			Day:   fh.Day,
			Name:  fh.Name,
		})
	}

	for _, dh := range d.DatedHolidays {
		date, err := schedule.ParseDate(dh.Date)
		if err != nil {
			return cfg, fmt.Errorf("dated holiday %q: %w", dh.Name, err)
		}
		cfg.DatedHolidays = append(cfg.DatedHolidays, schedule.DatedHoliday{
			Date: date,
			Name: dh.Name,
		})
	}

	cfg.Keywords = append(cfg.Keywords, d.Keywords...)
	return cfg, nil
}

// FromConfig builds the serialized document for a config, used when
// exporting the active policy over the API or the sync settings channel.
func FromConfig(cfg schedule.HolidayPolicyConfig) PolicyDocument {
	var doc PolicyDocument

	doc.NonWorkingWeekdays.Sunday = cfg.NonWorkingWeekdays[time.Sunday]
	doc.NonWorkingWeekdays.Monday = cfg.NonWorkingWeekdays[time.Monday]
	doc.NonWorkingWeekdays.Tuesday = cfg.NonWorkingWeekdays[time.Tuesday]
	doc.NonWorkingWeekdays.Wednesday = cfg.NonWorkingWeekdays[time.Wednesday]
	doc.NonWorkingWeekdays.Thursday = cfg.NonWorkingWeekdays[time.Thursday]
	doc.NonWorkingWeekdays.Friday = cfg.NonWorkingWeekdays[time.Friday]
	doc.NonWorkingWeekdays.Saturday = cfg.NonWorkingWeekdays[time.Saturday]

	for _, fh := range cfg.FixedHolidays {
		doc.FixedHolidays = append(doc.FixedHolidays, FixedHolidayDoc{
			Month: int(fh.Month),
			Day:   fh.Day,
			Name:  fh.Name,
		})
	}
	for _, dh := range cfg.DatedHolidays {
		doc.DatedHolidays = append(doc.DatedHolidays, DatedHolidayDoc{
			Date: dh.Date.String(),
			Name: dh.Name,
		})
	}
	doc.Keywords = append(doc.Keywords, cfg.Keywords...)
	return doc
}

// =============================================================================
// JSON ENCODING
// =============================================================================

// ParsePolicy decodes a JSON policy document and builds the config.
// An empty document yields the defaults.
func ParsePolicy(data []byte) (schedule.HolidayPolicyConfig, error) {
	var doc PolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return schedule.HolidayPolicyConfig{}, fmt.Errorf("parse policy document: %w", err)
	}
	if doc.isEmpty() {
		return schedule.DefaultHolidayPolicyConfig(), nil
	}
	return doc.ToConfig()
}

// EncodePolicy serializes a config as a JSON policy document.
func EncodePolicy(cfg schedule.HolidayPolicyConfig) ([]byte, error) {
	return json.Marshal(FromConfig(cfg))
}

func (d PolicyDocument) isEmpty() bool {
	return d.NonWorkingWeekdays == WeekdayFlags{} &&
		len(d.FixedHolidays) == 0 &&
		len(d.DatedHolidays) == 0 &&
		len(d.Keywords) == 0
}
