package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywarden/obligation-engine/factory"
	"github.com/paywarden/obligation-engine/schedule"
)

func TestParsePolicy_FullDocument(t *testing.T) {
	doc := []byte(`{
		"non_working_weekdays": {"friday": true, "saturday": true},
		"fixed_holidays": [{"month": 1, "day": 1, "name": "New Year's Day"}],
		"dated_holidays": [{"date": "2026-03-20", "name": "Ramadan Feast Day 1"}],
		"keywords": ["bayram"]
	}`)

	cfg, err := factory.ParsePolicy(doc)
	require.NoError(t, err)

	assert.True(t, cfg.NonWorkingWeekdays[time.Friday])
	assert.True(t, cfg.NonWorkingWeekdays[time.Saturday])
	assert.False(t, cfg.NonWorkingWeekdays[time.Sunday])

	require.Len(t, cfg.FixedHolidays, 1)
	assert.Equal(t, time.January, cfg.FixedHolidays[0].Month)

	require.Len(t, cfg.DatedHolidays, 1)
	assert.Equal(t, schedule.NewDate(2026, time.March, 20), cfg.DatedHolidays[0].Date)

	assert.Equal(t, []string{"bayram"}, cfg.Keywords)
}

func TestParsePolicy_EmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := factory.ParsePolicy([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultHolidayPolicyConfig(), cfg)
}

func TestParsePolicy_RejectsBadData(t *testing.T) {
	cases := map[string]string{
		"month out of range": `{"fixed_holidays": [{"month": 13, "day": 1}]}`,
		"day out of range":   `{"fixed_holidays": [{"month": 1, "day": 32}]}`,
		"bad date":           `{"dated_holidays": [{"date": "20/03/2026"}]}`,
		"not json":           `{`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParsePolicy([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestPolicyDocument_RoundTrip(t *testing.T) {
	original := schedule.DefaultHolidayPolicyConfig()
	original.DatedHolidays = []schedule.DatedHoliday{
		{Date: schedule.NewDate(2026, time.March, 20), Name: "Ramadan Feast Day 1"},
	}

	encoded, err := factory.EncodePolicy(original)
	require.NoError(t, err)

	back, err := factory.ParsePolicy(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}
