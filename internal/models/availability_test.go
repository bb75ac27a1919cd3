package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"14":       "14:00",
		"9":        "09:00",
		"14:30":    "14:30",
		"2:30 PM":  "14:30",
		"2:30pm":   "14:30",
		"12 AM":    "00:00",
		"12:15 PM": "12:15",
		"09:00:00": "09:00",
		" 7:05 ":   "07:05",
		"25:00":    "25:00",
		"13 PM":    "13 PM",
		"noon":     "noon",
		"":         "",
		"10:75":    "10:75",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeTime(input), "input %q", input)
	}
}

func TestNormalizeTimeIdempotent(t *testing.T) {
	for _, value := range []string{"14:30", "00:00", "23:59"} {
		once := NormalizeTime(value)
		assert.Equal(t, value, once)
		assert.Equal(t, once, NormalizeTime(once))
	}
}

func TestParseWeekday(t *testing.T) {
	day, ok := ParseWeekday("Mon")
	require.True(t, ok)
	assert.Equal(t, time.Monday, day)

	day, ok = ParseWeekday("SUNDAY")
	require.True(t, ok)
	assert.Equal(t, time.Sunday, day)

	_, ok = ParseWeekday("mo")
	assert.False(t, ok)
	_, ok = ParseWeekday("funday")
	assert.False(t, ok)
}

func TestAvailabilityIsAvailableHalfOpen(t *testing.T) {
	var availability Availability
	require.NoError(t, json.Unmarshal([]byte(`{"monday":[{"start":"09:00","end":"12:00"}]}`), &availability))

	assert.True(t, availability.IsAvailable("monday", "11:30"))
	assert.True(t, availability.IsAvailable("Mon", "9 AM"))
	assert.False(t, availability.IsAvailable("monday", "12:00"))
	assert.False(t, availability.IsAvailable("tuesday", "10:00"))
	assert.False(t, availability.IsAvailable("monday", "garbage"))
}

func TestAvailabilityUnmarshalCanonicalizesAndSorts(t *testing.T) {
	var availability Availability
	payload := `{"Wed":[{"start":"2 PM","end":"16:00"},{"start":"08:00","end":"10:00"}],"FRIDAY":[{"start":"18:00","end":"24:00"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &availability))

	require.Len(t, availability["wednesday"], 2)
	assert.Equal(t, TimeWindow{Start: 480, End: 600}, availability["wednesday"][0])
	assert.Equal(t, TimeWindow{Start: 840, End: 960}, availability["wednesday"][1])
	assert.Equal(t, TimeWindow{Start: 1080, End: 1440}, availability["friday"][0])
}

func TestAvailabilityRejectsOverlap(t *testing.T) {
	var availability Availability
	payload := `{"monday":[{"start":"09:00","end":"11:00"},{"start":"10:30","end":"12:00"}]}`
	assert.Error(t, json.Unmarshal([]byte(payload), &availability))

	payload = `{"monday":[{"start":"11:00","end":"09:00"}]}`
	assert.Error(t, json.Unmarshal([]byte(payload), &availability))
}

func TestAvailabilityScanAndValue(t *testing.T) {
	var availability Availability
	require.NoError(t, availability.Scan([]byte(`{"tuesday":[{"start":"10:00","end":"11:30"}]}`)))
	assert.Equal(t, 90, availability.TotalWeeklyMinutes())

	value, err := availability.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tuesday":[{"start":"10:00","end":"11:30"}]}`, string(value.([]byte)))

	var empty Availability
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsEmpty())

	assert.Error(t, availability.Scan(42))
}

func TestAvailabilityCovers(t *testing.T) {
	availability := Availability{"monday": {{Start: 540, End: 720}}}

	assert.True(t, availability.Covers(time.Monday, 540, 600))
	assert.True(t, availability.Covers(time.Monday, 660, 720))
	assert.False(t, availability.Covers(time.Monday, 690, 750))
	assert.False(t, availability.Covers(time.Tuesday, 540, 600))
}

func TestAvailabilitySummary(t *testing.T) {
	assert.Equal(t, AvailabilitySummary{
		Status:        AvailabilityNoSchedule,
		AvailableDays: []string{},
		DayCount:      0,
		WeeklyHours:   0,
	}, Availability{}.Summary())

	availability := Availability{
		"sunday":  {{Start: 600, End: 700}},
		"monday":  {{Start: 540, End: 720}},
		"tuesday": {},
	}
	summary := availability.Summary()
	assert.Equal(t, AvailabilityScheduled, summary.Status)
	assert.Equal(t, []string{"monday", "sunday"}, summary.AvailableDays)
	assert.Equal(t, 2, summary.DayCount)
	assert.Equal(t, 4.67, summary.WeeklyHours)
}

func TestEndsSameDay(t *testing.T) {
	assert.True(t, EndsSameDay("23:00", 60))
	assert.True(t, EndsSameDay("9:00 AM", 90))
	assert.False(t, EndsSameDay("23:30", 60))
	assert.False(t, EndsSameDay("11:30 PM", 31))
	assert.True(t, EndsSameDay("bogus", 600))
}
