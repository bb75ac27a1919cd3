package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Availability status values reported by Summary.
const (
	AvailabilityNoSchedule = "no_schedule"
	AvailabilityScheduled  = "scheduled"
)

const minutesPerDay = 24 * 60

var weekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// TimeWindow is a half-open [Start, End) interval in minutes since midnight.
type TimeWindow struct {
	Start int
	End   int
}

type timeWindowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether minute falls inside the window.
func (w TimeWindow) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// MarshalJSON renders the window as HH:MM strings.
func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeWindowJSON{Start: FormatMinutes(w.Start), End: FormatMinutes(w.End)})
}

// UnmarshalJSON accepts free-form clock strings and normalizes them.
func (w *TimeWindow) UnmarshalJSON(data []byte) error {
	var raw timeWindowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, ok := ParseMinutes(raw.Start)
	if !ok {
		return fmt.Errorf("invalid window start %q", raw.Start)
	}
	end, ok := ParseMinutes(raw.End)
	if !ok {
		return fmt.Errorf("invalid window end %q", raw.End)
	}
	w.Start, w.End = start, end
	return nil
}

// Availability maps a lowercase weekday name to its ordered windows.
type Availability map[string][]TimeWindow

// AvailabilitySummary is the reporting view of a weekly schedule.
type AvailabilitySummary struct {
	Status        string   `json:"status"`
	AvailableDays []string `json:"available_days"`
	DayCount      int      `json:"day_count"`
	WeeklyHours   float64  `json:"weekly_hours"`
}

// UnmarshalJSON canonicalizes day keys ("Mon", "MONDAY") and sorts windows.
func (a *Availability) UnmarshalJSON(data []byte) error {
	var raw map[string][]TimeWindow
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Availability, len(raw))
	for key, windows := range raw {
		day, ok := ParseWeekday(key)
		if !ok {
			return fmt.Errorf("invalid weekday %q", key)
		}
		name := WeekdayName(day)
		out[name] = append(out[name], windows...)
	}
	for day := range out {
		sort.Slice(out[day], func(i, j int) bool { return out[day][i].Start < out[day][j].Start })
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*a = out
	return nil
}

// Scan implements sql.Scanner for jsonb columns.
func (a *Availability) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Availability{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported availability type %T", src)
	}
	if len(data) == 0 || string(data) == "null" {
		*a = Availability{}
		return nil
	}
	return a.UnmarshalJSON(data)
}

// Value implements driver.Valuer.
func (a Availability) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string][]TimeWindow(a))
}

// Validate ensures windows are well formed, sorted and disjoint per day.
func (a Availability) Validate() error {
	for day, windows := range a {
		for i, w := range windows {
			if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
				return fmt.Errorf("%s window %s-%s is empty or out of range", day, FormatMinutes(w.Start), FormatMinutes(w.End))
			}
			if i > 0 && windows[i-1].End > w.Start {
				return fmt.Errorf("%s windows overlap at %s", day, FormatMinutes(w.Start))
			}
		}
	}
	return nil
}

// IsEmpty reports the no-schedule state, which means "cannot be scheduled".
func (a Availability) IsEmpty() bool {
	for _, windows := range a {
		if len(windows) > 0 {
			return false
		}
	}
	return true
}

// IsAvailable reports whether timeOfDay lies inside a window on weekday.
// Unparseable days or times never match.
func (a Availability) IsAvailable(weekday, timeOfDay string) bool {
	day, ok := ParseWeekday(weekday)
	if !ok {
		return false
	}
	minute, ok := clockMinutes(NormalizeTime(timeOfDay))
	if !ok {
		return false
	}
	for _, w := range a[WeekdayName(day)] {
		if w.Contains(minute) {
			return true
		}
	}
	return false
}

// Covers reports whether [start, end) fits entirely inside one window on day.
func (a Availability) Covers(day time.Weekday, start, end int) bool {
	if end > minutesPerDay {
		return false
	}
	for _, w := range a[WeekdayName(day)] {
		if start >= w.Start && end <= w.End {
			return true
		}
	}
	return false
}

// TotalWeeklyMinutes sums the length of every window.
func (a Availability) TotalWeeklyMinutes() int {
	total := 0
	for _, windows := range a {
		for _, w := range windows {
			total += w.End - w.Start
		}
	}
	return total
}

// Summary builds the reporting view, listing days Monday first.
func (a Availability) Summary() AvailabilitySummary {
	days := make([]string, 0, len(weekOrder))
	for _, day := range weekOrder {
		if len(a[WeekdayName(day)]) > 0 {
			days = append(days, WeekdayName(day))
		}
	}
	status := AvailabilityScheduled
	if len(days) == 0 {
		status = AvailabilityNoSchedule
	}
	hours := float64(a.TotalWeeklyMinutes()) / 60
	return AvailabilitySummary{
		Status:        status,
		AvailableDays: days,
		DayCount:      len(days),
		WeeklyHours:   math.Round(hours*100) / 100,
	}
}

// WeekdayName returns the canonical lowercase key for day.
func WeekdayName(day time.Weekday) string {
	return strings.ToLower(day.String())
}

// ParseWeekday accepts full names or prefixes of at least three letters, in any case.
func ParseWeekday(raw string) (time.Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if len(value) < 3 {
		return 0, false
	}
	for _, day := range weekOrder {
		if strings.HasPrefix(WeekdayName(day), value) {
			return day, true
		}
	}
	return 0, false
}

// NormalizeTime converts "14", "2:30 PM", "09:00:00" and similar into 24-hour
// HH:MM. Values that cannot be parsed are returned unchanged.
func NormalizeTime(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return raw
	}

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(value, suffix) {
			meridiem = suffix
			value = strings.TrimSpace(strings.TrimSuffix(value, suffix))
			break
		}
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return raw
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		if part == "" || len(part) > 2 {
			return raw
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return raw
		}
		nums[i] = n
	}

	hour, minute := nums[0], 0
	if len(nums) > 1 {
		minute = nums[1]
	}
	if len(nums) > 2 && nums[2] > 59 {
		return raw
	}
	if minute > 59 {
		return raw
	}

	switch meridiem {
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return raw
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	default:
		if hour > 23 {
			return raw
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseMinutes normalizes raw and returns minutes since midnight. "24:00" is
// accepted so a window can close at the end of the day.
func ParseMinutes(raw string) (int, bool) {
	if strings.TrimSpace(raw) == "24:00" {
		return minutesPerDay, true
	}
	return clockMinutes(NormalizeTime(raw))
}

// FormatMinutes renders minutes since midnight as HH:MM.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func clockMinutes(value string) (int, bool) {
	if len(value) != 5 || value[2] != ':' {
		return 0, false
	}
	hour, err := strconv.Atoi(value[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(value[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
