package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a daily wall-clock time
type Schedule struct {
	Hour   int
	Minute int
}

// ParseSchedule parses a daily cron expression "minute hour * * *".
// Day, month and weekday fields must be "*".
func ParseSchedule(expr string) (Schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return Schedule{}, fmt.Errorf("%w: %q needs 5 fields", ErrInvalidSchedule, expr)
	}
	for _, p := range parts[2:] {
		if p != "*" {
			return Schedule{}, fmt.Errorf("%w: %q only daily schedules are supported", ErrInvalidSchedule, expr)
		}
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return Schedule{}, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}

	return Schedule{Hour: hour, Minute: minute}, nil
}

// Matches reports whether t falls on the scheduled minute
func (s Schedule) Matches(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// Next returns the first scheduled time strictly after t
func (s Schedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s Schedule) String() string {
	return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
}
