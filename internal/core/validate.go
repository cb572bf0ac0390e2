package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// Bounds enforced by the validators. These mirror the persisted format's
// limits, not hard entity preconditions.
const (
	MinTitleLength   = 3
	MaxTitleLength   = 100
	MaxTargetValue   = 1_000_000
	MaxProgressValue = 999_999
	MaxDeadlineYears = 10
)

// dateLayouts are the accepted deadline input formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
}

// ValidateGoalData performs structural validation of a goal record before it
// enters the registry. It returns all problems found rather than stopping at
// the first one; an empty slice means the record is valid.
func ValidateGoalData(rec models.GoalRecord) []string {
	var errs []string

	if strings.TrimSpace(rec.Title) == "" {
		errs = append(errs, "missing required field: title")
	}
	if strings.TrimSpace(rec.Description) == "" {
		errs = append(errs, "missing required field: description")
	}
	if rec.TargetValue == 0 {
		errs = append(errs, "missing required field: target_value")
	}

	if title := strings.TrimSpace(rec.Title); title != "" {
		if len([]rune(title)) < MinTitleLength {
			errs = append(errs, fmt.Sprintf("title must be at least %d characters", MinTitleLength))
		} else if len([]rune(title)) > MaxTitleLength {
			errs = append(errs, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
		}
	}

	if rec.TargetValue != 0 {
		if rec.TargetValue < 0 {
			errs = append(errs, "target_value must be greater than 0")
		} else if rec.TargetValue > MaxTargetValue {
			errs = append(errs, fmt.Sprintf("target_value is too large (max %d)", MaxTargetValue))
		}
	}

	// Bare dates (no time component) go through the full date checker;
	// RFC 3339 timestamps were produced by us and are trusted.
	if rec.Deadline != nil && *rec.Deadline != "" {
		deadline := *rec.Deadline
		if !strings.Contains(deadline, "T") && len(deadline) <= 10 {
			if err := ValidateDateFormat(deadline); err != nil {
				errs = append(errs, fmt.Sprintf("invalid deadline: %s", err))
			}
		}
	}

	return errs
}

// ValidateProgressValue checks a proposed progress value. The raw input is a
// string so malformed user and CSV input reports a structured failure instead
// of silently becoming zero.
func ValidateProgressValue(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("progress value must be a number")
	}
	if value < 0 {
		return 0, fmt.Errorf("progress value must not be negative")
	}
	if value > MaxProgressValue {
		return 0, fmt.Errorf("progress value is too large (max %d)", MaxProgressValue)
	}
	return value, nil
}

// ValidateDateFormat checks a user-supplied date string against the accepted
// layouts and rejects dates in the past or more than MaxDeadlineYears ahead.
func ValidateDateFormat(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("date must not be empty")
	}

	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("unrecognized date format %q (use YYYY-MM-DD, DD.MM.YYYY or DD/MM/YYYY)", s)
	}

	// Compare whole local days so a deadline of "today" stays valid right up
	// to midnight regardless of time zone.
	ny, nm, nd := time.Now().Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.Local)
	py, pm, pd := parsed.Date()
	day := time.Date(py, pm, pd, 0, 0, 0, 0, time.Local)
	if day.Before(today) {
		return fmt.Errorf("date %q is in the past", s)
	}
	if day.After(today.AddDate(MaxDeadlineYears, 0, 0)) {
		return fmt.Errorf("date %q is too far in the future (max %d years)", s, MaxDeadlineYears)
	}
	return nil
}

// ParseDeadline converts a validated date string into a timestamp using the
// same layout set as ValidateDateFormat.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
