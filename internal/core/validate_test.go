package core

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

func validRecord() models.GoalRecord {
	return models.GoalRecord{
		Title:       "Read 12 books",
		Description: "one per month",
		TargetValue: 12,
	}
}

func TestValidateGoalData(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.GoalRecord)
		wantErr string
	}{
		{
			name:   "valid record",
			mutate: func(r *models.GoalRecord) {},
		},
		{
			name:    "missing title",
			mutate:  func(r *models.GoalRecord) { r.Title = "" },
			wantErr: "missing required field: title",
		},
		{
			name:    "missing description",
			mutate:  func(r *models.GoalRecord) { r.Description = "  " },
			wantErr: "missing required field: description",
		},
		{
			name:    "missing target",
			mutate:  func(r *models.GoalRecord) { r.TargetValue = 0 },
			wantErr: "missing required field: target_value",
		},
		{
			name:    "two-character title",
			mutate:  func(r *models.GoalRecord) { r.Title = "ab" },
			wantErr: "title must be at least 3 characters",
		},
		{
			name:    "overlong title",
			mutate:  func(r *models.GoalRecord) { r.Title = strings.Repeat("x", 101) },
			wantErr: "title must be at most 100 characters",
		},
		{
			name:    "negative target",
			mutate:  func(r *models.GoalRecord) { r.TargetValue = -3 },
			wantErr: "target_value must be greater than 0",
		},
		{
			name:    "target too large",
			mutate:  func(r *models.GoalRecord) { r.TargetValue = 2_000_000 },
			wantErr: "target_value is too large",
		},
		{
			name: "past deadline",
			mutate: func(r *models.GoalRecord) {
				d := "2020-01-01"
				r.Deadline = &d
			},
			wantErr: "invalid deadline",
		},
		{
			name: "rfc3339 deadline is trusted",
			mutate: func(r *models.GoalRecord) {
				d := time.Now().AddDate(1, 0, 0).Format(time.RFC3339)
				r.Deadline = &d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			errs := ValidateGoalData(rec)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("ValidateGoalData() = %v, want no errors", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantErr) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("ValidateGoalData() = %v, want error containing %q", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateGoalDataCollectsAllProblems(t *testing.T) {
	rec := models.GoalRecord{Title: "ab", Description: "", TargetValue: -1}
	errs := ValidateGoalData(rec)
	if len(errs) < 3 {
		t.Fatalf("ValidateGoalData() = %v, want at least 3 problems reported", errs)
	}
}

func TestValidateProgressValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "plain number", raw: "42.5", want: 42.5},
		{name: "trimmed", raw: "  7 ", want: 7},
		{name: "zero", raw: "0", want: 0},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "too large", raw: "1000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProgressValue(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateProgressValue(%q) = %g, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateProgressValue(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ValidateProgressValue(%q) = %g, want %g", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateDateFormat(t *testing.T) {
	future := time.Now().AddDate(0, 6, 0)
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{name: "iso format", date: future.Format("2006-01-02")},
		{name: "dotted format", date: future.Format("02.01.2006")},
		{name: "slashed format", date: future.Format("02/01/2006")},
		{name: "empty", date: "", wantErr: true},
		{name: "garbage", date: "next tuesday", wantErr: true},
		{name: "today is valid", date: time.Now().Format("2006-01-02")},
		{name: "past date", date: "2020-06-01", wantErr: true},
		{name: "yesterday", date: time.Now().AddDate(0, 0, -1).Format("2006-01-02"), wantErr: true},
		{name: "too far ahead", date: time.Now().AddDate(11, 0, 0).Format("2006-01-02"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateFormat(tt.date)
			if tt.wantErr && err == nil {
				t.Fatalf("ValidateDateFormat(%q) succeeded, want error", tt.date)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateDateFormat(%q) failed: %v", tt.date, err)
			}
		})
	}
}

func TestParseDeadline(t *testing.T) {
	got, err := ParseDeadline("31.12.2026")
	if err != nil {
		t.Fatalf("ParseDeadline() failed: %v", err)
	}
	want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDeadline() = %v, want %v", got, want)
	}

	if _, err := ParseDeadline("soon"); err == nil {
		t.Fatal("ParseDeadline(garbage) must fail")
	}
}
