package exchange

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// MaxImportSize caps accepted import payloads at 10 MB.
const MaxImportSize = 10_000_000

// ErrImportTooLarge is returned when a payload exceeds MaxImportSize.
var ErrImportTooLarge = errors.New("import payload too large")

// importedGoal is the accepted shape of one incoming goal record. Only
// title, description, and target_value are required; the rest default.
type importedGoal struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetValue  any    `json:"target_value"`
	CurrentValue any    `json:"current_value"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	CreatedDate  string `json:"created_date"`
	Deadline     string `json:"deadline"`
}

// importPayload accepts the {"goals": [...]} envelope form.
type importPayload struct {
	Goals []importedGoal `json:"goals"`
}

// ImportReport aggregates per-record outcomes of a batch import. There is no
// all-or-nothing guarantee; each record succeeds or fails on its own.
type ImportReport struct {
	Total     int      `json:"total_goals"`
	Succeeded int      `json:"imported_successfully"`
	Failed    int      `json:"failed_imports"`
	Errors    []string `json:"errors"`
}

// Importer converts external JSON/CSV payloads into goals and feeds them
// through the registry's add path.
type Importer struct {
	registry core.GoalRegistry
	user     string
	events   core.EventRecorder
	webhooks *WebhookRegistry
}

// NewImporter creates an Importer adding goals for the given user.
// events and webhooks may be nil.
func NewImporter(registry core.GoalRegistry, user string, events core.EventRecorder, webhooks *WebhookRegistry) *Importer {
	return &Importer{registry: registry, user: user, events: events, webhooks: webhooks}
}

// ImportJSON accepts either a bare list of goal records or an object with a
// "goals" key, validates each record, and adds the valid ones as goals of
// the given kind.
func (im *Importer) ImportJSON(data []byte, kind models.GoalKind) (*ImportReport, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("importing JSON: %w (%d bytes, max %d)", ErrImportTooLarge, len(data), MaxImportSize)
	}

	goals, err := decodeImportPayload(data)
	if err != nil {
		return nil, fmt.Errorf("importing JSON: %w", err)
	}

	report := &ImportReport{Total: len(goals)}
	for i, in := range goals {
		if err := im.importOne(in, kind); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("goal %d: %s", i+1, err))
			continue
		}
		report.Succeeded++
	}

	im.finish("json", report)
	return report, nil
}

// ImportCSV parses the payload with a header row, applies the optional
// field-name remapping, and feeds each row through the JSON import path.
// A nil mapping is the identity mapping over the known field names.
func (im *Importer) ImportCSV(data []byte, mapping map[string]string) (*ImportReport, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("importing CSV: %w (%d bytes, max %d)", ErrImportTooLarge, len(data), MaxImportSize)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importing CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("importing CSV: need a header row and at least one data row")
	}

	if mapping == nil {
		mapping = map[string]string{
			"title":         "title",
			"description":   "description",
			"target_value":  "target_value",
			"current_value": "current_value",
			"category":      "category",
			"status":        "status",
		}
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	report := &ImportReport{Total: len(rows) - 1}
	for rowNum, row := range rows[1:] {
		in := importedGoal{}
		get := func(goalField string) string {
			csvField, ok := mapping[goalField]
			if !ok {
				return ""
			}
			idx, ok := col[csvField]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}
		in.Title = get("title")
		in.Description = get("description")
		if v := get("target_value"); v != "" {
			in.TargetValue = v
		}
		if v := get("current_value"); v != "" {
			in.CurrentValue = v
		}
		in.Category = get("category")
		in.Status = get("status")

		if err := im.importOne(in, models.KindGeneral); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %s", rowNum+2, err))
			continue
		}
		report.Succeeded++
	}

	im.finish("csv", report)
	return report, nil
}

// importOne validates and adds a single incoming record.
func (im *Importer) importOne(in importedGoal, kind models.GoalKind) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("missing required field: title")
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("missing required field: description")
	}
	target, err := coerceFloat(in.TargetValue)
	if err != nil {
		return fmt.Errorf("target_value must be a number")
	}

	var g *core.Goal
	switch kind {
	case models.KindPersonal:
		g, err = core.NewPersonalGoal(in.Title, in.Description, target, in.Category, false)
	case models.KindBusiness:
		g, err = core.NewBusinessGoal(in.Title, in.Description, target, in.Category, 0)
	default:
		g, err = core.NewGoal(in.Title, in.Description, target)
	}
	if err != nil {
		return err
	}

	if in.CurrentValue != nil {
		current, cerr := coerceFloat(in.CurrentValue)
		if cerr != nil {
			return fmt.Errorf("current_value must be a number")
		}
		if uerr := g.UpdateProgress(current); uerr != nil {
			return uerr
		}
	}
	if in.Status != "" {
		g.Status = models.GoalStatus(in.Status)
	}
	if in.CreatedDate != "" {
		if t, perr := core.ParseDeadline(in.CreatedDate); perr == nil {
			g.Created = t
		}
	}
	if in.Deadline != "" {
		if err := core.ValidateDateFormat(in.Deadline); err != nil {
			return fmt.Errorf("invalid deadline: %w", err)
		}
		t, _ := core.ParseDeadline(in.Deadline)
		g.Deadline = &t
	}

	return im.registry.AddGoal(im.user, g)
}

func (im *Importer) finish(format string, report *ImportReport) {
	if im.events != nil {
		im.events.Record("import.finished",
			fmt.Sprintf("%s import: %d of %d records", format, report.Succeeded, report.Total),
			map[string]any{"format": format, "total": report.Total, "succeeded": report.Succeeded, "failed": report.Failed})
	}
	if im.webhooks != nil {
		_, _ = im.webhooks.Trigger("goals_imported", map[string]any{
			"username": im.user,
			"format":   format,
			"results":  report,
		})
	}
}

func decodeImportPayload(data []byte) ([]importedGoal, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var goals []importedGoal
		if err := json.Unmarshal(data, &goals); err != nil {
			return nil, fmt.Errorf("parsing goal list: %w", err)
		}
		return goals, nil
	}

	var payload importPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if payload.Goals == nil {
		return nil, fmt.Errorf("payload must be a goal list or an object with a goals key")
	}
	return payload.Goals, nil
}

// coerceFloat accepts the numeric and numeric-string forms that appear in
// JSON and CSV payloads.
func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
