package exchange

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// MIME types for the supported export formats.
var mimeTypes = map[string]string{
	"json": "application/json",
	"csv":  "text/csv",
	"xml":  "application/xml",
}

// ExportFilter narrows the exported goal set. Zero fields match everything.
type ExportFilter struct {
	Status   models.GoalStatus
	Kind     models.GoalKind
	DateFrom *time.Time
	DateTo   *time.Time
}

// describe renders the filter for the export metadata block.
func (f ExportFilter) describe() string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Kind != "" {
		parts = append(parts, "kind="+string(f.Kind))
	}
	if f.DateFrom != nil {
		parts = append(parts, "from="+f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		parts = append(parts, "to="+f.DateTo.Format("2006-01-02"))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ExportResult carries a rendered export payload.
type ExportResult struct {
	Data     []byte `json:"data"`
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
	Count    int    `json:"goals_count"`
}

// jsonExport is the JSON export envelope.
type jsonExport struct {
	Metadata exportMetadata      `json:"metadata"`
	Goals    []models.GoalRecord `json:"goals"`
}

type exportMetadata struct {
	ExportDate     string `json:"export_date"`
	Username       string `json:"username"`
	TotalGoals     int    `json:"total_goals"`
	FilterCriteria string `json:"filter_criteria"`
}

// XML rendering types: goals nest under a root element with a metadata block.
type xmlExport struct {
	XMLName  xml.Name    `xml:"goals_export"`
	Metadata xmlMetadata `xml:"metadata"`
	Goals    []xmlGoal   `xml:"goals>goal"`
}

type xmlMetadata struct {
	ExportDate     string `xml:"export_date"`
	Username       string `xml:"username"`
	TotalGoals     int    `xml:"total_goals"`
	FilterCriteria string `xml:"filter_criteria"`
}

type xmlGoal struct {
	ID           string  `xml:"id"`
	Title        string  `xml:"title"`
	Description  string  `xml:"description"`
	TargetValue  float64 `xml:"target_value"`
	CurrentValue float64 `xml:"current_value"`
	GoalType     string  `xml:"goal_type"`
	Status       string  `xml:"status"`
	CreatedDate  string  `xml:"created_date"`
	Deadline     string  `xml:"deadline,omitempty"`
}

// Exporter renders a user's goals to the supported formats and writes them
// into the export directory.
type Exporter struct {
	registry  core.GoalRegistry
	user      string
	exportDir string
	events    core.EventRecorder
	webhooks  *WebhookRegistry
}

// NewExporter creates an Exporter for the given user. events and webhooks
// may be nil; exportDir may be empty if WriteFile is never used.
func NewExporter(registry core.GoalRegistry, user, exportDir string, events core.EventRecorder, webhooks *WebhookRegistry) *Exporter {
	return &Exporter{registry: registry, user: user, exportDir: exportDir, events: events, webhooks: webhooks}
}

// filteredRecords projects the user's goals to records and applies the filter.
func (ex *Exporter) filteredRecords(filter ExportFilter) []models.GoalRecord {
	var out []models.GoalRecord
	for _, g := range ex.registry.UserGoals(ex.user) {
		rec := g.ToRecord()
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && rec.GoalType != filter.Kind {
			continue
		}
		if filter.DateFrom != nil || filter.DateTo != nil {
			created, err := time.Parse(time.RFC3339, rec.CreatedDate)
			if err != nil {
				continue
			}
			if filter.DateFrom != nil && created.Before(*filter.DateFrom) {
				continue
			}
			if filter.DateTo != nil && created.After(*filter.DateTo) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func (ex *Exporter) metadata(count int, filter ExportFilter) exportMetadata {
	return exportMetadata{
		ExportDate:     time.Now().Format(time.RFC3339),
		Username:       ex.user,
		TotalGoals:     count,
		FilterCriteria: filter.describe(),
	}
}

// ExportJSON renders the filtered goals as an indented JSON envelope.
func (ex *Exporter) ExportJSON(filter ExportFilter) (*ExportResult, error) {
	records := ex.filteredRecords(filter)
	if records == nil {
		records = []models.GoalRecord{}
	}
	payload := jsonExport{
		Metadata: ex.metadata(len(records), filter),
		Goals:    records,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting JSON: %w", err)
	}
	return ex.finish("json", data, len(records)), nil
}

// ExportCSV renders the filtered goals as CSV. The header is the
// alphabetically sorted union of every record's flattened keys, so the
// column set is stable for a given data set.
func (ex *Exporter) ExportCSV(filter ExportFilter) (*ExportResult, error) {
	records := ex.filteredRecords(filter)

	flattened := make([]map[string]string, 0, len(records))
	keySet := make(map[string]bool)
	for _, rec := range records {
		flat, err := flattenRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("exporting CSV: %w", err)
		}
		for k := range flat {
			keySet[k] = true
		}
		flattened = append(flattened, flat)
	}

	columns := make([]string, 0, len(keySet))
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	if len(columns) == 0 {
		columns = []string{"created_date", "current_value", "description", "goal_type", "id", "status", "target_value", "title"}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("exporting CSV: %w", err)
	}
	for _, flat := range flattened {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = flat[col]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("exporting CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("exporting CSV: %w", err)
	}

	return ex.finish("csv", []byte(buf.String()), len(records)), nil
}

// ExportXML renders the filtered goals under a goals_export root with a
// metadata block.
func (ex *Exporter) ExportXML(filter ExportFilter) (*ExportResult, error) {
	records := ex.filteredRecords(filter)
	meta := ex.metadata(len(records), filter)

	doc := xmlExport{
		Metadata: xmlMetadata{
			ExportDate:     meta.ExportDate,
			Username:       meta.Username,
			TotalGoals:     meta.TotalGoals,
			FilterCriteria: meta.FilterCriteria,
		},
	}
	for _, rec := range records {
		g := xmlGoal{
			ID:           rec.ID,
			Title:        rec.Title,
			Description:  rec.Description,
			TargetValue:  rec.TargetValue,
			CurrentValue: rec.CurrentValue,
			GoalType:     string(rec.GoalType),
			Status:       string(rec.Status),
			CreatedDate:  rec.CreatedDate,
		}
		if rec.Deadline != nil {
			g.Deadline = *rec.Deadline
		}
		doc.Goals = append(doc.Goals, g)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting XML: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	return ex.finish("xml", data, len(records)), nil
}

// WriteFile stores a rendered export under the export directory as
// <name>.<format> and returns the full path.
func (ex *Exporter) WriteFile(result *ExportResult, name string) (string, error) {
	if ex.exportDir == "" {
		return "", fmt.Errorf("writing export: no export directory configured")
	}
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("writing export: invalid name %q", name)
	}
	path := filepath.Join(ex.exportDir, name+"."+result.Format)
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

func (ex *Exporter) finish(format string, data []byte, count int) *ExportResult {
	if ex.events != nil {
		ex.events.Record("export.finished",
			fmt.Sprintf("%s export: %d goals", format, count),
			map[string]any{"format": format, "goals_count": count})
	}
	if ex.webhooks != nil {
		_, _ = ex.webhooks.Trigger("goals_exported", map[string]any{
			"username":    ex.user,
			"format":      format,
			"goals_count": count,
		})
	}
	return &ExportResult{
		Data:     data,
		Format:   format,
		MIMEType: mimeTypes[format],
		Count:    count,
	}
}

// flattenRecord converts a record into flat string columns: nested objects
// join keys with underscores, lists join their rendered elements with a
// comma.
func flattenRecord(rec models.GoalRecord) (map[string]string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	flat := make(map[string]string)
	flattenInto(flat, "", generic)
	return flat, nil
}

func flattenInto(flat map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if prefix != "" {
				key = prefix + "_" + k
			}
			flattenInto(flat, key, val[k])
		}
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, renderScalar(item))
		}
		flat[prefix] = strings.Join(parts, ", ")
	default:
		flat[prefix] = renderScalar(v)
	}
}

func renderScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// Trim the ".0" that fmt would add for integral values.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case map[string]any:
		data, _ := json.Marshal(val)
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
