package exchange

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

func seedExportRegistry(t *testing.T) core.GoalRegistry {
	t.Helper()
	reg := newTestRegistry()

	general, err := core.NewGoal("Read books", "twelve this year", 12)
	if err != nil {
		t.Fatalf("NewGoal() failed: %v", err)
	}
	personal, err := core.NewPersonalGoal("Meditate daily", "habit", 365, "high", true)
	if err != nil {
		t.Fatalf("NewPersonalGoal() failed: %v", err)
	}
	business, err := core.NewBusinessGoal("Grow revenue", "Q4 push", 1000, "sales", 5000)
	if err != nil {
		t.Fatalf("NewBusinessGoal() failed: %v", err)
	}
	for _, g := range []*core.Goal{general, personal, business} {
		if err := reg.AddGoal("alice", g); err != nil {
			t.Fatalf("AddGoal() failed: %v", err)
		}
	}
	// Complete the general goal so status filters have something to bite on.
	if _, err := reg.UpdateGoalProgress("alice", general.ID, 12, ""); err != nil {
		t.Fatalf("UpdateGoalProgress() failed: %v", err)
	}
	return reg
}

func TestExportJSON(t *testing.T) {
	ex := NewExporter(seedExportRegistry(t), "alice", "", nil, nil)

	result, err := ex.ExportJSON(ExportFilter{})
	if err != nil {
		t.Fatalf("ExportJSON() failed: %v", err)
	}
	if result.Format != "json" || result.MIMEType != "application/json" || result.Count != 3 {
		t.Fatalf("result = %+v", result)
	}

	var envelope struct {
		Metadata struct {
			Username       string `json:"username"`
			TotalGoals     int    `json:"total_goals"`
			FilterCriteria string `json:"filter_criteria"`
		} `json:"metadata"`
		Goals []models.GoalRecord `json:"goals"`
	}
	if err := json.Unmarshal(result.Data, &envelope); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if envelope.Metadata.Username != "alice" || envelope.Metadata.TotalGoals != 3 {
		t.Fatalf("metadata = %+v", envelope.Metadata)
	}
	if envelope.Metadata.FilterCriteria != "none" {
		t.Fatalf("filter criteria = %q, want none", envelope.Metadata.FilterCriteria)
	}
	if len(envelope.Goals) != 3 {
		t.Fatalf("goals = %d, want 3", len(envelope.Goals))
	}
}

func TestExportJSONStatusFilter(t *testing.T) {
	ex := NewExporter(seedExportRegistry(t), "alice", "", nil, nil)

	result, err := ex.ExportJSON(ExportFilter{Status: models.StatusCompleted})
	if err != nil {
		t.Fatalf("ExportJSON() failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 completed goal", result.Count)
	}
	if !strings.Contains(string(result.Data), `"filter_criteria": "status=completed"`) {
		t.Fatalf("metadata missing filter description:\n%s", result.Data)
	}
}

func TestExportJSONKindAndDateFilters(t *testing.T) {
	reg := seedExportRegistry(t)
	ex := NewExporter(reg, "alice", "", nil, nil)

	result, err := ex.ExportJSON(ExportFilter{Kind: models.KindBusiness})
	if err != nil {
		t.Fatalf("ExportJSON(kind) failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("business goals = %d, want 1", result.Count)
	}

	past := time.Now().UTC().AddDate(0, 0, -1)
	result, err = ex.ExportJSON(ExportFilter{DateTo: &past})
	if err != nil {
		t.Fatalf("ExportJSON(date) failed: %v", err)
	}
	if result.Count != 0 {
		t.Fatalf("goals created before yesterday = %d, want 0", result.Count)
	}

	future := time.Now().UTC().AddDate(0, 0, 1)
	result, err = ex.ExportJSON(ExportFilter{DateFrom: &past, DateTo: &future})
	if err != nil {
		t.Fatalf("ExportJSON(range) failed: %v", err)
	}
	if result.Count != 3 {
		t.Fatalf("goals in range = %d, want 3", result.Count)
	}
}

func TestExportCSV(t *testing.T) {
	ex := NewExporter(seedExportRegistry(t), "alice", "", nil, nil)

	result, err := ex.ExportCSV(ExportFilter{})
	if err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}
	if result.Format != "csv" || result.MIMEType != "text/csv" {
		t.Fatalf("result = %+v", result)
	}

	rows, err := csv.NewReader(strings.NewReader(string(result.Data))).ReadAll()
	if err != nil {
		t.Fatalf("export is not CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3 goals", len(rows))
	}

	header := rows[0]
	if !sort.StringsAreSorted(header) {
		t.Fatalf("header not sorted: %v", header)
	}
	// The header is the union of all kinds' flattened keys.
	cols := make(map[string]bool, len(header))
	for _, c := range header {
		cols[c] = true
	}
	for _, want := range []string{"id", "title", "status", "priority", "department", "budget"} {
		if !cols[want] {
			t.Fatalf("header %v missing column %q", header, want)
		}
	}
}

func TestExportCSVEmptyResult(t *testing.T) {
	ex := NewExporter(newTestRegistry(), "nobody", "", nil, nil)

	result, err := ex.ExportCSV(ExportFilter{})
	if err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(result.Data))).ReadAll()
	if err != nil {
		t.Fatalf("export is not CSV: %v", err)
	}
	// An empty export still has the fixed fallback header.
	if len(rows) != 1 || len(rows[0]) != 8 {
		t.Fatalf("rows = %+v, want only the fallback header", rows)
	}
}

func TestExportXML(t *testing.T) {
	ex := NewExporter(seedExportRegistry(t), "alice", "", nil, nil)

	result, err := ex.ExportXML(ExportFilter{})
	if err != nil {
		t.Fatalf("ExportXML() failed: %v", err)
	}
	if result.Format != "xml" || result.MIMEType != "application/xml" {
		t.Fatalf("result = %+v", result)
	}
	if !strings.HasPrefix(string(result.Data), xml.Header) {
		t.Fatal("XML export must start with the XML declaration")
	}

	var doc struct {
		XMLName  xml.Name `xml:"goals_export"`
		Metadata struct {
			Username   string `xml:"username"`
			TotalGoals int    `xml:"total_goals"`
		} `xml:"metadata"`
		Goals []struct {
			Title  string `xml:"title"`
			Status string `xml:"status"`
		} `xml:"goals>goal"`
	}
	if err := xml.Unmarshal(result.Data, &doc); err != nil {
		t.Fatalf("export is not XML: %v", err)
	}
	if doc.Metadata.Username != "alice" || doc.Metadata.TotalGoals != 3 {
		t.Fatalf("metadata = %+v", doc.Metadata)
	}
	if len(doc.Goals) != 3 {
		t.Fatalf("goals = %d, want 3", len(doc.Goals))
	}
}

func TestExportWriteFile(t *testing.T) {
	dir := t.TempDir()
	ex := NewExporter(seedExportRegistry(t), "alice", dir, nil, nil)

	result, err := ex.ExportJSON(ExportFilter{})
	if err != nil {
		t.Fatalf("ExportJSON() failed: %v", err)
	}
	path, err := ex.WriteFile(result, "goals_alice")
	if err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if !strings.HasSuffix(path, "goals_alice.json") {
		t.Fatalf("path = %q", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if string(raw) != string(result.Data) {
		t.Fatal("file contents differ from rendered export")
	}

	for _, name := range []string{"", "sub/dir", "back\\slash"} {
		if _, err := ex.WriteFile(result, name); err == nil {
			t.Fatalf("WriteFile(%q) must fail", name)
		}
	}
}

func TestExportRecordsEventAndWebhook(t *testing.T) {
	rec := &captureRecorder{}
	del := &recordingDeliverer{}
	hooks := NewWebhookRegistry(del, nil)
	hooks.Register("goals_exported", "https://hooks.example.com/export", "")

	ex := NewExporter(seedExportRegistry(t), "alice", "", rec, hooks)
	if _, err := ex.ExportJSON(ExportFilter{}); err != nil {
		t.Fatalf("ExportJSON() failed: %v", err)
	}

	if !rec.has("export.finished") {
		t.Fatalf("events = %v, want export.finished", rec.types)
	}
	if len(del.payloads) != 1 {
		t.Fatalf("webhook deliveries = %d, want 1", len(del.payloads))
	}
}
