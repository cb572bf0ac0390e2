// Package mcp provides an MCP (Model Context Protocol) server that exposes
// goaltrack functionality as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/internal/observability"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// Server wraps goaltrack services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	registry    core.GoalRegistry
	defaultUser string
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over the given services. metricsCalc and
// alertEngine may be nil if observability is disabled.
func NewServer(registry core.GoalRegistry, defaultUser string, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		registry:    registry,
		defaultUser: defaultUser,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "goaltrack", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listGoalsInput struct {
	User   string `json:"user,omitempty" jsonschema:"owner of the goal list; defaults to the configured user"`
	Status string `json:"status,omitempty" jsonschema:"filter goals by status (active, completed, paused)"`
	Kind   string `json:"kind,omitempty" jsonschema:"filter goals by kind (general, personal, business)"`
}

type goalOutput struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetValue  float64 `json:"target_value"`
	CurrentValue float64 `json:"current_value"`
	Percentage   float64 `json:"percentage"`
	Kind         string  `json:"kind"`
	Status       string  `json:"status"`
	Created      string  `json:"created"`
	Deadline     string  `json:"deadline,omitempty"`
}

type listGoalsOutput struct {
	Goals []goalOutput `json:"goals"`
	Count int          `json:"count"`
}

type addGoalInput struct {
	User        string  `json:"user,omitempty" jsonschema:"owner of the goal list; defaults to the configured user"`
	Title       string  `json:"title" jsonschema:"required,short goal title"`
	Description string  `json:"description" jsonschema:"required,what the goal is about"`
	TargetValue float64 `json:"target_value" jsonschema:"required,the value that counts as done; must be positive"`
	Kind        string  `json:"kind,omitempty" jsonschema:"goal kind (general, personal, business); defaults to general"`
	Priority    string  `json:"priority,omitempty" jsonschema:"priority label for personal goals"`
	IsHabit     bool    `json:"is_habit,omitempty" jsonschema:"marks a personal goal as a recurring habit"`
	Department  string  `json:"department,omitempty" jsonschema:"department label for business goals"`
	Budget      float64 `json:"budget,omitempty" jsonschema:"budget figure for business goals"`
}

type addGoalOutput struct {
	Goal    goalOutput `json:"goal"`
	Message string     `json:"message"`
}

type updateProgressInput struct {
	User   string  `json:"user,omitempty" jsonschema:"owner of the goal list; defaults to the configured user"`
	GoalID string  `json:"goal_id" jsonschema:"required,the goal identifier"`
	Value  float64 `json:"value" jsonschema:"required,the new absolute progress value"`
	Note   string  `json:"note,omitempty" jsonschema:"optional note attached to this update"`
}

type updateProgressOutput struct {
	GoalID        string   `json:"goal_id"`
	OldValue      float64  `json:"old_value"`
	NewValue      float64  `json:"new_value"`
	Percentage    float64  `json:"percentage"`
	Completed     bool     `json:"completed"`
	NewMilestones []string `json:"new_milestones,omitempty"`
	Message       string   `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	GoalsCreated       int            `json:"goals_created"`
	GoalsCompleted     int            `json:"goals_completed"`
	GoalsRemoved       int            `json:"goals_removed"`
	ProgressUpdates    int            `json:"progress_updates"`
	MilestonesAchieved int            `json:"milestones_achieved"`
	GoalsByKind        map[string]int `json:"goals_by_kind"`
	ImportsFinished    int            `json:"imports_finished"`
	ExportsFinished    int            `json:"exports_finished"`
	BackupsCreated     int            `json:"backups_created"`
	EventCount         int            `json:"event_count"`
	OldestEvent        string         `json:"oldest_event,omitempty"`
	NewestEvent        string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_goals",
		Description: "List a user's goals with optional status and kind filters. Returns goal summaries with progress percentages.",
	}, s.handleListGoals)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_goal",
		Description: "Create a new goal for a user. The kind selects the variant payload: personal goals accept priority and is_habit, business goals accept department and budget.",
	}, s.handleAddGoal)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_progress",
		Description: "Record a new absolute progress value for a goal. Reaching the target completes the goal; updates within the cooldown window are rejected.",
	}, s.handleUpdateProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log, including goal counts, progress updates, and milestone achievements.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (stale goals, approaching or passed deadlines, users near the goal ceiling).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListGoals(_ context.Context, _ *gomcp.CallToolRequest, input listGoalsInput) (*gomcp.CallToolResult, listGoalsOutput, error) {
	user := s.user(input.User)

	var goals []*core.Goal
	switch {
	case input.Status != "":
		status := models.GoalStatus(input.Status)
		if !status.Valid() {
			return errorResult(fmt.Sprintf("invalid status %q: must be one of active, completed, paused", input.Status)), listGoalsOutput{}, nil
		}
		goals = s.registry.GoalsByStatus(user, status)
	case input.Kind != "":
		kind := models.GoalKind(input.Kind)
		if !kind.Valid() {
			return errorResult(fmt.Sprintf("invalid kind %q: must be one of general, personal, business", input.Kind)), listGoalsOutput{}, nil
		}
		goals = s.registry.GoalsByKind(user, kind)
	default:
		goals = s.registry.UserGoals(user)
	}

	out := listGoalsOutput{
		Goals: make([]goalOutput, len(goals)),
		Count: len(goals),
	}
	for i, g := range goals {
		out.Goals[i] = goalToOutput(g)
	}

	return nil, out, nil
}

func (s *Server) handleAddGoal(_ context.Context, _ *gomcp.CallToolRequest, input addGoalInput) (*gomcp.CallToolResult, addGoalOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), addGoalOutput{}, nil
	}
	if input.Description == "" {
		return errorResult("description is required"), addGoalOutput{}, nil
	}

	var (
		g   *core.Goal
		err error
	)
	switch input.Kind {
	case "", string(models.KindGeneral):
		g, err = core.NewGoal(input.Title, input.Description, input.TargetValue)
	case string(models.KindPersonal):
		g, err = core.NewPersonalGoal(input.Title, input.Description, input.TargetValue, input.Priority, input.IsHabit)
	case string(models.KindBusiness):
		g, err = core.NewBusinessGoal(input.Title, input.Description, input.TargetValue, input.Department, input.Budget)
	default:
		return errorResult(fmt.Sprintf("invalid kind %q: must be one of general, personal, business", input.Kind)), addGoalOutput{}, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("creating goal: %s", err)), addGoalOutput{}, nil
	}

	user := s.user(input.User)
	if err := s.registry.AddGoal(user, g); err != nil {
		return errorResult(fmt.Sprintf("adding goal for %s: %s", user, err)), addGoalOutput{}, nil
	}

	out := addGoalOutput{
		Goal:    goalToOutput(g),
		Message: fmt.Sprintf("goal %s created for %s", g.ID, user),
	}
	return nil, out, nil
}

func (s *Server) handleUpdateProgress(_ context.Context, _ *gomcp.CallToolRequest, input updateProgressInput) (*gomcp.CallToolResult, updateProgressOutput, error) {
	if input.GoalID == "" {
		return errorResult("goal_id is required"), updateProgressOutput{}, nil
	}

	user := s.user(input.User)
	result, err := s.registry.UpdateGoalProgress(user, input.GoalID, input.Value, input.Note)
	if err != nil {
		return errorResult(fmt.Sprintf("updating goal %s: %s", input.GoalID, err)), updateProgressOutput{}, nil
	}

	msg := fmt.Sprintf("goal %s progress: %.1f -> %.1f (%.1f%%)", result.GoalID, result.OldValue, result.NewValue, result.Percentage)
	if result.Completed {
		msg += ", goal completed"
	}

	out := updateProgressOutput{
		GoalID:        result.GoalID,
		OldValue:      result.OldValue,
		NewValue:      result.NewValue,
		Percentage:    result.Percentage,
		Completed:     result.Completed,
		NewMilestones: result.NewMilestones,
		Message:       msg,
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		GoalsCreated:       metrics.GoalsCreated,
		GoalsCompleted:     metrics.GoalsCompleted,
		GoalsRemoved:       metrics.GoalsRemoved,
		ProgressUpdates:    metrics.ProgressUpdates,
		MilestonesAchieved: metrics.MilestonesAchieved,
		GoalsByKind:        metrics.GoalsByKind,
		ImportsFinished:    metrics.ImportsFinished,
		ExportsFinished:    metrics.ExportsFinished,
		BackupsCreated:     metrics.BackupsCreated,
		EventCount:         metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func (s *Server) user(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultUser
}

func goalToOutput(g *core.Goal) goalOutput {
	out := goalOutput{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Percentage:   g.ProgressPercentage(),
		Kind:         string(g.Kind),
		Status:       string(g.Status),
		Created:      g.Created.Format(time.RFC3339),
	}
	if g.Deadline != nil {
		out.Deadline = g.Deadline.Format(time.RFC3339)
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		GoalsByKind: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
