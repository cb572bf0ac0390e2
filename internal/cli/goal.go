package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals (add, list, show, remove, pause, resume, search)",
	Long: `Unified goal management commands.

Create goals of the general, personal, or business kind, inspect and search
them, pause or resume active goals, and attach milestones, stakeholders, and
motivation notes.`,
}

var (
	goalAddUser        string
	goalAddKind        string
	goalAddTarget      float64
	goalAddDeadline    string
	goalAddPriority    string
	goalAddHabit       bool
	goalAddDepartment  string
	goalAddBudget      float64
	goalAddDescription string
)

var goalAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new goal",
	Long: `Create a new goal with the given title.

The --kind flag selects the goal variant: personal goals carry a priority
label and a habit flag, business goals carry a department and a budget.
The target value must be strictly positive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		title := args[0]
		var (
			g   *core.Goal
			err error
		)
		switch goalAddKind {
		case "", string(models.KindGeneral):
			g, err = core.NewGoal(title, goalAddDescription, goalAddTarget)
		case string(models.KindPersonal):
			g, err = core.NewPersonalGoal(title, goalAddDescription, goalAddTarget, goalAddPriority, goalAddHabit)
		case string(models.KindBusiness):
			g, err = core.NewBusinessGoal(title, goalAddDescription, goalAddTarget, goalAddDepartment, goalAddBudget)
		default:
			return fmt.Errorf("invalid kind %q: must be one of general, personal, business", goalAddKind)
		}
		if err != nil {
			return fmt.Errorf("creating goal: %w", err)
		}

		if goalAddDeadline != "" {
			deadline, err := core.ParseDeadline(goalAddDeadline)
			if err != nil {
				return fmt.Errorf("parsing --deadline: %w", err)
			}
			if err := core.ValidateDateFormat(goalAddDeadline); err != nil {
				return fmt.Errorf("validating --deadline: %w", err)
			}
			g.Deadline = &deadline
		}

		user := resolveUser(goalAddUser)
		if err := Registry.AddGoal(user, g); err != nil {
			return fmt.Errorf("adding goal for %s: %w", user, err)
		}

		fmt.Printf("Created goal %s\n", g.ID)
		fmt.Printf("  Title:  %s\n", g.Title)
		fmt.Printf("  Kind:   %s\n", g.Kind)
		fmt.Printf("  Target: %g\n", g.TargetValue)
		if g.Deadline != nil {
			fmt.Printf("  Due:    %s\n", g.Deadline.Format("2006-01-02"))
		}
		return nil
	},
}

var (
	goalListUser   string
	goalListStatus string
	goalListKind   string
)

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with optional status and kind filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalListUser)
		var goals []*core.Goal
		switch {
		case goalListStatus != "":
			status := models.GoalStatus(goalListStatus)
			if !status.Valid() {
				return fmt.Errorf("invalid status %q: must be one of active, completed, paused", goalListStatus)
			}
			goals = Registry.GoalsByStatus(user, status)
		case goalListKind != "":
			kind := models.GoalKind(goalListKind)
			if !kind.Valid() {
				return fmt.Errorf("invalid kind %q: must be one of general, personal, business", goalListKind)
			}
			goals = Registry.GoalsByKind(user, kind)
		default:
			goals = Registry.UserGoals(user)
		}

		if len(goals) == 0 {
			fmt.Printf("No goals found for %s.\n", user)
			return nil
		}

		fmt.Printf("Goals for %s (%d):\n\n", user, len(goals))
		for _, g := range goals {
			printGoalLine(g)
		}
		return nil
	},
}

var goalShowUser string

var goalShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show full details for one goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalShowUser)
		g, err := Registry.GetGoal(user, args[0])
		if err != nil {
			return fmt.Errorf("getting goal %s: %w", args[0], err)
		}

		fmt.Printf("%s  [%s/%s]\n", g.Title, g.Kind, g.Status)
		fmt.Printf("  ID:       %s\n", g.ID)
		if g.Description != "" {
			fmt.Printf("  About:    %s\n", g.Description)
		}
		fmt.Printf("  Progress: %s\n", g.ProgressInfo())
		fmt.Printf("  %s\n", renderProgressBar(g.ProgressPercentage(), 30))
		fmt.Printf("  Created:  %s\n", g.Created.Format("2006-01-02"))
		if g.Deadline != nil {
			fmt.Printf("  Due:      %s\n", g.Deadline.Format("2006-01-02"))
		}

		if g.Personal != nil {
			if g.Personal.PriorityLabel != "" {
				fmt.Printf("  Priority: %s\n", g.Personal.PriorityLabel)
			}
			if g.Personal.IsHabit {
				fmt.Println("  Habit:    yes")
			}
			summary, err := g.MotivationSummary()
			if err == nil {
				fmt.Printf("  Notes:    %s\n", summary)
			}
		}

		if g.Business != nil {
			fmt.Printf("  Dept:     %s\n", g.Business.Department)
			if g.Business.Budget > 0 {
				fmt.Printf("  Budget:   %g\n", g.Business.Budget)
			}
			if stakeholders := g.Stakeholders(); len(stakeholders) > 0 {
				fmt.Printf("  People:   %s\n", strings.Join(stakeholders, ", "))
			}
			if milestones := g.Milestones(); len(milestones) > 0 {
				achieved := make(map[string]bool)
				for _, label := range g.AchievedMilestones() {
					achieved[label] = true
				}
				fmt.Println("  Milestones:")
				for _, m := range milestones {
					mark := " "
					if achieved[m.Label] {
						mark = "x"
					}
					fmt.Printf("    [%s] %s (%.0f%%)\n", mark, m.Label, m.TargetPercent)
				}
			}
		}

		if history := g.History(); len(history) > 0 {
			fmt.Printf("  Updates:  %d recorded\n", len(history))
		}
		return nil
	},
}

var goalRemoveUser string

var goalRemoveCmd = &cobra.Command{
	Use:   "remove <goal-id>",
	Short: "Remove a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalRemoveUser)
		if err := Registry.RemoveGoal(user, args[0]); err != nil {
			return fmt.Errorf("removing goal %s: %w", args[0], err)
		}
		fmt.Printf("Removed goal %s\n", args[0])
		return nil
	},
}

var goalPauseUser string

var goalPauseCmd = &cobra.Command{
	Use:   "pause <goal-id>",
	Short: "Pause an active goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalPauseUser)
		if err := Registry.SetGoalStatus(user, args[0], models.StatusPaused); err != nil {
			return fmt.Errorf("pausing goal %s: %w", args[0], err)
		}
		fmt.Printf("Paused goal %s\n", args[0])
		return nil
	},
}

var goalResumeUser string

var goalResumeCmd = &cobra.Command{
	Use:   "resume <goal-id>",
	Short: "Resume a paused goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalResumeUser)
		if err := Registry.SetGoalStatus(user, args[0], models.StatusActive); err != nil {
			return fmt.Errorf("resuming goal %s: %w", args[0], err)
		}
		fmt.Printf("Resumed goal %s\n", args[0])
		return nil
	},
}

var goalSearchUser string

var goalSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search goals by title and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalSearchUser)
		goals := Registry.SearchGoals(user, args[0])
		if len(goals) == 0 {
			fmt.Printf("No goals matching %q.\n", args[0])
			return nil
		}

		fmt.Printf("%d goal(s) matching %q:\n\n", len(goals), args[0])
		for _, g := range goals {
			printGoalLine(g)
		}
		return nil
	},
}

var goalNoteUser string

var goalNoteCmd = &cobra.Command{
	Use:   "note <goal-id> <text>",
	Short: "Attach a motivation note to a personal goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalNoteUser)
		g, err := Registry.GetGoal(user, args[0])
		if err != nil {
			return fmt.Errorf("getting goal %s: %w", args[0], err)
		}
		if err := g.AddMotivationNote(args[1]); err != nil {
			return fmt.Errorf("adding note: %w", err)
		}
		if err := Registry.Persist(user); err != nil {
			return fmt.Errorf("saving goals: %w", err)
		}
		fmt.Printf("Noted on goal %s\n", g.ID)
		return nil
	},
}

var goalStakeholderUser string

var goalStakeholderCmd = &cobra.Command{
	Use:   "stakeholder <goal-id> <name>",
	Short: "Add a stakeholder to a business goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalStakeholderUser)
		g, err := Registry.GetGoal(user, args[0])
		if err != nil {
			return fmt.Errorf("getting goal %s: %w", args[0], err)
		}
		if err := g.AddStakeholder(args[1]); err != nil {
			return fmt.Errorf("adding stakeholder: %w", err)
		}
		if err := Registry.Persist(user); err != nil {
			return fmt.Errorf("saving goals: %w", err)
		}
		fmt.Printf("Added %s to goal %s\n", args[1], g.ID)
		return nil
	},
}

var (
	goalMilestoneUser    string
	goalMilestonePercent float64
)

var goalMilestoneCmd = &cobra.Command{
	Use:   "milestone <goal-id> <label>",
	Short: "Add a milestone to a business goal",
	Long: `Add a milestone to a business goal at the percentage given by --at.

A milestone with the same label replaces the existing one. Milestones count
as achieved once the goal's progress percentage reaches their threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(goalMilestoneUser)
		g, err := Registry.GetGoal(user, args[0])
		if err != nil {
			return fmt.Errorf("getting goal %s: %w", args[0], err)
		}
		if err := g.AddMilestone(args[1], goalMilestonePercent); err != nil {
			return fmt.Errorf("adding milestone: %w", err)
		}
		if err := Registry.Persist(user); err != nil {
			return fmt.Errorf("saving goals: %w", err)
		}
		fmt.Printf("Milestone %q at %.0f%% on goal %s\n", args[1], goalMilestonePercent, g.ID)
		return nil
	},
}

// printGoalLine renders the one-line list form of a goal.
func printGoalLine(g *core.Goal) {
	fmt.Printf("  %-10s %-30s %s %5.1f%%  [%s/%s]\n",
		g.ID, truncate(g.Title, 30), renderProgressBar(g.ProgressPercentage(), 20),
		g.ProgressPercentage(), g.Kind, g.Status)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// completeKinds returns valid goal kind values for shell completion.
func completeKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"general\tPlain goal with a numeric target",
		"personal\tGoal with a priority label and habit flag",
		"business\tGoal with a department, budget, and milestones",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns valid status values for shell completion.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"active", "completed", "paused"}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	goalAddCmd.Flags().StringVar(&goalAddUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalAddCmd.Flags().StringVar(&goalAddKind, "kind", "general", "Goal kind: general, personal, or business")
	goalAddCmd.Flags().Float64Var(&goalAddTarget, "target", 0, "Target value the goal counts toward (required)")
	goalAddCmd.Flags().StringVar(&goalAddDescription, "description", "", "What the goal is about")
	goalAddCmd.Flags().StringVar(&goalAddDeadline, "deadline", "", "Deadline (e.g. 2026-12-31)")
	goalAddCmd.Flags().StringVar(&goalAddPriority, "priority", "", "Priority label for personal goals")
	goalAddCmd.Flags().BoolVar(&goalAddHabit, "habit", false, "Mark a personal goal as a recurring habit")
	goalAddCmd.Flags().StringVar(&goalAddDepartment, "department", "", "Department label for business goals")
	goalAddCmd.Flags().Float64Var(&goalAddBudget, "budget", 0, "Budget figure for business goals")
	_ = goalAddCmd.MarkFlagRequired("target")
	_ = goalAddCmd.RegisterFlagCompletionFunc("kind", completeKinds)

	goalListCmd.Flags().StringVar(&goalListUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalListCmd.Flags().StringVar(&goalListStatus, "status", "", "Filter by status (active, completed, paused)")
	goalListCmd.Flags().StringVar(&goalListKind, "kind", "", "Filter by kind (general, personal, business)")
	_ = goalListCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = goalListCmd.RegisterFlagCompletionFunc("kind", completeKinds)

	goalShowCmd.Flags().StringVar(&goalShowUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalRemoveCmd.Flags().StringVar(&goalRemoveUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalPauseCmd.Flags().StringVar(&goalPauseUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalResumeCmd.Flags().StringVar(&goalResumeUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalSearchCmd.Flags().StringVar(&goalSearchUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalNoteCmd.Flags().StringVar(&goalNoteUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalStakeholderCmd.Flags().StringVar(&goalStakeholderUser, "user", "", "Goal list owner (defaults to the configured user)")

	goalMilestoneCmd.Flags().StringVar(&goalMilestoneUser, "user", "", "Goal list owner (defaults to the configured user)")
	goalMilestoneCmd.Flags().Float64Var(&goalMilestonePercent, "at", 50, "Milestone threshold as a progress percentage (0-100)")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalRemoveCmd)
	goalCmd.AddCommand(goalPauseCmd)
	goalCmd.AddCommand(goalResumeCmd)
	goalCmd.AddCommand(goalSearchCmd)
	goalCmd.AddCommand(goalNoteCmd)
	goalCmd.AddCommand(goalStakeholderCmd)
	goalCmd.AddCommand(goalMilestoneCmd)

	rootCmd.AddCommand(goalCmd)
}
