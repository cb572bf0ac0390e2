package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record and inspect goal progress",
	Long: `Progress commands.

Record a new absolute value for a goal or list the history of accepted
updates. Updates within the cooldown window are rejected; reaching the
target completes the goal automatically.`,
}

var (
	progressUpdateUser string
	progressUpdateNote string
)

var progressUpdateCmd = &cobra.Command{
	Use:   "update <goal-id> <value>",
	Short: "Record a new progress value for a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		value, err := core.ValidateProgressValue(args[1])
		if err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}

		user := resolveUser(progressUpdateUser)
		result, err := Registry.UpdateGoalProgress(user, args[0], value, progressUpdateNote)
		if err != nil {
			return fmt.Errorf("updating goal %s: %w", args[0], err)
		}

		if ProgressStore != nil {
			entry := models.ProgressRecord{
				ID:        uuid.NewString()[:8],
				GoalID:    result.GoalID,
				Value:     result.NewValue,
				Note:      progressUpdateNote,
				Timestamp: time.Now().Format(time.RFC3339),
			}
			if err := ProgressStore.Append(entry); err != nil {
				fmt.Printf("Warning: progress log not updated: %v\n", err)
			}
		}

		fmt.Printf("Goal %s: %.1f -> %.1f (%.1f%%)\n", result.GoalID, result.OldValue, result.NewValue, result.Percentage)
		fmt.Printf("  %s\n", renderProgressBar(result.Percentage, 30))
		for _, label := range result.NewMilestones {
			fmt.Printf("  Milestone reached: %s\n", label)
		}
		if result.Completed {
			fmt.Println("  Goal completed!")
		}
		return nil
	},
}

var progressHistoryUser string

var progressHistoryCmd = &cobra.Command{
	Use:   "history <goal-id>",
	Short: "List the accepted progress updates for a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(progressHistoryUser)
		g, err := Registry.GetGoal(user, args[0])
		if err != nil {
			return fmt.Errorf("getting goal %s: %w", args[0], err)
		}

		history := g.History()
		if len(history) == 0 {
			fmt.Printf("No progress recorded for %s yet.\n", g.ID)
			return nil
		}

		fmt.Printf("Progress history for %s (%d updates):\n\n", g.Title, len(history))
		for _, h := range history {
			fmt.Printf("  %s  %8.1f -> %-8.1f\n", h.Date.Format("2006-01-02 15:04"), h.OldValue, h.NewValue)
		}
		return nil
	},
}

// renderProgressBar renders a textual progress bar for the given percentage.
func renderProgressBar(percentage float64, width int) string {
	if width < 4 {
		width = 4
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	filled := int(percentage / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func init() {
	progressUpdateCmd.Flags().StringVar(&progressUpdateUser, "user", "", "Goal list owner (defaults to the configured user)")
	progressUpdateCmd.Flags().StringVar(&progressUpdateNote, "note", "", "Optional note attached to this update")
	progressHistoryCmd.Flags().StringVar(&progressHistoryUser, "user", "", "Goal list owner (defaults to the configured user)")

	progressCmd.AddCommand(progressUpdateCmd)
	progressCmd.AddCommand(progressHistoryCmd)
	rootCmd.AddCommand(progressCmd)
}
