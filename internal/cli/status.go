package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/storage"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

var (
	statusUser   string
	statusFilter string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display goals grouped by status plus storage statistics",
	Long: `Display a user's goals organized by lifecycle status, followed by a
summary of the on-disk data files.

Optionally filter to a single status using --filter (e.g. --filter active).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		user := resolveUser(statusUser)

		order := []models.GoalStatus{models.StatusActive, models.StatusPaused, models.StatusCompleted}
		if statusFilter != "" {
			status := models.GoalStatus(statusFilter)
			if !status.Valid() {
				return fmt.Errorf("invalid status %q: must be one of active, completed, paused", statusFilter)
			}
			order = []models.GoalStatus{status}
		}

		total := 0
		for _, status := range order {
			goals := Registry.GoalsByStatus(user, status)
			if len(goals) == 0 {
				continue
			}
			fmt.Printf("%s (%d):\n", status, len(goals))
			for _, g := range goals {
				printGoalLine(g)
			}
			fmt.Println()
			total += len(goals)
		}
		if total == 0 {
			fmt.Printf("No goals found for %s.\n", user)
		} else {
			fmt.Printf("Total: %d goal(s)\n", total)
		}

		if Store == nil {
			return nil
		}
		stats, err := Store.Stats()
		if err != nil {
			return fmt.Errorf("reading data statistics: %w", err)
		}

		fmt.Println("\nData files:")
		printFileStats("goals.json", stats.Goals)
		printFileStats("progress.json", stats.Progress)
		fmt.Printf("  %-16s %d goal(s) across %d user(s), %d backup(s), %d bytes total\n",
			"summary:", stats.GoalCount, stats.UserCount, stats.BackupCount, stats.TotalSize)

		return nil
	},
}

func printFileStats(name string, fs storage.FileStats) {
	if !fs.Exists {
		fmt.Printf("  %-16s missing\n", name+":")
		return
	}
	fmt.Printf("  %-16s %d bytes, modified %s\n", name+":", fs.Size, fs.Modified.Format("2006-01-02 15:04"))
}

func init() {
	statusCmd.Flags().StringVar(&statusUser, "user", "", "Goal list owner (defaults to the configured user)")
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Filter by status (active, completed, paused)")
	_ = statusCmd.RegisterFlagCompletionFunc("filter", completeStatuses)
	rootCmd.AddCommand(statusCmd)
}
