package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage full-registry backups (create, list, restore, cleanup)",
	Long: `Backup commands.

Backups are timestamped JSON snapshots of every user's goal list. Old
snapshots beyond the configured retention are removed automatically after
each new backup; restore writes a safety snapshot before overwriting the
live data.`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a snapshot of all goal data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		filename, err := Registry.Backup()
		if err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
		fmt.Printf("Created backup %s\n", filename)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("goal store not initialized")
		}

		backups, err := Store.BackupList()
		if err != nil {
			return fmt.Errorf("listing backups: %w", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found.")
			return nil
		}

		fmt.Printf("%d backup(s):\n\n", len(backups))
		for _, b := range backups {
			fmt.Printf("  %-40s %8d bytes  %s\n", b.Filename, b.Size, b.Created.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <filename>",
	Short: "Restore all goal data from a backup",
	Long: `Restore the goal data from the named backup file.

The current goals file is snapshotted first, so a bad restore can itself be
undone. After restoring, the in-memory registry is reloaded from disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Registry == nil {
			return fmt.Errorf("goal store not initialized")
		}

		if err := Store.RestoreFromBackup(args[0]); err != nil {
			return fmt.Errorf("restoring from %s: %w", args[0], err)
		}

		// Reload every known user so the registry reflects the restored file.
		all, err := Store.LoadAll()
		if err != nil {
			return fmt.Errorf("reloading restored data: %w", err)
		}
		total := 0
		for user := range all {
			n, err := Registry.LoadFromStore(user)
			if err != nil {
				return fmt.Errorf("reloading goals for %s: %w", user, err)
			}
			total += n
		}

		if Events != nil {
			Events.Record("backup.restored",
				fmt.Sprintf("restored %d goal(s) from %s", total, args[0]),
				map[string]any{"filename": args[0], "goals": total})
		}

		fmt.Printf("Restored %d goal(s) from %s\n", total, args[0])
		return nil
	},
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove backups beyond the configured retention",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("goal store not initialized")
		}

		if err := Store.CleanupOldBackups(); err != nil {
			return fmt.Errorf("cleaning up backups: %w", err)
		}

		backups, err := Store.BackupList()
		if err != nil {
			return fmt.Errorf("listing backups: %w", err)
		}
		fmt.Printf("Cleanup done, %d backup(s) kept.\n", len(backups))
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupCleanupCmd)
	rootCmd.AddCommand(backupCmd)
}
