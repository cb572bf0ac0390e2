package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook subscriptions (add, list, disable, test)",
	Long: `Webhook commands.

Webhooks registered here live for the current process only; persistent
webhooks belong in the webhooks section of .goaltrack.yaml and are loaded
at startup. Payloads are signed with HMAC-SHA256 when a secret is set.`,
}

var (
	webhookAddEvent  string
	webhookAddSecret string
)

var webhookAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register a webhook for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Webhooks == nil {
			return fmt.Errorf("webhook registry not initialized")
		}

		id, err := Webhooks.Register(webhookAddEvent, args[0], webhookAddSecret)
		if err != nil {
			return fmt.Errorf("registering webhook: %w", err)
		}
		fmt.Printf("Registered webhook %s for %s\n", id, webhookAddEvent)
		return nil
	},
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered webhooks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Webhooks == nil {
			return fmt.Errorf("webhook registry not initialized")
		}

		hooks := Webhooks.Hooks()
		if len(hooks) == 0 {
			fmt.Println("No webhooks registered.")
			return nil
		}

		fmt.Printf("%d webhook(s):\n\n", len(hooks))
		for _, h := range hooks {
			state := "active"
			if !h.Active {
				state = "disabled"
			}
			fmt.Printf("  %-18s %-20s %-8s %s\n", h.ID, h.Event, state, h.URL)
			fmt.Printf("  %18s delivered %d time(s)", "", h.RequestCount)
			if h.LastTriggered != nil {
				fmt.Printf(", last at %s", h.LastTriggered.Format("2006-01-02 15:04"))
			}
			fmt.Println()
		}
		return nil
	},
}

var webhookDisableCmd = &cobra.Command{
	Use:   "disable <webhook-id>",
	Short: "Deactivate a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Webhooks == nil {
			return fmt.Errorf("webhook registry not initialized")
		}

		if err := Webhooks.Deactivate(args[0]); err != nil {
			return fmt.Errorf("disabling webhook: %w", err)
		}
		fmt.Printf("Disabled webhook %s\n", args[0])
		return nil
	},
}

var webhookTestEvent string

var webhookTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Fire a test payload for an event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Webhooks == nil {
			return fmt.Errorf("webhook registry not initialized")
		}

		delivered, err := Webhooks.Trigger(webhookTestEvent, map[string]any{"test": true})
		if err != nil {
			return fmt.Errorf("triggering %s: %w", webhookTestEvent, err)
		}
		fmt.Printf("Delivered to %d webhook(s).\n", delivered)
		return nil
	},
}

func init() {
	webhookAddCmd.Flags().StringVar(&webhookAddEvent, "event", "goal_completed", "Event to subscribe to (e.g. goal_completed, goals_imported, goals_exported, alerts.triggered)")
	webhookAddCmd.Flags().StringVar(&webhookAddSecret, "secret", "", "Shared secret for payload signing")

	webhookTestCmd.Flags().StringVar(&webhookTestEvent, "event", "goal_completed", "Event to fire")

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookDisableCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	rootCmd.AddCommand(webhookCmd)
}
