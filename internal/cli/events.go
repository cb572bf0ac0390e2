package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/observability"
)

var (
	eventsSince string
	eventsType  string
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded events from the activity log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}

		filter := observability.EventFilter{Type: eventsType}
		if eventsSince != "" {
			since, err := parseSinceDuration(eventsSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}

		if eventsJSON {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-24s %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Type, e.Message)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Time window (e.g. 7d, 24h); default is everything")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only show events of this type (e.g. goal.created)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	rootCmd.AddCommand(eventsCmd)
}
