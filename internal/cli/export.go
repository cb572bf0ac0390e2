package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/exchange"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

var (
	exportUser   string
	exportFormat string
	exportStatus string
	exportKind   string
	exportFrom   string
	exportTo     string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export goals to JSON, CSV, or XML",
	Long: `Export a user's goals in the chosen format.

Filters narrow the exported set by status, kind, or creation date range.
The rendered file is written into the store's export directory; use
--output to name it (without extension).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Store == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		filter := exchange.ExportFilter{}
		if exportStatus != "" {
			status := models.GoalStatus(exportStatus)
			if !status.Valid() {
				return fmt.Errorf("invalid status %q: must be one of active, completed, paused", exportStatus)
			}
			filter.Status = status
		}
		if exportKind != "" {
			kind := models.GoalKind(exportKind)
			if !kind.Valid() {
				return fmt.Errorf("invalid kind %q: must be one of general, personal, business", exportKind)
			}
			filter.Kind = kind
		}
		if exportFrom != "" {
			from, err := time.Parse("2006-01-02", exportFrom)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			filter.DateFrom = &from
		}
		if exportTo != "" {
			to, err := time.Parse("2006-01-02", exportTo)
			if err != nil {
				return fmt.Errorf("parsing --to: %w", err)
			}
			// Include the whole end day.
			to = to.AddDate(0, 0, 1).Add(-time.Second)
			filter.DateTo = &to
		}

		user := resolveUser(exportUser)
		exporter := exchange.NewExporter(Registry, user, Store.ExportDir(), Events, Webhooks)

		var (
			result *exchange.ExportResult
			err    error
		)
		switch exportFormat {
		case "json":
			result, err = exporter.ExportJSON(filter)
		case "csv":
			result, err = exporter.ExportCSV(filter)
		case "xml":
			result, err = exporter.ExportXML(filter)
		default:
			return fmt.Errorf("invalid format %q: must be one of json, csv, xml", exportFormat)
		}
		if err != nil {
			return err
		}

		name := exportOutput
		if name == "" {
			name = fmt.Sprintf("goals_%s_%s", user, time.Now().Format("20060102_150405"))
		}
		path, err := exporter.WriteFile(result, name)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d goal(s) to %s (%s)\n", result.Count, path, result.MIMEType)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "Goal list owner (defaults to the configured user)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json, csv, or xml")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only export goals with this status")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "Only export goals of this kind")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Only export goals created on or after this date (2006-01-02)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Only export goals created on or before this date (2006-01-02)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "File name for the export, without extension")
	_ = exportCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = exportCmd.RegisterFlagCompletionFunc("kind", completeKinds)

	rootCmd.AddCommand(exportCmd)
}
