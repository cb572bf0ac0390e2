package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/exchange"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

var (
	importUser    string
	importFormat  string
	importKind    string
	importMapping []string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import goals from a JSON or CSV file",
	Long: `Import goals from a file.

JSON payloads may be a bare list of goal records or an object with a goals
key; the --kind flag selects the constructor used for each record. CSV
payloads need a header row; use --map to rename columns, e.g.
--map title=name --map target_value=target.

Import is best effort: valid records are added, invalid ones are reported
per row without aborting the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("goal registry not initialized")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		format := importFormat
		if format == "" {
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".csv":
				format = "csv"
			default:
				format = "json"
			}
		}

		user := resolveUser(importUser)
		importer := exchange.NewImporter(Registry, user, Events, Webhooks)

		var report *exchange.ImportReport
		switch format {
		case "json":
			kind := models.GoalKind(importKind)
			if importKind == "" {
				kind = models.KindGeneral
			}
			if !kind.Valid() {
				return fmt.Errorf("invalid kind %q: must be one of general, personal, business", importKind)
			}
			report, err = importer.ImportJSON(data, kind)
		case "csv":
			var mapping map[string]string
			if len(importMapping) > 0 {
				mapping = make(map[string]string, len(importMapping))
				for _, pair := range importMapping {
					field, column, ok := strings.Cut(pair, "=")
					if !ok {
						return fmt.Errorf("invalid --map entry %q: expected field=column", pair)
					}
					mapping[field] = column
				}
			}
			report, err = importer.ImportCSV(data, mapping)
		default:
			return fmt.Errorf("invalid format %q: must be json or csv", format)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d of %d record(s) for %s\n", report.Succeeded, report.Total, user)
		if report.Failed > 0 {
			fmt.Printf("%d record(s) failed:\n", report.Failed)
			for _, e := range report.Errors {
				fmt.Printf("  %s\n", e)
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importUser, "user", "", "Goal list owner (defaults to the configured user)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Payload format: json or csv (default: by file extension)")
	importCmd.Flags().StringVar(&importKind, "kind", "", "Goal kind for JSON imports (general, personal, business)")
	importCmd.Flags().StringArrayVar(&importMapping, "map", nil, "CSV column mapping as field=column (repeatable)")
	_ = importCmd.RegisterFlagCompletionFunc("kind", completeKinds)

	rootCmd.AddCommand(importCmd)
}
