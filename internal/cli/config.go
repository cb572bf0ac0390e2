package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goaltrack/internal/core"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and bootstrap the configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .goaltrack.yaml with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("configuration manager not initialized")
		}

		cfg := core.DefaultGlobalConfig()
		if err := ConfigMgr.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Wrote .goaltrack.yaml in %s\n", BasePath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("configuration manager not initialized")
		}

		cfg, err := ConfigMgr.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("formatting config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
