package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/goaltrack/pkg/models"
	"gopkg.in/yaml.v3"
)

// configFileName is the global config file, read from the base path.
const configFileName = ".goaltrack"

// ConfigurationManager loads and persists the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	SaveGlobalConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .goaltrack.yaml relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the defaults used
// when no config file exists.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DataDir:              "data",
		DefaultUser:          "default",
		MaxGoalsPerUser:      DefaultMaxGoalsPerUser,
		ProgressCooldownMins: int(DefaultProgressCooldown.Minutes()),
		BackupRetention:      10,
		Alerts: models.AlertConfig{
			StaleDays:       7,
			DeadlineDays:    3,
			CeilingHeadroom: 5,
		},
	}
}

// LoadGlobalConfig reads .goaltrack.yaml from the base path. A missing file
// yields the defaults, not an error.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("default_user", cfg.DefaultUser)
	v.SetDefault("max_goals_per_user", cfg.MaxGoalsPerUser)
	v.SetDefault("progress_cooldown_minutes", cfg.ProgressCooldownMins)
	v.SetDefault("backup_retention", cfg.BackupRetention)
	v.SetDefault("alerts.stale_days", cfg.Alerts.StaleDays)
	v.SetDefault("alerts.deadline_days", cfg.Alerts.DeadlineDays)
	v.SetDefault("alerts.ceiling_headroom", cfg.Alerts.CeilingHeadroom)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s.yaml: %w", configFileName, err)
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.DefaultUser = v.GetString("default_user")
	cfg.MaxGoalsPerUser = v.GetInt("max_goals_per_user")
	cfg.ProgressCooldownMins = v.GetInt("progress_cooldown_minutes")
	// Use IsSet to distinguish "not set" from an explicit zero, which means
	// "keep every backup".
	if v.IsSet("backup_retention") {
		cfg.BackupRetention = v.GetInt("backup_retention")
	}
	cfg.Alerts.StaleDays = v.GetInt("alerts.stale_days")
	cfg.Alerts.DeadlineDays = v.GetInt("alerts.deadline_days")
	cfg.Alerts.CeilingHeadroom = v.GetInt("alerts.ceiling_headroom")

	if err := v.UnmarshalKey("webhooks", &cfg.Webhooks); err != nil {
		return nil, fmt.Errorf("parsing webhooks section: %w", err)
	}

	return cfg, nil
}

// SaveGlobalConfig writes the configuration back as YAML.
func (cm *viperConfigManager) SaveGlobalConfig(cfg *models.GlobalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	path := filepath.Join(cm.basePath, configFileName+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
