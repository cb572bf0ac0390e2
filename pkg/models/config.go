package models

// WebhookConfig holds a webhook endpoint definition from the global config.
type WebhookConfig struct {
	Event  string `yaml:"event" mapstructure:"event"`
	URL    string `yaml:"url" mapstructure:"url"`
	Secret string `yaml:"secret,omitempty" mapstructure:"secret"`
}

// AlertConfig holds alert thresholds read from the alerts section.
type AlertConfig struct {
	StaleDays       int `yaml:"stale_days" mapstructure:"stale_days"`
	DeadlineDays    int `yaml:"deadline_days" mapstructure:"deadline_days"`
	CeilingHeadroom int `yaml:"ceiling_headroom" mapstructure:"ceiling_headroom"`
}

// GlobalConfig holds system-wide settings read from .goaltrack.yaml via Viper.
type GlobalConfig struct {
	DataDir              string          `yaml:"data_dir" mapstructure:"data_dir"`
	DefaultUser          string          `yaml:"default_user" mapstructure:"default_user"`
	MaxGoalsPerUser      int             `yaml:"max_goals_per_user" mapstructure:"max_goals_per_user"`
	ProgressCooldownMins int             `yaml:"progress_cooldown_minutes" mapstructure:"progress_cooldown_minutes"`
	BackupRetention      int             `yaml:"backup_retention" mapstructure:"backup_retention"`
	Alerts               AlertConfig     `yaml:"alerts" mapstructure:"alerts"`
	Webhooks             []WebhookConfig `yaml:"webhooks,omitempty" mapstructure:"webhooks"`
}
