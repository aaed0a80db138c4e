package config

type BaseCronJobConfig struct {
	CronExpr string `yaml:"cronExpr" mapstructure:"cronExpr" validate:"required_if=Enabled true"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // 单位: 毫秒
}

type GitRefresherConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (GitRefresherConfig) Key() string {
	return "gitRefresher"
}

type UploadCleanerConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`

	TimeRange int `yaml:"timeRange" mapstructure:"timeRange"` // 单位: 天
}

func (UploadCleanerConfig) Key() string {
	return "uploadCleaner"
}
