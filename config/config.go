package config

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置结构体
func Validate(cfg any) error {
	return validate.Struct(cfg)
}

type GinConfig struct {
	Addr             string   `yaml:"addr" mapstructure:"addr" validate:"required"`
	AllowOrigins     []string `yaml:"allowOrigins" mapstructure:"allowOrigins"`
	AllowMethods     []string `yaml:"allowMethods" mapstructure:"allowMethods"`
	AllowHeaders     []string `yaml:"allowHeaders" mapstructure:"allowHeaders"`
	ExposeHeaders    []string `yaml:"exposeHeaders" mapstructure:"exposeHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials" mapstructure:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge" mapstructure:"maxAge"` // 单位: 秒
	// AuthPaths 需要 JWT 鉴权的路径前缀
	AuthPaths   []string `yaml:"authPaths" mapstructure:"authPaths"`
	EnablePprof bool     `yaml:"enablePprof" mapstructure:"enablePprof"`
	// InternalToken 构建回调接口使用的内部令牌
	InternalToken string `yaml:"internalToken" mapstructure:"internalToken"`
}

func (GinConfig) Key() string {
	return "gin"
}

type DBConfig struct {
	DSN             string `yaml:"dsn" mapstructure:"dsn" validate:"required"`
	MaxOpenConns    int    `yaml:"maxOpenConns" mapstructure:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns" mapstructure:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime" mapstructure:"connMaxLifetime"` // 单位: 秒
	AutoMigrate     bool   `yaml:"autoMigrate" mapstructure:"autoMigrate"`
	InstanceID      string `yaml:"instanceId" mapstructure:"instanceId"`
}

func (DBConfig) Key() string {
	return "db"
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"required"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers" validate:"required,min=1"`
	// BuildTopic 构建请求 topic
	BuildTopic string `yaml:"buildTopic" mapstructure:"buildTopic"`
	// ResultTopic 构建结果 topic
	ResultTopic   string `yaml:"resultTopic" mapstructure:"resultTopic"`
	ConsumerGroup string `yaml:"consumerGroup" mapstructure:"consumerGroup"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type MinIOConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	UseSSL   bool   `yaml:"useSSL" mapstructure:"useSSL"`
	// Enabled 关闭时原始压缩包只保存在本地
	Enabled                 bool   `yaml:"enabled" mapstructure:"enabled"`
	Bucket                  string `yaml:"bucket" mapstructure:"bucket" validate:"required_if=Enabled true"`
	DownloadDurationSeconds int    `yaml:"downloadDurationSeconds" mapstructure:"downloadDurationSeconds"`
}

func (MinIOConfig) Key() string {
	return "minio"
}

type StorageConfig struct {
	Root string `yaml:"root" mapstructure:"root" validate:"required"`
	// MaxEntrySize 解压时单个文件的最大字节数
	MaxEntrySize int64 `yaml:"maxEntrySize" mapstructure:"maxEntrySize"`
	// ArchivePassword 非空时压缩包条目加密
	ArchivePassword   string `yaml:"archivePassword" mapstructure:"archivePassword"`
	ArchiveEncryption string `yaml:"archiveEncryption" mapstructure:"archiveEncryption" validate:"omitempty,oneof=Standard AES128 AES192 AES256"`
}

func (StorageConfig) Key() string {
	return "storage"
}

type PipelineConfig struct {
	QuickRetryMinutes      int      `yaml:"quickRetryMinutes" mapstructure:"quickRetryMinutes" validate:"gte=0"`
	SampleAssignmentIDs    []string `yaml:"sampleAssignmentIDs" mapstructure:"sampleAssignmentIDs"`
	MaxConcurrentDispatch  int64    `yaml:"maxConcurrentDispatch" mapstructure:"maxConcurrentDispatch" validate:"gte=0"`
	LeaderboardCacheSecond int      `yaml:"leaderboardCacheSeconds" mapstructure:"leaderboardCacheSeconds" validate:"gte=0"`
	// LockTimeoutSeconds 分布式锁持有与等待的超时时间
	LockTimeoutSeconds int `yaml:"lockTimeoutSeconds" mapstructure:"lockTimeoutSeconds" validate:"gte=0"`
	// GitKnownHostsFile 为空时不校验 git 服务端公钥
	GitKnownHostsFile string `yaml:"gitKnownHostsFile" mapstructure:"gitKnownHostsFile"`
}

func (PipelineConfig) Key() string {
	return "pipeline"
}

type JWTConfig struct {
	JWTKey            string `yaml:"jwtKey" mapstructure:"jwtKey" validate:"required"`
	RefreshKey        string `yaml:"refreshKey" mapstructure:"refreshKey" validate:"required"`
	JWTExpiration     int    `yaml:"jwtExpiration" mapstructure:"jwtExpiration"`         // 单位: 分钟
	RefreshExpiration int    `yaml:"refreshExpiration" mapstructure:"refreshExpiration"` // 单位: 小时
}

func (JWTConfig) Key() string {
	return "jwt"
}

type LoggerConfig struct {
	Level       string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

func (LoggerConfig) Key() string {
	return "logger"
}
