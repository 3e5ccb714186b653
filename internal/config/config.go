package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix 环境变量前缀,如 COMPANYSCRAPER_CRAWL_BASE_DELAY
	EnvPrefix = "COMPANYSCRAPER"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

// Config 应用程序配置
type Config struct {
	Crawl     models.CrawlConfig     `mapstructure:"crawl"`
	Extract   models.ExtractConfig   `mapstructure:"extract"`
	HTTP      HTTPConfig             `mapstructure:"http"`
	Reconcile models.ReconcileConfig `mapstructure:"reconcile"`
	Logging   LoggingConfig          `mapstructure:"logging"`
	Report    ReportConfig           `mapstructure:"report"`
	Metrics   MetricsConfig          `mapstructure:"metrics"`
}

// HTTPConfig 请求配置
type HTTPConfig struct {
	Headers map[string]string `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	File     string         `mapstructure:"file"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ReportConfig 爬取报告配置
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Textfile Prometheus textfile 输出路径,为空时不写出
	Textfile string `mapstructure:"textfile"`
}

// LoadConfig 加载配置文件
// configPath为空时搜索默认位置,找不到则全部使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		if err := checkFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".companyscraper"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: v.ConfigFileUsed(),
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	if config.HTTP.Headers == nil {
		config.HTTP.Headers = make(map[string]string)
	}

	return &config, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("crawl配置无效: %w", err)
	}
	if err := c.Extract.Validate(); err != nil {
		return fmt.Errorf("extract配置无效: %w", err)
	}
	return nil
}

func checkFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &models.ConfigError{FilePath: path, Cause: err}
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: path,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.input_file", "companies2.json")
	v.SetDefault("crawl.output_file", "companies_profile.json")
	v.SetDefault("crawl.base_delay", 2.0)
	v.SetDefault("crawl.delay_variation", 1.0)
	v.SetDefault("crawl.concurrency", 1)
	v.SetDefault("crawl.request_timeout", 30)
	v.SetDefault("crawl.mode", string(models.ModeStatic))
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.wait_time", 2)
	v.SetDefault("crawl.progress", false)

	v.SetDefault("extract.label_policy", string(models.PolicyPositional))

	v.SetDefault("http.headers", map[string]string{})

	// 对账配置默认值
	v.SetDefault("reconcile.companies_file", "companies.json")
	v.SetDefault("reconcile.profiles_file", "companies_profile.json")
	v.SetDefault("reconcile.output_file", "companies2.json")

	// 日志配置默认值
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.file", filepath.Join("logs", "company_scraper.log"))
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("report.dir", "reports")
	v.SetDefault("metrics.textfile", "")
}
