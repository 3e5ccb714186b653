package models

import "fmt"

// FetchMode 抓取模式
type FetchMode string

const (
	ModeStatic  FetchMode = "static"  // Colly直接请求
	ModeDynamic FetchMode = "dynamic" // 浏览器渲染
)

// LabelPolicy 详情块字段映射策略
type LabelPolicy string

const (
	// PolicyPositional 按位置取值,仅校验headquarters和第7行的标签
	PolicyPositional LabelPolicy = "positional"
	// PolicyStrict 校验每一行的标签,标签不符只影响该字段
	PolicyStrict LabelPolicy = "strict"
)

// CrawlConfig 爬取配置
type CrawlConfig struct {
	InputFile      string    `mapstructure:"input_file" json:"input_file"`           // 公司URL列表文件
	OutputFile     string    `mapstructure:"output_file" json:"output_file"`         // 记录输出文件
	BaseDelay      float64   `mapstructure:"base_delay" json:"base_delay"`           // 请求间基础延迟(秒) (默认:2)
	DelayVariation float64   `mapstructure:"delay_variation" json:"delay_variation"` // 随机附加延迟上限(秒) (默认:1)
	Concurrency    int       `mapstructure:"concurrency" json:"concurrency"`         // 并发请求数,固定为1
	RequestTimeout int       `mapstructure:"request_timeout" json:"request_timeout"` // 单次请求超时(秒) (默认:30)
	Mode           FetchMode `mapstructure:"mode" json:"mode"`                       // static|dynamic
	Headless       bool      `mapstructure:"headless" json:"headless"`               // 无头浏览器(dynamic模式)
	WaitTime       int       `mapstructure:"wait_time" json:"wait_time"`             // 页面加载后额外等待(秒,dynamic模式)
	Progress       bool      `mapstructure:"progress" json:"progress"`               // 显示进度条
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.BaseDelay < 0 {
		return fmt.Errorf("基础延迟不能为负数: %.2f", c.BaseDelay)
	}
	if c.DelayVariation < 0 {
		return fmt.Errorf("延迟波动不能为负数: %.2f", c.DelayVariation)
	}
	if c.Concurrency != 1 {
		return fmt.Errorf("并发数固定为1,当前值: %d", c.Concurrency)
	}
	if c.RequestTimeout <= 0 || c.RequestTimeout > 600 {
		return fmt.Errorf("请求超时必须在1-600秒之间,当前值: %d", c.RequestTimeout)
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间,当前值: %d", c.WaitTime)
	}
	switch c.Mode {
	case ModeStatic, ModeDynamic:
	default:
		return fmt.Errorf("无效的抓取模式: %s (有效值: static, dynamic)", c.Mode)
	}
	return nil
}

// ExtractConfig 字段提取配置
type ExtractConfig struct {
	LabelPolicy LabelPolicy `mapstructure:"label_policy" json:"label_policy"`
}

// Validate 验证配置
func (c *ExtractConfig) Validate() error {
	switch c.LabelPolicy {
	case PolicyPositional, PolicyStrict:
		return nil
	default:
		return fmt.Errorf("无效的标签策略: %s (有效值: positional, strict)", c.LabelPolicy)
	}
}

// ReconcileConfig 对账配置
type ReconcileConfig struct {
	CompaniesFile string `mapstructure:"companies_file" json:"companies_file"` // 完整的 公司名->URL 列表
	ProfilesFile  string `mapstructure:"profiles_file" json:"profiles_file"`   // 已抓取的记录
	OutputFile    string `mapstructure:"output_file" json:"output_file"`       // 未抓取公司输出
}
