package models

import (
	"encoding/json"
	"time"
)

// CrawlStats 爬取统计
type CrawlStats struct {
	TotalTargets int     `json:"total_targets"` // 目标总数
	Dispatched   int     `json:"dispatched"`    // 已发出请求数
	Fetched      int     `json:"fetched"`       // 成功抓取页面数
	Failed       int     `json:"failed"`        // 失败请求数
	Skipped      int     `json:"skipped"`       // 跳过数(重复URL等)
	Records      int     `json:"records"`       // 输出记录数
	Duration     float64 `json:"duration"`      // 总耗时(秒)
}

// FailedTarget 失败的目标
type FailedTarget struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// CrawlReport 爬取报告
type CrawlReport struct {
	RunID      string `json:"run_id"`
	InputFile  string `json:"input_file"`
	OutputFile string `json:"output_file"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Stats         CrawlStats     `json:"stats"`
	FailedTargets []FailedTarget `json:"failed_targets"`

	// 配置快照
	Config  CrawlConfig   `json:"config"`
	Extract ExtractConfig `json:"extract"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
