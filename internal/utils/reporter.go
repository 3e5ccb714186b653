package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// ReportPath 报告文件路径,按开始时间命名
func (r *Reporter) ReportPath(report *models.CrawlReport) string {
	name := fmt.Sprintf("crawl_report_%s.json", report.StartTime.Format("20060102_150405"))
	return filepath.Join(r.outputDir, name)
}

// GenerateReport 生成爬取报告,失败目标另存一份便于重跑
func (r *Reporter) GenerateReport(report *models.CrawlReport) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	path := r.ReportPath(report)
	if err := saveJSONReport(path, report); err != nil {
		return "", err
	}

	if len(report.FailedTargets) > 0 {
		failed := models.NewURLMap()
		for _, ft := range report.FailedTargets {
			failed.Set(ft.Name, ft.URL)
		}
		// 与输入文件格式一致: [ {name: url, ...} ]
		failedPath := filepath.Join(r.outputDir, "failed_targets.json")
		if err := saveJSONReport(failedPath, []*models.URLMap{failed}); err != nil {
			return "", err
		}
	}

	Infof("✅ 报告已生成: %s", path)
	return path, nil
}

// saveJSONReport 保存JSON报告
func saveJSONReport(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
