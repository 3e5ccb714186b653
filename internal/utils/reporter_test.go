package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/models"
)

func TestReporter_GenerateReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	reporter := NewReporter(dir)

	start := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	report := &models.CrawlReport{
		RunID:     models.NewRunID(),
		InputFile: "companies2.json",
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Stats:     models.CrawlStats{TotalTargets: 3, Fetched: 1, Failed: 2, Records: 1},
		FailedTargets: []models.FailedTarget{
			{Name: "Zeta", URL: "https://example.com/zeta", ErrorMsg: "Not Found"},
			{Name: "Alpha", URL: "https://example.com/alpha", ErrorMsg: "timeout"},
		},
	}

	path, err := reporter.GenerateReport(report)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if filepath.Base(path) != "crawl_report_20240301_103000.json" {
		t.Errorf("报告文件名错误: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取报告失败: %v", err)
	}
	var decoded models.CrawlReport
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("解析报告失败: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.Stats.Failed != 2 {
		t.Errorf("报告内容不匹配: %+v", decoded)
	}

	failedData, err := os.ReadFile(filepath.Join(dir, "failed_targets.json"))
	if err != nil {
		t.Fatalf("读取失败目标文件失败: %v", err)
	}
	var failed []*models.URLMap
	if err := json.Unmarshal(failedData, &failed); err != nil {
		t.Fatalf("失败目标文件格式错误: %v", err)
	}
	if len(failed) != 1 || failed[0].Len() != 2 || failed[0].Keys()[0] != "Zeta" {
		t.Errorf("失败目标应保持顺序: %s", failedData)
	}
}

func TestReporter_NoFailedTargetsFile(t *testing.T) {
	dir := t.TempDir()
	report := &models.CrawlReport{RunID: "r1", StartTime: time.Now()}

	if _, err := NewReporter(dir).GenerateReport(report); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "failed_targets.json")); !os.IsNotExist(err) {
		t.Error("没有失败目标时不应生成failed_targets.json")
	}
}
