package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/companyscraper/internal/models"
)

func crawlOptions(dir, input string) CrawlOptions {
	return CrawlOptions{
		Crawl: models.CrawlConfig{
			InputFile:      input,
			OutputFile:     filepath.Join(dir, "out", "companies_profile.json"),
			Concurrency:    1,
			RequestTimeout: 5,
			Mode:           models.ModeStatic,
		},
		Extract:   models.ExtractConfig{LabelPolicy: models.PolicyPositional},
		ReportDir: filepath.Join(dir, "reports"),
	}
}

func TestRunCrawl_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company/acme":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, companyHTML("Acme"))
		case "/company/globex":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, companyHTML("Globex"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "companies2.json", fmt.Sprintf(
		`[{"Acme": "%[1]s/company/acme", "Gone": "%[1]s/company/gone"}, {"Globex": "%[1]s/company/globex"}]`, srv.URL))
	opts := crawlOptions(dir, input)
	opts.MetricsFile = filepath.Join(dir, "metrics", "companyscraper.prom")

	report, err := RunCrawl(context.Background(), opts)
	if err != nil {
		t.Fatalf("RunCrawl() error = %v", err)
	}

	if report.Stats.Records != 2 || report.Stats.Failed != 1 {
		t.Errorf("统计错误: %+v", report.Stats)
	}
	if len(report.FailedTargets) != 1 || report.FailedTargets[0].Name != "Gone" {
		t.Errorf("失败目标错误: %+v", report.FailedTargets)
	}

	data, err := os.ReadFile(opts.Crawl.OutputFile)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	var records []map[string]models.Value
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("输出不是合法JSON: %v\n%s", err, data)
	}
	if len(records) != 2 {
		t.Fatalf("期望2条记录, 得到 %d", len(records))
	}
	if name, _ := records[1][models.FieldCompanyName].AsText(); name != "Globex" {
		t.Errorf("记录顺序错误: %v", records)
	}

	reports, _ := filepath.Glob(filepath.Join(opts.ReportDir, "crawl_report_*.json"))
	if len(reports) != 1 {
		t.Errorf("应生成1份报告, 得到 %v", reports)
	}

	prom, err := os.ReadFile(opts.MetricsFile)
	if err != nil {
		t.Fatalf("读取指标文件失败: %v", err)
	}
	if !strings.Contains(string(prom), "companyscraper_records_total 2") {
		t.Errorf("指标文件缺少记录数:\n%s", prom)
	}
}

func TestRunCrawl_MissingInput(t *testing.T) {
	dir := t.TempDir()
	opts := crawlOptions(dir, filepath.Join(dir, "missing.json"))

	report, err := RunCrawl(context.Background(), opts)
	if err != nil {
		t.Fatalf("缺少输入文件不应返回错误: %v", err)
	}
	if report.Stats.Dispatched != 0 || report.Stats.Records != 0 {
		t.Errorf("不应发出请求: %+v", report.Stats)
	}

	data, err := os.ReadFile(opts.Crawl.OutputFile)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("零条记录应输出[], 得到 %q", data)
	}
}

func TestRunCrawl_InvalidHeader(t *testing.T) {
	dir := t.TempDir()
	opts := crawlOptions(dir, filepath.Join(dir, "missing.json"))
	opts.CliHeaders = []string{"Connection: close"}

	if _, err := RunCrawl(context.Background(), opts); err == nil {
		t.Error("非法头部应在抓取开始前返回错误")
	}
}
