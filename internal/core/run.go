package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/crawlers"
	"github.com/RecoveryAshes/companyscraper/internal/extractor"
	"github.com/RecoveryAshes/companyscraper/internal/metrics"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/output"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
)

// CrawlOptions 一次抓取运行所需的全部配置
type CrawlOptions struct {
	Crawl   models.CrawlConfig
	Extract models.ExtractConfig

	// ConfigHeaders 配置文件中的 http.headers
	ConfigHeaders map[string]string
	// CliHeaders 命令行 -H 参数
	CliHeaders []string

	// ReportDir 为空时不生成报告
	ReportDir string
	// MetricsFile 为空时不写出指标
	MetricsFile string
}

// RunCrawl 执行一次完整的抓取
// 执行流程:
//  1. 加载URL列表
//  2. 验证HTTP头部
//  3. 创建输出文件和抓取器
//  4. 顺序抓取并逐条写出
//  5. 关闭输出,生成爬取报告和指标文件
func RunCrawl(ctx context.Context, opts CrawlOptions) (*models.CrawlReport, error) {
	report := &models.CrawlReport{
		RunID:      models.NewRunID(),
		InputFile:  opts.Crawl.InputFile,
		OutputFile: opts.Crawl.OutputFile,
		StartTime:  time.Now(),
		Config:     opts.Crawl,
		Extract:    opts.Extract,
	}

	utils.Infof("🚀 开始抓取任务 (run_id=%s)", report.RunID)
	utils.Infof("输入文件: %s", opts.Crawl.InputFile)
	utils.Infof("输出文件: %s", opts.Crawl.OutputFile)
	utils.Infof("抓取模式: %s, 标签策略: %s", opts.Crawl.Mode, opts.Extract.LabelPolicy)

	targets := LoadTargets(opts.Crawl.InputFile)

	headerManager, err := NewHeaderManager(opts.ConfigHeaders, opts.CliHeaders)
	if err != nil {
		return nil, fmt.Errorf("解析HTTP头部失败: %w", err)
	}
	if _, err := headerManager.GetHeaders(); err != nil {
		return nil, err
	}
	utils.Debugf("生效的HTTP头部: %v", headerManager.GetSafeHeaders())

	sink, err := output.CreateJSONArrayFile(opts.Crawl.OutputFile)
	if err != nil {
		return nil, err
	}

	// 没有目标时不启动浏览器,fetcher保持nil,Run会直接返回
	var fetcher crawlers.PageFetcher
	if len(targets) > 0 {
		fetcher, err = crawlers.NewFetcher(opts.Crawl, headerManager)
		if err != nil {
			sink.Close()
			return nil, err
		}
		defer func() {
			if err := fetcher.Close(); err != nil {
				utils.Warnf("关闭抓取器失败: %v", err)
			}
		}()
	}

	crawler := NewProfileCrawler(
		fetcher,
		extractor.New(opts.Extract.LabelPolicy),
		sink,
		NewDelayPolicy(opts.Crawl.BaseDelay, opts.Crawl.DelayVariation, nil),
	)
	if opts.Crawl.Progress {
		crawler.EnableProgress()
	}
	var crawlMetrics *metrics.CrawlMetrics
	if opts.MetricsFile != "" {
		crawlMetrics = metrics.NewCrawlMetrics()
		crawler.EnableMetrics(crawlMetrics)
	}

	stats, runErr := crawler.Run(ctx, targets)

	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("关闭输出文件失败: %w", err)
	}

	report.EndTime = time.Now()
	report.Stats = stats
	report.FailedTargets = crawler.FailedTargets()

	if opts.ReportDir != "" {
		if _, err := utils.NewReporter(opts.ReportDir).GenerateReport(report); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}

	if crawlMetrics != nil {
		if err := crawlMetrics.WriteTextfile(opts.MetricsFile); err != nil {
			utils.Warnf("%v", err)
		} else {
			utils.Debugf("指标已写入: %s", opts.MetricsFile)
		}
	}

	utils.Infof("✅ 抓取任务完成: 写出 %d 条记录到 %s", stats.Records, opts.Crawl.OutputFile)
	return report, runErr
}
