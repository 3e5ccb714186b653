package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/crawlers"
	"github.com/RecoveryAshes/companyscraper/internal/extractor"
	"github.com/RecoveryAshes/companyscraper/internal/metrics"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// RecordSink 接收提取出的记录,每条记录到达即写出
type RecordSink interface {
	Write(record interface{}) error
}

// DelayPolicy 请求间隔: Base + [0, Variation) 的随机值
type DelayPolicy struct {
	Base      time.Duration
	Variation time.Duration

	rng *rand.Rand
}

// NewDelayPolicy 以秒为单位创建延迟策略,rng为nil时使用时间种子
func NewDelayPolicy(baseSeconds, variationSeconds float64, rng *rand.Rand) DelayPolicy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return DelayPolicy{
		Base:      time.Duration(baseSeconds * float64(time.Second)),
		Variation: time.Duration(variationSeconds * float64(time.Second)),
		rng:       rng,
	}
}

// Next 下一次等待时长
func (d DelayPolicy) Next() time.Duration {
	if d.Variation <= 0 || d.rng == nil {
		return d.Base
	}
	return d.Base + time.Duration(d.rng.Float64()*float64(d.Variation))
}

// ProfileCrawler 顺序抓取公司主页并逐条写出记录
type ProfileCrawler struct {
	fetcher   crawlers.PageFetcher
	extractor *extractor.Extractor
	sink      RecordSink
	delay     DelayPolicy
	progress  bool
	metrics   *metrics.CrawlMetrics

	// sleep 可在测试中替换
	sleep func(ctx context.Context, d time.Duration) error

	failed []models.FailedTarget
}

// NewProfileCrawler 创建抓取循环
func NewProfileCrawler(fetcher crawlers.PageFetcher, ext *extractor.Extractor, sink RecordSink, delay DelayPolicy) *ProfileCrawler {
	return &ProfileCrawler{
		fetcher:   fetcher,
		extractor: ext,
		sink:      sink,
		delay:     delay,
		sleep:     sleepContext,
	}
}

// EnableProgress 显示进度条
func (pc *ProfileCrawler) EnableProgress() {
	pc.progress = true
}

// EnableMetrics 记录请求和记录指标
func (pc *ProfileCrawler) EnableMetrics(m *metrics.CrawlMetrics) {
	pc.metrics = m
}

// FailedTargets 本次运行中失败的目标
func (pc *ProfileCrawler) FailedTargets() []models.FailedTarget {
	return pc.failed
}

// Run 按顺序抓取所有目标
// 执行流程:
//  1. 目标为空时记录错误并立即返回
//  2. 每个目标: 抓取 → 提取 → 写出,失败只记录日志
//  3. 两次请求之间随机等待,最后一个请求之后不等待
//
// context取消后不再派发新请求,已在途的请求正常完成
func (pc *ProfileCrawler) Run(ctx context.Context, targets []models.Target) (models.CrawlStats, error) {
	startTime := time.Now()
	stats := models.CrawlStats{TotalTargets: len(targets)}

	if len(targets) == 0 {
		utils.Error(errors.New("no company URLs found"), "未找到任何公司URL,结束抓取")
		return stats, nil
	}

	utils.Infof("🚀 开始请求 %d 个URL", len(targets))

	var bar *progressbar.ProgressBar
	if pc.progress {
		bar = utils.NewProgressBar(len(targets), "抓取公司主页")
		defer bar.Finish()
	}

	seen := make(map[string]struct{}, len(targets))
	var runErr error

	for i, target := range targets {
		if _, dup := seen[target.URL]; dup {
			utils.Infof("跳过重复URL: %s (%s)", target.URL, target.Name)
			stats.Skipped++
			pc.metrics.ObserveFetch(metrics.ResultSkipped, 0)
			pc.step(bar)
			continue
		}
		seen[target.URL] = struct{}{}

		if stats.Dispatched > 0 {
			wait := pc.delay.Next()
			utils.Infof("等待 %.2f 秒后发送下一个请求", wait.Seconds())
			if err := pc.sleep(ctx, wait); err != nil {
				runErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		utils.Infof("[%d/%d] 请求: %s", i+1, len(targets), target.URL)
		stats.Dispatched++

		fetchStart := time.Now()
		result, err := pc.fetcher.Fetch(ctx, target.URL)
		if err != nil {
			if errors.Is(err, crawlers.ErrDuplicateURL) {
				stats.Skipped++
				pc.metrics.ObserveFetch(metrics.ResultSkipped, 0)
				pc.step(bar)
				continue
			}
			stats.Failed++
			pc.metrics.ObserveFetch(metrics.ResultFailed, time.Since(fetchStart))
			pc.failed = append(pc.failed, models.FailedTarget{
				Name:     target.Name,
				URL:      target.URL,
				ErrorMsg: err.Error(),
			})
			utils.Logger.Error().
				Err(err).
				Str("url", target.URL).
				Str("company", target.Name).
				Msg("请求失败")
			pc.step(bar)
			continue
		}
		stats.Fetched++
		pc.metrics.ObserveFetch(metrics.ResultFetched, time.Since(fetchStart))

		record := pc.extractor.Extract(&models.Document{
			URL:   target.URL,
			Index: i + 1,
			Total: len(targets),
			Body:  result.Body,
		})
		if err := pc.sink.Write(record); err != nil {
			runErr = fmt.Errorf("写出记录失败: %w", err)
			break
		}
		stats.Records++
		pc.metrics.ObserveRecord(record)
		pc.step(bar)
	}

	stats.Duration = time.Since(startTime).Seconds()

	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		utils.Warnf("抓取被中断: 已派发 %d/%d", stats.Dispatched, stats.TotalTargets)
	}

	utils.Info("📊 抓取摘要")
	utils.Infof("目标数: %d", stats.TotalTargets)
	utils.Infof("✅ 成功: %d", stats.Fetched)
	utils.Infof("❌ 失败: %d", stats.Failed)
	utils.Infof("跳过: %d", stats.Skipped)
	utils.Infof("⏱️  总耗时: %.2f秒", stats.Duration)

	if len(pc.failed) > 0 {
		utils.Warn("失败的URL:")
		for _, ft := range pc.failed {
			utils.Warnf("  - %s: %s", ft.URL, ft.ErrorMsg)
		}
	}

	return stats, runErr
}

func (pc *ProfileCrawler) step(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

// sleepContext 等待d,context取消时提前返回
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
