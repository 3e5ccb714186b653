package core

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/crawlers"
	"github.com/RecoveryAshes/companyscraper/internal/extractor"
	"github.com/RecoveryAshes/companyscraper/internal/models"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*crawlers.FetchResult, error) {
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("HTTP 404: Not Found")
	}
	return &crawlers.FetchResult{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *fakeFetcher) Close() error { return nil }

type sliceSink struct {
	records []*models.CompanyRecord
}

func (s *sliceSink) Write(record interface{}) error {
	s.records = append(s.records, record.(*models.CompanyRecord))
	return nil
}

func companyHTML(name string) string {
	return `<html><body><div class="top-card-layout__entity-info"><h1>` + name + `</h1></div></body></html>`
}

func newTestCrawler(fetcher crawlers.PageFetcher, sink RecordSink) (*ProfileCrawler, *[]time.Duration) {
	pc := NewProfileCrawler(fetcher, extractor.New(models.PolicyPositional), sink,
		NewDelayPolicy(2, 1, rand.New(rand.NewSource(1))))
	var sleeps []time.Duration
	pc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return pc, &sleeps
}

func TestProfileCrawler_Run(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/company/acme":   companyHTML("Acme"),
		"https://example.com/company/globex": companyHTML("Globex"),
	}}
	sink := &sliceSink{}
	pc, sleeps := newTestCrawler(fetcher, sink)

	targets := []models.Target{
		{Name: "Acme", URL: "https://example.com/company/acme"},
		{Name: "Missing", URL: "https://example.com/company/missing"},
		{Name: "Globex", URL: "https://example.com/company/globex"},
	}

	stats, err := pc.Run(context.Background(), targets)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Dispatched != 3 || stats.Fetched != 2 || stats.Failed != 1 || stats.Records != 2 {
		t.Errorf("统计错误: %+v", stats)
	}
	if len(sink.records) != 2 {
		t.Fatalf("期望2条记录, 得到 %d", len(sink.records))
	}
	if sink.records[0].CompanyName() != "Acme" || sink.records[1].CompanyName() != "Globex" {
		t.Errorf("记录顺序错误: %s, %s", sink.records[0].CompanyName(), sink.records[1].CompanyName())
	}

	// 失败不影响后续目标,最后一个请求之后不等待
	if len(*sleeps) != 2 {
		t.Errorf("3次请求之间应等待2次, 实际 %d 次", len(*sleeps))
	}

	failed := pc.FailedTargets()
	if len(failed) != 1 || failed[0].Name != "Missing" {
		t.Errorf("失败目标错误: %+v", failed)
	}
}

func TestProfileCrawler_ZeroTargets(t *testing.T) {
	sink := &sliceSink{}
	// 没有目标时不会调用fetcher
	pc, sleeps := newTestCrawler(nil, sink)

	stats, err := pc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Dispatched != 0 || len(sink.records) != 0 || len(*sleeps) != 0 {
		t.Errorf("空目标不应发出请求: %+v", stats)
	}
}

func TestProfileCrawler_DuplicateURLs(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/company/acme": companyHTML("Acme"),
	}}
	sink := &sliceSink{}
	pc, sleeps := newTestCrawler(fetcher, sink)

	targets := []models.Target{
		{Name: "Acme", URL: "https://example.com/company/acme"},
		{Name: "Acme Inc", URL: "https://example.com/company/acme"},
	}

	stats, err := pc.Run(context.Background(), targets)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fetcher.calls) != 1 || stats.Skipped != 1 {
		t.Errorf("重复URL应只抓取一次: calls=%d, stats=%+v", len(fetcher.calls), stats)
	}
	if len(*sleeps) != 0 {
		t.Errorf("跳过的重复URL不应触发等待")
	}
}

func TestProfileCrawler_Canceled(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/company/a": companyHTML("A"),
		"https://example.com/company/b": companyHTML("B"),
	}}
	sink := &sliceSink{}
	pc, _ := newTestCrawler(fetcher, sink)

	ctx, cancel := context.WithCancel(context.Background())
	pc.sleep = func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}

	stats, err := pc.Run(ctx, []models.Target{
		{Name: "A", URL: "https://example.com/company/a"},
		{Name: "B", URL: "https://example.com/company/b"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望context.Canceled, 得到 %v", err)
	}
	if stats.Dispatched != 1 || len(sink.records) != 1 {
		t.Errorf("取消后不应派发新请求: %+v", stats)
	}
}

func TestDelayPolicy_Bounds(t *testing.T) {
	policy := NewDelayPolicy(2, 1, rand.New(rand.NewSource(42)))
	for i := 0; i < 1000; i++ {
		d := policy.Next()
		if d < 2*time.Second || d >= 3*time.Second {
			t.Fatalf("延迟超出范围 [2s, 3s): %v", d)
		}
	}

	fixed := NewDelayPolicy(0.5, 0, nil)
	if d := fixed.Next(); d != 500*time.Millisecond {
		t.Errorf("无波动时应返回基础延迟, 得到 %v", d)
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("期望context.Canceled, 得到 %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("取消后应立即返回")
	}
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("零时长不应报错: %v", err)
	}
}
