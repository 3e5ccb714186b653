// Package metrics 抓取运行的Prometheus指标
//
// 抓取是一次性批处理,指标在运行结束时写入textfile,
// 由 node_exporter 的 textfile collector 采集。
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求结果标签
const (
	ResultFetched = "fetched"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// CrawlMetrics 一次抓取运行的指标,nil值可安全调用
type CrawlMetrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RecordsTotal       prometheus.Counter
	FieldsMissingTotal *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
}

// NewCrawlMetrics 创建指标,注册到独立的registry
func NewCrawlMetrics() *CrawlMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &CrawlMetrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "companyscraper_requests_total",
			Help: "Company page requests by result.",
		}, []string{"result"}), // fetched, failed, skipped
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "companyscraper_records_total",
			Help: "Records written to the output file.",
		}),
		FieldsMissingTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "companyscraper_fields_missing_total",
			Help: "Record fields left as not-found, by field.",
		}, []string{"field"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "companyscraper_fetch_duration_seconds",
			Help:    "Duration of single page fetches.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// Registry 返回指标所在的registry
func (m *CrawlMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch 记录一次请求的结果和耗时
// skipped 的请求不计入耗时
func (m *CrawlMetrics) ObserveFetch(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		m.FetchDuration.Observe(elapsed.Seconds())
	}
}

// ObserveRecord 记录一条写出的记录及其缺失字段
func (m *CrawlMetrics) ObserveRecord(record *models.CompanyRecord) {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
	for _, name := range models.RecordFields {
		if v, _ := record.Get(name); v.IsNotFound() {
			m.FieldsMissingTotal.WithLabelValues(name).Inc()
		}
	}
}

// WriteTextfile 以textfile格式写出全部指标
func (m *CrawlMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建指标目录失败: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("写出指标失败: %w", err)
	}
	return nil
}
