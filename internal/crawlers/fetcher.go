package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RecoveryAshes/companyscraper/internal/models"
)

// ErrDuplicateURL 同一URL在本次运行中已抓取过
var ErrDuplicateURL = errors.New("URL已抓取过,跳过")

// FetchResult 一次成功抓取的结果
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// PageFetcher 抓取单个页面
// 实现不要求并发安全,抓取循环保证同一时刻只有一个请求在途
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	Close() error
}

// NewFetcher 按模式创建抓取器
func NewFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) (PageFetcher, error) {
	switch config.Mode {
	case models.ModeStatic, "":
		return NewStaticFetcher(config, headerProvider), nil
	case models.ModeDynamic:
		return NewDynamicFetcher(config, headerProvider)
	default:
		return nil, fmt.Errorf("不支持的抓取模式: %s", config.Mode)
	}
}

// looksLikeHTML 检测响应内容是否为HTML页面
// 登录墙、验证码页同样是HTML,这里只排除JSON/图片等明显异常的响应
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}

	sample := body
	if len(body) > 1024 {
		sample = body[:1024]
	}
	lower := strings.ToLower(string(sample))
	for _, marker := range []string{"<!doctype html", "<html", "<head", "<body"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return http.DetectContentType(sample) == "text/html; charset=utf-8"
}

// applyHeaders 取出头部的第一个值,供colly与rod共用
func applyHeaders(provider models.HeaderProvider, set func(name, value string)) error {
	if provider == nil {
		return nil
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		return err
	}
	for name, values := range headers {
		if len(values) > 0 {
			set(name, values[0])
		}
	}
	return nil
}
