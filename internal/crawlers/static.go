package crawlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// defaultRequestTimeout 未配置超时时使用
const defaultRequestTimeout = 30 * time.Second

// fetchStateKey colly.Context中保存本次请求结果的键
const fetchStateKey = "fetch_state"

// fetchState 回调与Fetch之间传递结果
type fetchState struct {
	result *FetchResult
	err    error
}

// StaticFetcher 静态抓取器(使用Colly)
type StaticFetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态抓取器
// collector为同步模式,Visit返回时回调已全部执行完毕
func NewStaticFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	timeout := time.Duration(config.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	c := colly.NewCollector()
	c.SetRequestTimeout(timeout)

	// 同一时刻只有一个请求在途
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}

	utils.Debugf("静态抓取器: 请求超时 %v, 并发 1", timeout)

	sf := &StaticFetcher{
		collector:      c,
		config:         config,
		headerProvider: headerProvider,
	}
	sf.setupCallbacks()
	return sf
}

// setupCallbacks 设置Colly回调
func (sf *StaticFetcher) setupCallbacks() {
	// 访问前: 应用自定义HTTP头部
	sf.collector.OnRequest(func(r *colly.Request) {
		if err := applyHeaders(sf.headerProvider, r.Headers.Set); err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
		}
		utils.Debugf("访问: %s", r.URL.String())
	})

	// 处理响应
	sf.collector.OnResponse(func(r *colly.Response) {
		state, ok := r.Ctx.GetAny(fetchStateKey).(*fetchState)
		if !ok {
			return
		}
		requestURL := r.Request.URL.String()

		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				// 解压失败,仍然尝试使用原始body
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", requestURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		contentType := r.Headers.Get("Content-Type")
		if !looksLikeHTML(contentType, body) {
			utils.Warnf("响应内容不是HTML [%s]: Content-Type=%s", requestURL, contentType)
		}

		state.result = &FetchResult{
			URL:         requestURL,
			StatusCode:  r.StatusCode,
			ContentType: contentType,
			Body:        body,
		}
	})

	// 错误处理: 网络错误以及状态码异常的响应
	sf.collector.OnError(func(r *colly.Response, err error) {
		state, ok := r.Ctx.GetAny(fetchStateKey).(*fetchState)
		if !ok {
			return
		}
		if r.StatusCode > 0 {
			state.err = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
			return
		}
		state.err = err
	})
}

// Fetch 抓取单个页面
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if visited, err := sf.collector.HasVisited(pageURL); err == nil && visited {
		return nil, ErrDuplicateURL
	}

	state := &fetchState{}
	cctx := colly.NewContext()
	cctx.Put(fetchStateKey, state)

	err := sf.collector.Request(http.MethodGet, pageURL, nil, cctx, nil)
	if state.err != nil {
		return nil, state.err
	}
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if state.result == nil {
		return nil, fmt.Errorf("未收到响应: %s", pageURL)
	}
	return state.result, nil
}

// Close 静态模式无需释放资源
func (sf *StaticFetcher) Close() error {
	return nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli), zstd
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		// Colly已解压gzip时头部仍保留,按魔数判断
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "zstd":
		reader, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("zstd解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("zstd读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
