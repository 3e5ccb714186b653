package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DynamicFetcher 动态抓取器(使用go-rod)
// 页面经浏览器渲染后再交给提取器
type DynamicFetcher struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	config   models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	visited map[string]struct{}
}

// NewDynamicFetcher 启动浏览器并创建动态抓取器
func NewDynamicFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) (*DynamicFetcher, error) {
	if snapshot, err := SampleResources(); err != nil {
		utils.Warnf("%v", err)
	} else if !snapshot.HasHeadroom(BrowserMemoryReserve) {
		utils.Warnf("⚠️  可用内存不足,浏览器可能启动失败或被系统终止 (%s)", snapshot)
	} else {
		utils.Debugf("系统资源: %s", snapshot)
	}

	l := launcher.New().Headless(config.Headless)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, config.Headless)

	return &DynamicFetcher{
		launcher:       l,
		browser:        browser,
		config:         config,
		headerProvider: headerProvider,
		visited:        make(map[string]struct{}),
	}, nil
}

// Fetch 在新标签页中打开URL,等待加载和额外的wait_time后返回渲染后的HTML
func (df *DynamicFetcher) Fetch(ctx context.Context, pageURL string) (result *FetchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("页面抓取panic: %v", r)
			utils.Errorf("捕获panic: URL=%s, 错误=%v, 类型=panic恢复", pageURL, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, seen := df.visited[pageURL]; seen {
		return nil, ErrDuplicateURL
	}
	df.visited[pageURL] = struct{}{}

	timeout := time.Duration(df.config.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	pageCtx, cancel := context.WithTimeout(ctx, timeout+time.Duration(df.config.WaitTime)*time.Second)
	defer cancel()

	page, err := df.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			utils.Debugf("关闭标签页失败 [%s]: %v", pageURL, closeErr)
		}
	}()
	p := page.Context(pageCtx)

	var headers []string
	if err := applyHeaders(df.headerProvider, func(name, value string) {
		headers = append(headers, name, value)
	}); err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
	}
	if len(headers) > 0 {
		restore, err := p.SetExtraHeaders(headers)
		if err != nil {
			return nil, fmt.Errorf("设置HTTP头部失败: %w", err)
		}
		defer restore()
	}

	// 记录主文档的状态码
	var status int
	waitDocument := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("导航失败: %w", err)
	}
	waitDocument()

	if status >= 400 {
		return nil, fmt.Errorf("HTTP %d", status)
	}

	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("等待页面加载失败: %w", err)
	}

	// 额外等待时间(等待动态内容渲染)
	if df.config.WaitTime > 0 {
		select {
		case <-time.After(time.Duration(df.config.WaitTime) * time.Second):
		case <-pageCtx.Done():
			return nil, pageCtx.Err()
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("获取页面HTML失败: %w", err)
	}

	utils.Debugf("页面渲染完成: %s (%d bytes)", pageURL, len(html))

	return &FetchResult{
		URL:         pageURL,
		StatusCode:  status,
		ContentType: "text/html",
		Body:        []byte(html),
	}, nil
}

// Close 关闭浏览器
func (df *DynamicFetcher) Close() error {
	if df.browser == nil {
		return nil
	}
	err := df.browser.Close()
	df.launcher.Cleanup()
	utils.Debugf("浏览器已关闭")
	return err
}
