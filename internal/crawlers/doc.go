// Package crawlers 提供公司主页的静态和动态抓取功能
//
// # 概述
//
// crawlers包定义PageFetcher接口,由抓取循环逐个调用。
// 同一时刻只有一个请求在途,实现无需考虑并发。
//
// # 核心组件
//
// ## StaticFetcher
//
// 基于Colly的同步抓取器。OnRequest回调应用自定义HTTP头部,
// OnResponse回调保存响应体(必要时解压br/deflate/gzip/zstd),
// OnError回调记录网络错误和异常状态码。
// 重复URL由Colly的访问记录识别,返回ErrDuplicateURL。
//
//	fetcher := NewStaticFetcher(config, headerProvider)
//	defer fetcher.Close()
//
//	result, err := fetcher.Fetch(ctx, "https://www.linkedin.com/company/acme")
//
// ## DynamicFetcher
//
// 基于go-rod的抓取器,每个URL使用一个新标签页,
// 等待页面加载和wait_time秒后返回渲染后的HTML。
// 页面级panic会被恢复并转换为error。
// 启动浏览器前用SampleResources检查可用内存,不足时只记录警告。
//
//	fetcher, err := NewDynamicFetcher(config, headerProvider)
//	if err != nil { /* 处理错误 */ }
//	defer fetcher.Close()
//
// # 超时
//
// request_timeout(默认30秒)同时作用于两种模式,
// 动态模式的单页超时为 request_timeout + wait_time。
package crawlers
