package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/RecoveryAshes/companyscraper/internal/config"
	"github.com/RecoveryAshes/companyscraper/internal/crawlers"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  companyscraper 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查配置文件
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 配置文件无效: %v\n", err)
		allOK = false
	} else if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ 配置验证失败: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 配置有效 (mode=%s, label_policy=%s)\n", cfg.Crawl.Mode, cfg.Extract.LabelPolicy)
		if _, err := os.Stat(cfg.Crawl.InputFile); err != nil {
			fmt.Printf("⚠️  输入文件不存在: %s (抓取时将输出空数组)\n", cfg.Crawl.InputFile)
		} else {
			fmt.Printf("✅ 输入文件: %s\n", cfg.Crawl.InputFile)
		}
	}

	// 检查浏览器(dynamic模式需要)
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 浏览器: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地浏览器 - dynamic模式首次运行时会自动下载Chromium")
	}

	// 检查系统资源
	snapshot, err := crawlers.SampleResources()
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
	} else if snapshot.HasHeadroom(crawlers.BrowserMemoryReserve) {
		fmt.Printf("✅ 系统资源: %s\n", snapshot)
	} else {
		fmt.Printf("⚠️  可用内存不足,dynamic模式可能不稳定: %s\n", snapshot)
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredDirs := []string{
		"cmd/companyscraper",
		"internal/core",
		"internal/crawlers",
		"internal/extractor",
		"internal/output",
		"internal/utils",
		"internal/models",
		"configs",
	}

	for _, dir := range requiredDirs {
		if _, err := os.Stat(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不存在\n", dir)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build ./cmd/companyscraper' 构建项目")
		fmt.Println("  2. 运行 './companyscraper crawl --help' 查看帮助")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
