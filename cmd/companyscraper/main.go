package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/companyscraper/internal/config"
	"github.com/RecoveryAshes/companyscraper/internal/core"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	crawlOpts     crawlFlags
	reconcileOpts reconcileFlags

	// PersistentPreRunE 中加载的配置
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "companyscraper",
	Short: "公司主页资料抓取工具",
	Long: `companyscraper - 公司主页资料抓取与对账工具

按顺序抓取公司主页,提取名称、简介、规模、总部、融资等字段,
逐条写入JSON数组文件。支持:
  • 静态(Colly)和动态(浏览器)抓取模式
  • 请求间随机延迟
  • 按位置或按标签的字段映射
  • 找出尚未抓取的公司,生成新的输入列表
  • 自定义HTTP请求头

示例:
  # 抓取 companies2.json 中的公司
  companyscraper crawl -i companies2.json -o companies_profile.json

  # 携带Cookie抓取
  companyscraper crawl -H "Cookie: li_at=xxx"

  # 找出未抓取的公司
  companyscraper reconcile --companies companies.json --profiles companies_profile.json -o companies2.json

  # 验证配置文件
  companyscraper --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = cfg

		logConfig := utils.LogConfig{
			Level:      cfg.Logging.Level,
			File:       cfg.Logging.File,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateConfig {
			return runValidateConfig()
		}
		return cmd.Help()
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "抓取公司主页并写出记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		crawlOpts.apply(cmd.Flags(), appConfig)
		if err := appConfig.Validate(); err != nil {
			return err
		}

		// Ctrl+C 后不再派发新请求,已写出的记录保持完整
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := core.RunCrawl(ctx, core.CrawlOptions{
			Crawl:         appConfig.Crawl,
			Extract:       appConfig.Extract,
			ConfigHeaders: appConfig.HTTP.Headers,
			CliHeaders:    headers,
			ReportDir:     appConfig.Report.Dir,
			MetricsFile:   appConfig.Metrics.Textfile,
		})
		if errors.Is(err, context.Canceled) {
			utils.Warn("收到中断信号,已停止抓取")
			err = nil
		}
		if err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}

		printStats(report)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "找出尚未抓取的公司",
	Long: `对比完整的公司列表与已抓取的记录,
把缺少记录的公司写成新的抓取输入文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reconcileOpts.apply(cmd.Flags(), appConfig)

		missing, err := core.RunReconcile(appConfig.Reconcile)
		if err != nil {
			return fmt.Errorf("对账失败: %w", err)
		}

		fmt.Printf("未抓取的公司: %d 家,已写入 %s\n", missing.Len(), appConfig.Reconcile.OutputFile)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("companyscraper %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runValidateConfig 验证配置与HTTP头部,打印脱敏后的头部
func runValidateConfig() error {
	utils.Info("🔍 验证配置...")
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	headerManager, err := core.NewHeaderManager(appConfig.HTTP.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("HTTP头部验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

func printStats(report *models.CrawlReport) {
	stats := report.Stats
	fmt.Println("\n==================================================")
	fmt.Println("📊 抓取统计")
	fmt.Println("==================================================")
	fmt.Printf("✅ 目标总数: %d\n", stats.TotalTargets)
	fmt.Printf("✅ 已发出请求: %d\n", stats.Dispatched)
	fmt.Printf("✅ 写出记录: %d\n", stats.Records)
	fmt.Printf("⏭️  跳过: %d\n", stats.Skipped)
	fmt.Printf("❌ 失败: %d\n", stats.Failed)
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Println("==================================================")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	crawlOpts.register(crawlCmd.Flags())
	reconcileOpts.register(reconcileCmd.Flags())

	rootCmd.AddCommand(crawlCmd, reconcileCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
