package main

import (
	"github.com/RecoveryAshes/companyscraper/internal/config"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/spf13/pflag"
)

// crawlFlags crawl 子命令参数,只有显式指定的参数才覆盖配置文件
type crawlFlags struct {
	input          string
	output         string
	delay          float64
	delayVariation float64
	timeout        int
	mode           string
	headless       bool
	waitTime       int
	labelPolicy    string
	progress       bool
}

func (f *crawlFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.input, "input", "i", "companies2.json", "公司URL列表文件")
	fs.StringVarP(&f.output, "output", "o", "companies_profile.json", "记录输出文件")
	fs.Float64Var(&f.delay, "delay", 2, "请求间基础延迟(秒)")
	fs.Float64Var(&f.delayVariation, "delay-variation", 1, "随机附加延迟上限(秒)")
	fs.IntVar(&f.timeout, "timeout", 30, "单次请求超时(秒)")
	fs.StringVarP(&f.mode, "mode", "m", string(models.ModeStatic), "抓取模式 (static|dynamic)")
	fs.BoolVar(&f.headless, "headless", true, "无头浏览器模式")
	fs.IntVarP(&f.waitTime, "wait", "w", 2, "页面加载后额外等待(秒,dynamic模式)")
	fs.StringVar(&f.labelPolicy, "label-policy", string(models.PolicyPositional), "字段映射策略 (positional|strict)")
	fs.BoolVar(&f.progress, "progress", false, "显示进度条")
}

func (f *crawlFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("input") {
		cfg.Crawl.InputFile = f.input
	}
	if fs.Changed("output") {
		cfg.Crawl.OutputFile = f.output
	}
	if fs.Changed("delay") {
		cfg.Crawl.BaseDelay = f.delay
	}
	if fs.Changed("delay-variation") {
		cfg.Crawl.DelayVariation = f.delayVariation
	}
	if fs.Changed("timeout") {
		cfg.Crawl.RequestTimeout = f.timeout
	}
	if fs.Changed("mode") {
		cfg.Crawl.Mode = models.FetchMode(f.mode)
	}
	if fs.Changed("headless") {
		cfg.Crawl.Headless = f.headless
	}
	if fs.Changed("wait") {
		cfg.Crawl.WaitTime = f.waitTime
	}
	if fs.Changed("label-policy") {
		cfg.Extract.LabelPolicy = models.LabelPolicy(f.labelPolicy)
	}
	if fs.Changed("progress") {
		cfg.Crawl.Progress = f.progress
	}
}

// reconcileFlags reconcile 子命令参数
type reconcileFlags struct {
	companies string
	profiles  string
	output    string
}

func (f *reconcileFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.companies, "companies", "companies.json", "完整的公司列表")
	fs.StringVar(&f.profiles, "profiles", "companies_profile.json", "已抓取的记录")
	fs.StringVarP(&f.output, "output", "o", "companies2.json", "未抓取公司输出文件")
}

func (f *reconcileFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("companies") {
		cfg.Reconcile.CompaniesFile = f.companies
	}
	if fs.Changed("profiles") {
		cfg.Reconcile.ProfilesFile = f.profiles
	}
	if fs.Changed("output") {
		cfg.Reconcile.OutputFile = f.output
	}
}
