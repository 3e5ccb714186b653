package models

import (
	"fmt"
	"net/http"
	"strings"
)

// CliHeaders 命令行 -H 传入的头部,格式 "Name: Value"
type CliHeaders []string

// Parse 解析为 http.Header
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: 缺少冒号分隔符,应为 'Name: Value'", i+1)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: 头部名称不能为空", i+1)
		}
		result.Set(name, strings.TrimSpace(value))
	}
	return result, nil
}

// HeaderProvider 请求头部提供者
// 返回的头部已按 默认 < 配置文件 < 命令行 合并
type HeaderProvider interface {
	GetHeaders() (http.Header, error)
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // "name" 或 "value"
	HeaderName string
	Reason     string
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// SourceError 输入文件错误(缺失或格式错误)
type SourceError struct {
	Path  string
	Cause error
}

// Error 实现error接口
func (e *SourceError) Error() string {
	return fmt.Sprintf("读取输入文件失败 [%s]: %v", e.Path, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *SourceError) Unwrap() error {
	return e.Cause
}
