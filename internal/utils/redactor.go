package utils

import (
	"net/http"
	"strings"
)

// SensitiveKeywords 敏感头部名称关键字
var SensitiveKeywords = []string{
	"authorization",
	"cookie",
	"token",
	"key",
	"secret",
	"password",
	"credential",
}

// HeaderRedactor 日志输出前对敏感头部脱敏
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor 创建头部脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{sensitiveKeywords: SensitiveKeywords}
}

// IsSensitiveHeader 按名称关键字判断
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	// li_at等会话cookie只保留首尾4位
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// Redact 返回脱敏后的 名称->值 (仅第一个值)
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		result[name] = hr.RedactHeaderValue(name, values[0])
	}
	return result
}
