package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Target 一个待爬取的公司主页
type Target struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Document 抓取到的页面
type Document struct {
	URL   string // 请求URL
	Index int    // 在目标列表中的位置(仅用于进度日志)
	Total int    // 目标总数
	Body  []byte // 页面HTML
}

// URLMap 保持插入顺序的 公司名 -> URL 映射
// 零值可直接使用
type URLMap struct {
	keys []string
	urls map[string]string
}

// NewURLMap 创建映射
func NewURLMap() *URLMap {
	return &URLMap{urls: make(map[string]string)}
}

// Set 写入映射; 已存在的键只更新值,保持原位置
func (m *URLMap) Set(name, url string) {
	if m.urls == nil {
		m.urls = make(map[string]string)
	}
	if _, exists := m.urls[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.urls[name] = url
}

// Get 读取URL
func (m *URLMap) Get(name string) (string, bool) {
	url, ok := m.urls[name]
	return url, ok
}

// Len 映射大小
func (m *URLMap) Len() int {
	return len(m.keys)
}

// Keys 按插入顺序返回所有名称
func (m *URLMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Targets 按插入顺序转换为目标列表
func (m *URLMap) Targets() []Target {
	targets := make([]Target, 0, len(m.keys))
	for _, k := range m.keys {
		targets = append(targets, Target{Name: k, URL: m.urls[k]})
	}
	return targets
}

// MarshalJSON 按插入顺序输出
func (m URLMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.urls[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 逐token解析对象,保留键顺序; 值必须为字符串
func (m *URLMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("期望JSON对象, 得到 %v", tok)
	}

	*m = URLMap{urls: make(map[string]string)}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("键 %q 的值不是字符串: %w", name, err)
		}
		m.Set(name, url)
	}

	_, err = dec.Token()
	return err
}
