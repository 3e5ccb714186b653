// Package output 提供爬取结果的流式写出
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// JSONArrayWriter 以JSON数组形式逐条写出记录
// 每条记录到达即写入并刷新,Close时补上结尾的 ]
type JSONArrayWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	count  int
	closed bool
}

// NewJSONArrayWriter 包装任意Writer
func NewJSONArrayWriter(w io.Writer) *JSONArrayWriter {
	jw := &JSONArrayWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// CreateJSONArrayFile 创建(覆盖)输出文件
func CreateJSONArrayFile(path string) (*JSONArrayWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("创建输出文件失败: %w", err)
	}
	return NewJSONArrayWriter(f), nil
}

// Write 写出一条记录
func (jw *JSONArrayWriter) Write(record interface{}) error {
	data, err := json.MarshalIndent(record, "    ", "    ")
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return fmt.Errorf("输出已关闭")
	}

	sep := ",\n    "
	if jw.count == 0 {
		sep = "[\n    "
	}
	if _, err := jw.w.WriteString(sep); err != nil {
		return err
	}
	if _, err := jw.w.Write(data); err != nil {
		return err
	}
	jw.count++
	return jw.w.Flush()
}

// Count 已写出的记录数
func (jw *JSONArrayWriter) Count() int {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.count
}

// Close 结束数组并关闭底层文件; 重复调用无副作用
func (jw *JSONArrayWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return nil
	}
	jw.closed = true

	tail := "\n]\n"
	if jw.count == 0 {
		tail = "[]\n"
	}
	_, err := jw.w.WriteString(tail)
	if flushErr := jw.w.Flush(); err == nil {
		err = flushErr
	}
	if jw.closer != nil {
		if closeErr := jw.closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
