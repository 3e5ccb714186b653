package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/companyscraper/internal/models"
)

func TestJSONArrayWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONArrayWriter(&buf)
	if err := jw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("零条记录应输出[], 得到 %q", buf.String())
	}
}

func TestJSONArrayWriter_StreamsRecords(t *testing.T) {
	var buf bytes.Buffer
	jw := NewJSONArrayWriter(&buf)

	first := models.NewCompanyRecord()
	first.Set(models.FieldCompanyName, models.Text("Acme"))
	if err := jw.Write(first); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// 写入即可见,不等待Close
	if !strings.Contains(buf.String(), `"company_name": "Acme"`) {
		t.Errorf("记录应立即写出: %q", buf.String())
	}

	second := models.NewCompanyRecord()
	second.Set(models.FieldCompanyName, models.Text("Globex"))
	if err := jw.Write(second); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := jw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var decoded []map[string]models.Value
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("输出不是合法JSON数组: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 || jw.Count() != 2 {
		t.Fatalf("期望2条记录, 得到 %d", len(decoded))
	}
	if name, _ := decoded[1][models.FieldCompanyName].AsText(); name != "Globex" {
		t.Errorf("记录顺序错误: %v", decoded)
	}

	if err := jw.Write(first); err == nil {
		t.Error("关闭后写入应返回错误")
	}
	if err := jw.Close(); err != nil {
		t.Errorf("重复Close不应报错: %v", err)
	}
}

func TestCreateJSONArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "companies_profile.json")

	jw, err := CreateJSONArrayFile(path)
	if err != nil {
		t.Fatalf("CreateJSONArrayFile() error = %v", err)
	}
	if err := jw.Write(map[string]string{"company_name": "Acme"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := jw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	var decoded []map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil || len(decoded) != 1 {
		t.Errorf("文件内容错误: %v\n%s", err, data)
	}
}
