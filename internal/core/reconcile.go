package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
)

// Reconcile 找出尚未抓取到记录的公司
// companies中同名公司后者覆盖前者的URL,位置以首次出现为准;
// 结果保持companies中的顺序
func Reconcile(companies []models.Target, profiles []map[string]any) *models.URLMap {
	existing := make(map[string]struct{}, len(profiles))
	for i, profile := range profiles {
		name, ok := profile[models.FieldCompanyName].(string)
		if !ok {
			utils.Warnf("第 %d 条记录缺少字符串类型的company_name,跳过", i)
			continue
		}
		existing[name] = struct{}{}
	}

	all := models.NewURLMap()
	for _, c := range companies {
		all.Set(c.Name, c.URL)
	}

	missing := models.NewURLMap()
	for _, t := range all.Targets() {
		if _, done := existing[t.Name]; done {
			continue
		}
		missing.Set(t.Name, t.URL)
	}
	return missing
}

// ReadProfilesFile 读取抓取结果文件
func ReadProfilesFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.SourceError{Path: path, Cause: err}
	}

	var profiles []map[string]any
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, &models.SourceError{Path: path, Cause: fmt.Errorf("解析JSON失败: %w", err)}
	}
	return profiles, nil
}

// RunReconcile 读取两个输入文件,将未抓取的公司写成 [ {公司名: URL, ...} ]
// 输出格式与抓取输入一致,可直接作为下一次抓取的input_file
func RunReconcile(opts models.ReconcileConfig) (*models.URLMap, error) {
	utils.Infof("🔄 开始对账: %s - %s", opts.CompaniesFile, opts.ProfilesFile)

	companies, err := ReadTargetsFile(opts.CompaniesFile)
	if err != nil {
		return nil, err
	}

	profiles, err := ReadProfilesFile(opts.ProfilesFile)
	if err != nil {
		return nil, err
	}

	missing := Reconcile(companies, profiles)

	data, err := json.MarshalIndent([]*models.URLMap{missing}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("序列化JSON失败: %w", err)
	}

	if dir := filepath.Dir(opts.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutputFile, data, 0644); err != nil {
		return nil, fmt.Errorf("写入输出文件失败: %w", err)
	}

	utils.Infof("公司总数: %d, 已抓取记录: %d", len(companies), len(profiles))
	utils.Infof("✅ %s 中尚未出现在 %s 的 %d 家公司已写入 %s",
		opts.CompaniesFile, opts.ProfilesFile, missing.Len(), opts.OutputFile)

	return missing, nil
}
