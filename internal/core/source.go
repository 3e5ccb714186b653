package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
)

// ParseTargets 解析 [ {公司名: URL, ...}, ... ]
// 对象之间、对象内部均保持文件中的顺序; 重名保留(抓取以URL为准)
func ParseTargets(r io.Reader) ([]models.Target, error) {
	var groups []*models.URLMap
	if err := json.NewDecoder(r).Decode(&groups); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	targets := make([]models.Target, 0)
	for _, group := range groups {
		if group == nil {
			continue
		}
		targets = append(targets, group.Targets()...)
	}
	return targets, nil
}

// ReadTargetsFile 读取并解析URL列表文件
func ReadTargetsFile(path string) ([]models.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.SourceError{Path: path, Cause: err}
	}
	defer f.Close()

	targets, err := ParseTargets(f)
	if err != nil {
		return nil, &models.SourceError{Path: path, Cause: err}
	}
	return targets, nil
}

// LoadTargets 读取URL列表,任何错误都记录日志并返回空列表
func LoadTargets(path string) []models.Target {
	targets, err := ReadTargetsFile(path)
	if err != nil {
		utils.Error(err, "加载公司URL列表失败")
		return []models.Target{}
	}
	utils.Debugf("从 %s 加载了 %d 个公司URL", path, len(targets))
	return targets
}
