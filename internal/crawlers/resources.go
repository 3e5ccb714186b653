package crawlers

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BrowserMemoryReserve 启动浏览器建议的最小可用内存
const BrowserMemoryReserve uint64 = 512 * 1024 * 1024

// ResourceSnapshot 系统资源快照
type ResourceSnapshot struct {
	TotalMemory     uint64
	AvailableMemory uint64
	CPUPercent      float64
}

// SampleResources 读取当前系统内存和CPU使用率
func SampleResources() (ResourceSnapshot, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return ResourceSnapshot{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	snapshot := ResourceSnapshot{
		TotalMemory:     vmStat.Total,
		AvailableMemory: vmStat.Available,
	}

	// CPU采样失败不影响内存信息
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	}
	return snapshot, nil
}

// HasHeadroom 可用内存是否不低于reserve
func (s ResourceSnapshot) HasHeadroom(reserve uint64) bool {
	return s.AvailableMemory >= reserve
}

func (s ResourceSnapshot) String() string {
	const gb = 1024 * 1024 * 1024
	return fmt.Sprintf("内存 %.2f/%.2f GB 可用, CPU %.1f%%",
		float64(s.AvailableMemory)/gb, float64(s.TotalMemory)/gb, s.CPUPercent)
}
