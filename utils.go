package flowcover

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

var (
	numbersRe  = regexp.MustCompile(`\s*([0-9]+),\s+([0-9]+)(,)?`)
	bracketsRe = regexp.MustCompile(`\[(([0-9]+,)+[0-9]+)\s+\](,?)(\s+)`)
)

// SanitizeJsonArrayLineBreaks puts integer arrays of indented JSON back on a
// single line.
func SanitizeJsonArrayLineBreaks(json string) string {
	res := json
	for numbersRe.MatchString(res) {
		res = numbersRe.ReplaceAllString(res, "$1,$2$3")
	}
	for bracketsRe.MatchString(res) {
		res = bracketsRe.ReplaceAllString(res, "[$1]$3$4")
	}
	return res
}

// GetSysInfo collects the platform, CPU model and memory size of the host.
// Fields that cannot be read are left empty.
func GetSysInfo() SysInfo {
	var info SysInfo
	if hostStat, err := host.Info(); err == nil {
		info.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return info
}

// DefaultOutDir is out/run_<timestamp> relative to the working directory.
func DefaultOutDir() string {
	return filepath.Join("out", "run_"+time.Now().Format("20060102_150405"))
}
