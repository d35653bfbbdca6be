// Package cryostasis frees the machine for the owner. When a heavy
// process shows up or resource usage crosses a threshold, the agent
// unloads its model and goes dormant until the pressure passes.
package cryostasis

import (
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one reading of the resources the gating policy cares about.
type Sample struct {
	GPUUtilPercent float64
	VRAMUsedMB     float64
	CPUUtilPercent float64
	BlacklistHit   string // name of the offending process, "" when clean
}

// Probe supplies resource samples. Implementations must return within
// the poll interval.
type Probe interface {
	Sample(blacklist []string) (Sample, error)
}

// SystemProbe reads the local machine. GPU metrics read as zero on
// hosts without GPU accounting, same as the blacklist on an empty
// process table; the CPU and blacklist checks carry the policy there.
type SystemProbe struct{}

func NewSystemProbe() *SystemProbe { return &SystemProbe{} }

func (p *SystemProbe) Sample(blacklist []string) (Sample, error) {
	var s Sample

	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 {
		s.CPUUtilPercent = percents[0]
	}

	if len(blacklist) > 0 {
		s.BlacklistHit = findBlacklisted(blacklist)
	}
	return s, nil
}

// MemoryPressure reports system RAM usage for status output.
func (p *SystemProbe) MemoryPressure() (usedMB, totalMB float64) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0
	}
	return float64(vm.Used) / (1024 * 1024), float64(vm.Total) / (1024 * 1024)
}

func findBlacklisted(blacklist []string) string {
	procs, err := process.Processes()
	if err != nil {
		return ""
	}
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		lower := strings.ToLower(strings.TrimSuffix(name, ".exe"))
		for _, banned := range blacklist {
			if strings.HasPrefix(lower, strings.ToLower(banned)) {
				return name
			}
		}
	}
	return ""
}
