package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostFacts is a snapshot of the machine the shell runs on
type HostFacts struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Virtualization  string
	UptimeSeconds   uint64
	MemTotal        uint64
	MemUsedPercent  float64
}

// CollectHostFacts gathers host and memory information
func CollectHostFacts(ctx context.Context) (*HostFacts, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}

	facts := &HostFacts{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		UptimeSeconds:   info.Uptime,
		MemTotal:        vm.Total,
		MemUsedPercent:  vm.UsedPercent,
	}
	if info.VirtualizationSystem != "" {
		facts.Virtualization = fmt.Sprintf("%s (%s)", info.VirtualizationSystem, info.VirtualizationRole)
	}
	return facts, nil
}
