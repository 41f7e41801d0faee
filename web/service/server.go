package service

import (
	"runtime"
	"time"

	"user-center/caching"
	"user-center/config"
	"user-center/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

const statusCacheKey = "server:status"

// ServerStatus is the host snapshot shown on the admin settings page.
type ServerStatus struct {
	Cpu      float64   `json:"cpu"`
	Mem      Usage     `json:"mem"`
	Swap     Usage     `json:"swap"`
	Uptime   uint64    `json:"uptime"`
	Loads    []float64 `json:"loads"`
	AppStats AppStats  `json:"app_stats"`
	Version  string    `json:"version"`
}

type Usage struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
}

type AppStats struct {
	Threads uint32 `json:"threads"`
	Mem     uint64 `json:"mem"`
	Uptime  uint64 `json:"uptime"`
}

// ServerService reports host resource usage via gopsutil.
type ServerService struct {
	cache     *caching.Cache
	startedAt time.Time
}

func NewServerService(cache *caching.Cache) *ServerService {
	return &ServerService{cache: cache, startedAt: time.Now()}
}

// Status collects the host snapshot, cached for a couple of seconds since
// the settings page polls it.
func (s *ServerService) Status() *ServerStatus {
	if s.cache != nil {
		if cached, ok := s.cache.Get(statusCacheKey); ok {
			if status, ok := cached.(*ServerStatus); ok {
				return status
			}
		}
	}

	status := &ServerStatus{Version: config.GetVersion()}

	if percents, err := cpu.Percent(0, false); err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	if upTime, err := host.Uptime(); err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	if memInfo, err := mem.VirtualMemory(); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem = Usage{Current: memInfo.Used, Total: memInfo.Total}
	}

	if swapInfo, err := mem.SwapMemory(); err != nil {
		logger.Warning("get swap memory failed:", err)
	} else {
		status.Swap = Usage{Current: swapInfo.Used, Total: swapInfo.Total}
	}

	if avgState, err := load.Avg(); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avgState.Load1, avgState.Load5, avgState.Load15}
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats = AppStats{
		Threads: uint32(runtime.NumGoroutine()),
		Mem:     rtm.Sys,
		Uptime:  uint64(time.Since(s.startedAt).Seconds()),
	}

	if s.cache != nil {
		s.cache.Set(statusCacheKey, status, 2*time.Second)
	}
	return status
}
