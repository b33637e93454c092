package manager

import (
	"context"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"upscaled/internal/catalog"
	"upscaled/internal/upscaler"
	"upscaled/pkg/types"
)

// ListModels returns every model x scale combination and whether its weights
// are present.
func (m *Manager) ListModels() types.ModelsResponse {
	entries := m.catalog.Available()
	out := types.ModelsResponse{
		Models:  make([]types.ModelEntry, 0, len(entries)),
		Formats: upscaler.Formats(),
		MaxTile: catalog.MaxTile,
	}
	for _, e := range entries {
		out.Models = append(out.Models, types.ModelEntry{Model: e.Model, Scale: e.Scale, Path: e.Path, Available: e.Available})
	}
	return out
}

// Status builds a detailed status response for /status.
func (m *Manager) Status(ctx context.Context) types.StatusResponse {
	now := time.Now()
	resp := types.StatusResponse{
		Backend:        m.backend.Name(),
		UptimeSeconds:  int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix: now.Unix(),
		Admission: types.AdmissionStatus{
			MaxWorkers:    m.maxWorkers,
			MaxQueueDepth: m.maxQueueDepth,
			MaxWaitMS:     m.maxWait.Milliseconds(),
			Running:       len(m.workCh),
			Queued:        len(m.queueCh),
		},
		Cache: types.CacheStatus{Backend: m.cacheBackend, MaxEntries: m.cacheMaxEntries},
	}

	m.mu.RLock()
	resp.LastError = m.lastErr
	resp.ConstructionsTotal = m.constructions
	resp.Instances = make([]types.InstanceStatus, 0, len(m.instances))
	for _, inst := range m.instances {
		resp.Instances = append(resp.Instances, types.InstanceStatus{
			Key:      inst.Key,
			Model:    inst.Config.Model,
			Scale:    inst.Config.Scale,
			Tile:     inst.Config.Tile,
			State:    string(inst.State),
			LastUsed: inst.LastUsed.Unix(),
			Inflight: len(inst.genCh),
			Served:   inst.served,
		})
	}
	m.mu.RUnlock()
	sort.Slice(resp.Instances, func(i, j int) bool { return resp.Instances[i].Key < resp.Instances[j].Key })

	if n, err := m.cache.Len(ctx); err != nil {
		resp.Cache.Error = err.Error()
	} else {
		resp.Cache.Entries = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.Host = &types.HostStatus{
			MemTotalBytes:     vm.Total,
			MemAvailableBytes: vm.Available,
			MemUsedPercent:    vm.UsedPercent,
		}
	}
	return resp
}
