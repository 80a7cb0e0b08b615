package httpapi

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/globalprime/inventory-platform/infrastructure/service"
)

// overloadCPUPercent and overloadMemPercent are the thresholds past which
// readyz reports unready, shedding load before the 150ms short-sell budget
// starts slipping under resource pressure.
const (
	overloadCPUPercent = 90.0
	overloadMemPercent = 90.0
)

type readyResponse struct {
	Ready      bool    `json:"ready"`
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
}

// healthz reports per-component liveness (positions/inventory/limits/locates)
// via the shared deep health checker, distinct from readyz's load-shedding
// overload check below.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	resp := h.health.Check(r.Context(), "httpapi", "", false, time.Since(h.startedAt))

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// readyz reports unready (503) under CPU/memory pressure so a load
// balancer sheds traffic before short-sell validation starts missing its
// deadline, rather than returning slow successes.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Ready: true}

	cpuPct, err := cpu.Percent(50*time.Millisecond, false)
	if err == nil && len(cpuPct) > 0 {
		resp.CPUPercent = cpuPct[0]
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		resp.MemPercent = memStat.UsedPercent
	}

	if resp.CPUPercent >= overloadCPUPercent || resp.MemPercent >= overloadMemPercent {
		resp.Ready = false
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// stats reports per-engine sizing diagnostics (securities/keys tracked,
// process uptime) for operators, built with the fluent StatsCollector so
// each engine's count is only added when that engine is wired in.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	sc := service.NewStatsCollector().Add("uptime_seconds", time.Since(h.startedAt).Seconds())

	if h.Positions != nil {
		sc.Add("tracked_securities", h.Positions.ShardCount())
	}
	if h.Inventory != nil {
		sc.Add("tracked_inventory_keys", h.Inventory.KeyCount())
	}
	if h.Limits != nil {
		sc.Add("tracked_limit_keys", h.Limits.KeyCount())
	}

	writeJSON(w, http.StatusOK, sc.Build())
}
