package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/Avicted/convopts/internal/securelog"
)

type clientCounter interface {
	ClientCount() int64
}

type statsResponse struct {
	UptimeSeconds int64   `json:"uptime_seconds"`
	WSClients     int64   `json:"ws_clients"`
	CPUPercent    float64 `json:"cpu_percent"`
	RSSBytes      uint64  `json:"rss_bytes"`
}

type statsHandler struct {
	clients   clientCounter
	startedAt time.Time
	proc      *process.Process
	now       func() time.Time
}

func newStatsHandler(clients clientCounter, startedAt time.Time) *statsHandler {
	h := &statsHandler{clients: clients, startedAt: startedAt, now: time.Now}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		securelog.Error("server.stats", err)
		return h
	}
	h.proc = proc
	return h
}

// ServeHTTP reports process figures; cpu and memory are zero when the
// platform does not expose them.
func (h *statsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := statsResponse{
		UptimeSeconds: int64(h.now().Sub(h.startedAt).Seconds()),
	}
	if h.clients != nil {
		resp.WSClients = h.clients.ClientCount()
	}
	if h.proc != nil {
		if percent, err := h.proc.CPUPercent(); err == nil {
			resp.CPUPercent = percent
		}
		if mem, err := h.proc.MemoryInfo(); err == nil && mem != nil {
			resp.RSSBytes = mem.RSS
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
