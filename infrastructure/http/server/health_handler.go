package server

import (
	"net/http"
	"os"
	goruntime "runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

type healthReport struct {
	Status      string   `json:"status"`
	Uptime      string   `json:"uptime"`
	PID         int      `json:"pid"`
	RSSBytes    uint64   `json:"rssBytes"`
	CPUPercent  float64  `json:"cpuPercent"`
	Goroutines  int      `json:"goroutines"`
	Connections int      `json:"connections"`
	OnlineUsers []string `json:"onlineUsers"`
}

// health reports liveness with the process' own resource usage.
// Stats that cannot be read are left at zero; the endpoint still answers 200.
func (s *Server) health(c *gin.Context) {
	report := healthReport{
		Status:     "ok",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		PID:        os.Getpid(),
		Goroutines: goruntime.NumGoroutine(),
	}
	if s.registry != nil {
		report.OnlineUsers = s.registry.Online()
		report.Connections = len(report.OnlineUsers)
	}

	if p, err := process.NewProcess(int32(report.PID)); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			report.RSSBytes = mem.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			report.CPUPercent = cpu
		}
	} else {
		s.log.Debug("Process stats unavailable", "error", err)
	}

	c.JSON(http.StatusOK, report)
}
