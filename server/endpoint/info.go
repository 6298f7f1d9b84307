package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/vbdiar/version"
)

var processStart = time.Now()

func buildFields(v *version.Info) gin.H {
	return gin.H{
		"version":    v.Version,
		"git_commit": v.GitCommit,
		"git_branch": v.GitBranch,
		"build_time": v.BuildTime,
		"go_version": v.GoVersion,
		"is_release": v.IsRelease,
		"is_dirty":   v.IsDirty,
	}
}

// Info reports build details plus process uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := buildFields(version.Get())
		fields["service"] = serviceName
		fields["uptime"] = time.Since(processStart).String()
		fields["timestamp"] = time.Now().UTC().Format(time.RFC3339)
		c.JSON(http.StatusOK, fields)
	}
}

// Version reports build details only, for scripted version checks.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, buildFields(version.Get()))
	}
}

// Metrics reports goroutine and heap numbers. Posterior matrices are
// the dominant allocation, so the heap figures are the first thing to
// look at when a batch misbehaves.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc / 1024 / 1024,
				"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
				"sys_mb":         m.Sys / 1024 / 1024,
				"gc_runs":        m.NumGC,
			},
		})
	}
}
