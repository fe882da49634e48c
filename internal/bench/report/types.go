package report

import (
	"runtime"
	"time"
)

type Report struct {
	Meta       Meta               `json:"meta"`
	Benchmarks []BenchmarkSummary `json:"benchmarks"`
}

type Meta struct {
	Timestamp   time.Time       `json:"timestamp"`
	Rows        int             `json:"rows"`
	Environment EnvironmentInfo `json:"environment"`
}

type EnvironmentInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
}

func NewEnvironmentInfo() EnvironmentInfo {
	return EnvironmentInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

// BenchmarkSummary describes one benchmark command across the sweep.
type BenchmarkSummary struct {
	Command   string `json:"command"`
	Revisions int    `json:"revisions"`
	Failures  int    `json:"failures"`
	// Oldest and Newest are the earliest and latest revisions with a
	// successful measurement.
	Oldest *RevisionStats `json:"oldest,omitempty"`
	Newest *RevisionStats `json:"newest,omitempty"`
	// MedianChange is the relative change of the median from Oldest to
	// Newest, in percent.
	MedianChange *float64 `json:"median_change_pct,omitempty"`
}

type RevisionStats struct {
	GitSHA  string `json:"git_sha"`
	GitDate string `json:"git_date"`
	Stats   Stats  `json:"stats"`
}
