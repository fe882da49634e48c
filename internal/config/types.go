package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultBranch    = "main"
	DefaultOutputDir = "results"
	DefaultWarmup    = 5
	DefaultPort      = "8080"
	DefaultPgTable   = "plot_rows"
	DefaultEsIndex   = "fineregr"

	OrderNewestFirst = "newest-first"
	OrderOldestFirst = "oldest-first"
)

// DefaultRepoDir is where the repository is cloned when repo_dir is unset.
func DefaultRepoDir() string {
	return filepath.Join(os.TempDir(), "fineregr")
}

// Config describes one benchmark sweep. It is loaded once and not modified
// afterwards.
type Config struct {
	Repository   string        `yaml:"repository"`
	Branch       string        `yaml:"branch"`
	Prepare      []string      `yaml:"prepare"`
	Benchmarks   []string      `yaml:"benchmarks"`
	RepoDir      string        `yaml:"repo_dir"`
	OutputDir    string        `yaml:"output_dir"`
	MaxRevisions int           `yaml:"max_revisions"`
	Order        string        `yaml:"order"`
	Warmup       *int          `yaml:"warmup"`
	VCS          string        `yaml:"vcs"`
	Backend      BackendConfig `yaml:"backend"`
	Plot         PlotConfig    `yaml:"plot"`
	Export       ExportConfig  `yaml:"export"`
	Serve        ServeConfig   `yaml:"serve"`
}

type BackendConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type PlotConfig struct {
	Incremental *bool  `yaml:"incremental"`
	Title       string `yaml:"title"`
}

type ExportConfig struct {
	Postgres      *PostgresExport      `yaml:"postgres,omitempty"`
	Elasticsearch *ElasticsearchExport `yaml:"elasticsearch,omitempty"`
}

type PostgresExport struct {
	Connection string `yaml:"connection"`
	Table      string `yaml:"table"`
}

type ElasticsearchExport struct {
	Addresses []string `yaml:"addresses"`
	Index     string   `yaml:"index"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

type ServeConfig struct {
	Port string `yaml:"port"`
}

// WarmupRuns returns the number of warm-up runs, after defaults.
func (c *Config) WarmupRuns() int {
	if c.Warmup == nil {
		return DefaultWarmup
	}
	return *c.Warmup
}

// IncrementalPlot reports whether the chart is re-rendered after every new result.
func (c *Config) IncrementalPlot() bool {
	return c.Plot.Incremental == nil || *c.Plot.Incremental
}
