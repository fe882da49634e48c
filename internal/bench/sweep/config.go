package sweep

import "github.com/DjordjeVuckovic/fineregr/internal/config"

type Config struct {
	Prepare    []string
	Benchmarks []string
	// Dir is the working copy every command runs in.
	Dir          string
	MaxRevisions int
	OldestFirst  bool
	Warmup       int
}

func ConfigFrom(c *config.Config) Config {
	return Config{
		Prepare:      c.Prepare,
		Benchmarks:   c.Benchmarks,
		Dir:          c.RepoDir,
		MaxRevisions: c.MaxRevisions,
		OldestFirst:  c.Order == config.OrderOldestFirst,
		Warmup:       c.WarmupRuns(),
	}
}

// Select truncates a newest-first revision list to max entries (0 keeps all)
// and reverses it when oldestFirst is set. The input is not modified.
func Select(revs []string, max int, oldestFirst bool) []string {
	if max > 0 && len(revs) > max {
		revs = revs[:max]
	}
	out := make([]string, len(revs))
	copy(out, revs)
	if oldestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
