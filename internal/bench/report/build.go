// Package report summarises aggregated rows per benchmark command.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/DjordjeVuckovic/fineregr/pkg/utils"
)

type revision struct {
	sha     string
	date    string
	samples []float64
	failed  bool
}

func Build(rows []aggregate.PlotRow) *Report {
	byCommand := make(map[string]map[string]*revision)
	for _, r := range rows {
		revs, ok := byCommand[r.Command]
		if !ok {
			revs = make(map[string]*revision)
			byCommand[r.Command] = revs
		}
		rev, ok := revs[r.GitSHA]
		if !ok {
			rev = &revision{sha: r.GitSHA, date: r.GitDate}
			revs[r.GitSHA] = rev
		}
		if r.Failed() {
			rev.failed = true
			continue
		}
		rev.samples = append(rev.samples, *r.Time)
	}

	rep := &Report{
		Meta: Meta{
			Timestamp:   time.Now().UTC(),
			Rows:        len(rows),
			Environment: NewEnvironmentInfo(),
		},
		Benchmarks: make([]BenchmarkSummary, 0, len(byCommand)),
	}
	for cmd, revs := range byCommand {
		rep.Benchmarks = append(rep.Benchmarks, summarise(cmd, revs))
	}
	slices.SortFunc(rep.Benchmarks, func(a, b BenchmarkSummary) int {
		return cmp.Compare(a.Command, b.Command)
	})
	return rep
}

func summarise(command string, revs map[string]*revision) BenchmarkSummary {
	s := BenchmarkSummary{Command: command, Revisions: len(revs)}

	var measured []*revision
	for _, r := range revs {
		if r.failed {
			s.Failures++
		}
		if len(r.samples) > 0 {
			measured = append(measured, r)
		}
	}
	if len(measured) == 0 {
		return s
	}
	slices.SortFunc(measured, func(a, b *revision) int {
		return cmp.Or(cmp.Compare(a.date, b.date), cmp.Compare(a.sha, b.sha))
	})

	oldest, newest := measured[0], measured[len(measured)-1]
	s.Oldest = revisionStats(oldest)
	s.Newest = revisionStats(newest)
	if len(measured) > 1 && s.Oldest.Stats.Median > 0 {
		change := utils.RoundDecimal((s.Newest.Stats.Median-s.Oldest.Stats.Median)/s.Oldest.Stats.Median*100, 2)
		s.MedianChange = &change
	}
	return s
}

func revisionStats(r *revision) *RevisionStats {
	return &RevisionStats{GitSHA: r.sha, GitDate: r.date, Stats: ComputeStats(r.samples)}
}
