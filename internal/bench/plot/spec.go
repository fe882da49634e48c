// Package plot renders aggregated rows as a Vega-Lite chart.
package plot

import (
	"cmp"
	"slices"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
)

const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Chart is the subset of a Vega-Lite document that fineregr emits.
type Chart struct {
	Schema      string   `json:"$schema"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Data        Data     `json:"data"`
	Mark        Mark     `json:"mark"`
	Config      Config   `json:"config"`
	Encoding    Encoding `json:"encoding"`
}

type Data struct {
	Values []aggregate.PlotRow `json:"values"`
}

type Mark struct {
	Type   string `json:"type"`
	Extent string `json:"extent,omitempty"`
}

type Config struct {
	Mark MarkConfig `json:"mark"`
}

// MarkConfig keeps null values so failed revisions still get a point.
type MarkConfig struct {
	Invalid *string `json:"invalid"`
}

type Encoding struct {
	X       Channel   `json:"x"`
	Y       Channel   `json:"y"`
	Tooltip []Channel `json:"tooltip"`
	Color   Color     `json:"color"`
	Row     Channel   `json:"row"`
}

type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type,omitempty"`
	Scale *Scale `json:"scale,omitempty"`
}

type Scale struct {
	Zero bool `json:"zero"`
}

type Color struct {
	Condition Condition `json:"condition"`
}

type Condition struct {
	Test  string `json:"test"`
	Value string `json:"value"`
}

// FailureColor marks rows without a timing.
const FailureColor = "#f00"

// NewChart builds the chart for rows. rows is sorted in place.
func NewChart(rows []aggregate.PlotRow, title string) Chart {
	SortRows(rows)
	if rows == nil {
		rows = []aggregate.PlotRow{}
	}
	return Chart{
		Schema: SchemaURL,
		Title:  title,
		Data:   Data{Values: rows},
		Mark:   Mark{Type: "point", Extent: "min-max"},
		Encoding: Encoding{
			X: Channel{Field: "git_date", Type: "nominal"},
			Y: Channel{Field: "time", Type: "quantitative", Scale: &Scale{Zero: false}},
			Tooltip: []Channel{
				{Field: "git_msg", Type: "nominal"},
				{Field: "git_date", Type: "nominal"},
				{Field: "git_sha", Type: "nominal"},
			},
			Color: Color{Condition: Condition{Test: "datum['time'] === null", Value: FailureColor}},
			Row:   Channel{Field: "command"},
		},
	}
}

// SortRows orders rows by command, then date, then revision. Samples of one
// revision keep their recorded order.
func SortRows(rows []aggregate.PlotRow) {
	slices.SortStableFunc(rows, func(a, b aggregate.PlotRow) int {
		return cmp.Or(
			cmp.Compare(a.Command, b.Command),
			cmp.Compare(a.GitDate, b.GitDate),
			cmp.Compare(a.GitSHA, b.GitSHA),
		)
	})
}
