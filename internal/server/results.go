package server

import (
	"context"
	"net/http"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/plot"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/report"
	"github.com/labstack/echo/v4"
)

type Aggregator interface {
	Aggregate(ctx context.Context) ([]aggregate.PlotRow, error)
}

// ResultsRouter serves the chart and its data. Every request aggregates the
// cache afresh, so results recorded by a running sweep show up on reload.
type ResultsRouter struct {
	e     *echo.Echo
	agg   Aggregator
	title string
}

func NewResultsRouter(e *echo.Echo, agg Aggregator, title string) *ResultsRouter {
	return &ResultsRouter{e: e, agg: agg, title: title}
}

func (r *ResultsRouter) Bind() {
	r.e.GET("/", r.chartHandler)
	r.e.GET("/api/rows", r.rowsHandler)
	r.e.GET("/api/benchmarks", r.benchmarksHandler)
}

func (r *ResultsRouter) chartHandler(c echo.Context) error {
	rows, err := r.agg.Aggregate(c.Request().Context())
	if err != nil {
		return err
	}
	page, err := plot.RenderHTML(rows, r.title)
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

// rowsHandler godoc
// @Summary List plot rows
// @Description Aggregates the result cache into one row per timing sample and one row per failed measurement.
// @Tags results
// @Produce json
// @Param command query string false "Only rows of this benchmark command"
// @Success 200 {array} aggregate.PlotRow
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/rows [get]
func (r *ResultsRouter) rowsHandler(c echo.Context) error {
	params := c.QueryParams()
	if vals, ok := params["command"]; ok && (len(vals) != 1 || vals[0] == "") {
		return apperr.NewValidation("command must be given once and not be empty")
	}

	rows, err := r.agg.Aggregate(c.Request().Context())
	if err != nil {
		return err
	}
	if cmd := c.QueryParam("command"); cmd != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Command == cmd {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	plot.SortRows(rows)
	if rows == nil {
		rows = []aggregate.PlotRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// benchmarksHandler godoc
// @Summary Summarise benchmarks
// @Description Per benchmark command: revisions, failures and the change between the oldest and newest measurement.
// @Tags results
// @Produce json
// @Success 200 {object} report.Report
// @Failure 500 {object} map[string]string
// @Router /api/benchmarks [get]
func (r *ResultsRouter) benchmarksHandler(c echo.Context) error {
	rows, err := r.agg.Aggregate(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Build(rows))
}
