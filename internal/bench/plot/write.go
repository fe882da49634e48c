package plot

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
)

const (
	HTMLFile = "index.html"
	DataFile = "data.json"
)

//go:embed index.html.tmpl
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "index.html.tmpl"))

type pageData struct {
	Title string
	Spec  template.JS
}

// RenderHTML returns the chart page for rows. rows is sorted in place.
func RenderHTML(rows []aggregate.PlotRow, title string) ([]byte, error) {
	spec, err := json.Marshal(NewChart(rows, title))
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	// json.Marshal escapes <, > and &, so the document is safe inside a script.
	if err := page.Execute(&buf, pageData{Title: title, Spec: template.JS(spec)}); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML replaces dir/index.html with the chart for rows.
func WriteHTML(dir string, rows []aggregate.PlotRow, title string) error {
	data, err := RenderHTML(rows, title)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, HTMLFile), data)
}

// WriteData replaces dir/data.json with rows.
func WriteData(dir string, rows []aggregate.PlotRow) error {
	SortRows(rows)
	if rows == nil {
		rows = []aggregate.PlotRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return writeAtomic(filepath.Join(dir, DataFile), append(data, '\n'))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
