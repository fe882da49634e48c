package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	modeSweep  = "sweep"
	modePlot   = "plot"
	modeServe  = "serve"
	modeExport = "export"
)

var modes = []string{modeSweep, modePlot, modeServe, modeExport}

type cliConfig struct {
	Mode       string
	LogLevel   slog.Level
	LogFormat  string
	EnvFile    string
	Report     string
	ConfigPath string
}

var errUsage = errors.New("usage error")

func parseFlags(args []string, stderr io.Writer) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("fineregr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: fineregr [flags] <config.yaml>\n\nflags:\n")
		fs.PrintDefaults()
	}

	var level string
	fs.StringVar(&cfg.Mode, "mode", modeSweep, "Run mode: "+strings.Join(modes, ", "))
	fs.StringVar(&level, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", "auto", "Log format: auto, text or json")
	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "Path to a .env file (overridden by ENV_PATH)")
	fs.StringVar(&cfg.Report, "report", "", "Also write the summary as JSON to this path (- for stdout)")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %w", errUsage, err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return cfg, fmt.Errorf("%w: invalid log level %q", errUsage, level)
	}
	switch cfg.LogFormat {
	case "auto", "text", "json":
	default:
		return cfg, fmt.Errorf("%w: invalid log format %q", errUsage, cfg.LogFormat)
	}
	valid := false
	for _, m := range modes {
		valid = valid || m == cfg.Mode
	}
	if !valid {
		return cfg, fmt.Errorf("%w: unknown mode %q", errUsage, cfg.Mode)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("%w: expected exactly one config file, got %d arguments", errUsage, fs.NArg())
	}
	cfg.ConfigPath = fs.Arg(0)
	return cfg, nil
}
