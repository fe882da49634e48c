package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/pkg/utils"
	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes a YAML config, applies environment overrides read through
// getenv, then validates and fills in defaults.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, apperr.NewValidationWrap("parse config YAML", err)
	}
	if getenv != nil {
		if err := applyEnv(&c, getenv); err != nil {
			return nil, err
		}
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyEnv(c *Config, getenv func(string) string) error {
	if v := getenv("FINEREGR_REPO_DIR"); v != "" {
		c.RepoDir = v
	}
	if v := getenv("FINEREGR_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("FINEREGR_MAX_REVISIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperr.NewValidationWrap("invalid FINEREGR_MAX_REVISIONS", err)
		}
		c.MaxRevisions = n
	}
	if v := getenv("PG_CONNECTION_STRING"); v != "" {
		if c.Export.Postgres == nil {
			c.Export.Postgres = &PostgresExport{}
		}
		c.Export.Postgres.Connection = v
	}
	if v := getenv("ES_ADDRESSES"); v != "" {
		if c.Export.Elasticsearch == nil {
			c.Export.Elasticsearch = &ElasticsearchExport{}
		}
		addrs := strings.Split(v, ",")
		for i := range addrs {
			addrs[i] = strings.TrimSpace(addrs[i])
		}
		c.Export.Elasticsearch.Addresses = utils.RemoveEmptyStrings(addrs)
	}
	if es := c.Export.Elasticsearch; es != nil {
		if v := getenv("ES_USERNAME"); v != "" {
			es.Username = v
		}
		if v := getenv("ES_PASSWORD"); v != "" {
			es.Password = v
		}
	}
	if v := getenv("PORT"); v != "" {
		c.Serve.Port = v
	}
	return nil
}

var validVCS = map[string]bool{
	"git":    true,
	"go-git": true,
}

var pgIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validate(c *Config) error {
	if c.Repository == "" {
		return apperr.NewValidation("config has no repository")
	}
	if len(c.Benchmarks) == 0 {
		return apperr.NewValidation("config has no benchmarks")
	}
	seen := make(map[string]bool, len(c.Benchmarks))
	for i, b := range c.Benchmarks {
		if strings.TrimSpace(b) == "" {
			return apperr.NewValidation(fmt.Sprintf("benchmark at index %d is empty", i))
		}
		if seen[b] {
			return apperr.NewValidation(fmt.Sprintf("benchmark %q is listed twice", b))
		}
		seen[b] = true
	}
	for i, p := range c.Prepare {
		if strings.TrimSpace(p) == "" {
			return apperr.NewValidation(fmt.Sprintf("prepare command at index %d is empty", i))
		}
	}
	if c.MaxRevisions < 0 {
		return apperr.NewValidation(fmt.Sprintf("max_revisions must not be negative, got %d", c.MaxRevisions))
	}
	if c.Warmup != nil && *c.Warmup < 0 {
		return apperr.NewValidation(fmt.Sprintf("warmup must not be negative, got %d", *c.Warmup))
	}

	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.RepoDir == "" {
		c.RepoDir = DefaultRepoDir()
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	switch c.Order {
	case "":
		c.Order = OrderNewestFirst
	case OrderNewestFirst, OrderOldestFirst:
	default:
		return apperr.NewValidation(fmt.Sprintf("invalid order %q, expected %s or %s", c.Order, OrderNewestFirst, OrderOldestFirst))
	}
	if c.VCS == "" {
		c.VCS = "git"
	}
	if !validVCS[c.VCS] {
		return apperr.NewValidation(fmt.Sprintf("invalid vcs %q", c.VCS))
	}
	if c.Serve.Port == "" {
		c.Serve.Port = DefaultPort
	}
	if err := validatePort(c.Serve.Port); err != nil {
		return apperr.NewValidationWrap("invalid serve port", err)
	}

	if pg := c.Export.Postgres; pg != nil {
		if pg.Connection == "" {
			return apperr.NewValidation("postgres export has no connection")
		}
		if pg.Table == "" {
			pg.Table = DefaultPgTable
		}
		if !pgIdentifier.MatchString(pg.Table) {
			return apperr.NewValidation(fmt.Sprintf("invalid postgres table name %q", pg.Table))
		}
	}
	if es := c.Export.Elasticsearch; es != nil {
		if len(es.Addresses) == 0 {
			return apperr.NewValidation("elasticsearch export has no addresses")
		}
		if es.Index == "" {
			es.Index = DefaultEsIndex
		}
	}
	return nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
