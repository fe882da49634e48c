package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

type ElasticsearchConfig struct {
	Addresses []string
	IndexName string
	Username  string
	Password  string
}

// esDateFormat is the Elasticsearch spelling of vcs.DateLayout.
const esDateFormat = "yyyy-MM-dd HH:mm:ss Z"

// RowDocument is the indexed form of a PlotRow.
type RowDocument struct {
	GitSHA    string    `json:"git_sha"`
	GitMsg    string    `json:"git_msg"`
	GitDate   string    `json:"git_date,omitempty"`
	Command   string    `json:"command"`
	Ordinal   int       `json:"ordinal"`
	Time      *float64  `json:"time"`
	Failed    bool      `json:"failed"`
	IndexedAt time.Time `json:"indexed_at"`
}

type Elasticsearch struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func newClient(cfg ElasticsearchConfig) (*elasticsearch.TypedClient, error) {
	ecfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" && cfg.Password != "" {
		ecfg.Username = cfg.Username
		ecfg.Password = cfg.Password
	}
	return elasticsearch.NewTypedClient(ecfg)
}

func NewElasticsearch(ctx context.Context, cfg ElasticsearchConfig) (*Elasticsearch, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create Elasticsearch client: %w", err)
	}
	e := &Elasticsearch{client: client, indexName: cfg.IndexName}
	if err := e.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index exists: %w", err)
	}
	return e, nil
}

func (e *Elasticsearch) Name() string { return "elasticsearch" }

func (e *Elasticsearch) Close() error { return nil }

func (e *Elasticsearch) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.Indices.Exists(e.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("check if index exists: %w", err)
	}
	if exists {
		slog.Debug("index already exists", "index", e.indexName)
		return nil
	}

	mappings := rowMapping()
	res, err := e.client.Indices.Create(e.indexName).Mappings(&mappings).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}
	slog.Info("index created", "index", e.indexName)
	return nil
}

func rowMapping() types.TypeMapping {
	date := types.NewDateProperty()
	format := esDateFormat
	date.Format = &format

	return types.TypeMapping{
		Properties: map[string]types.Property{
			"git_sha":    types.NewKeywordProperty(),
			"git_msg":    types.NewTextProperty(),
			"git_date":   date,
			"command":    types.NewKeywordProperty(),
			"ordinal":    types.NewIntegerNumberProperty(),
			"time":       types.NewDoubleNumberProperty(),
			"failed":     types.NewBooleanProperty(),
			"indexed_at": types.NewDateProperty(),
		},
	}
}

func documents(rows []aggregate.PlotRow, now time.Time) ([]string, []RowDocument) {
	ords := Ordinals(rows)
	ids := make([]string, len(rows))
	docs := make([]RowDocument, len(rows))
	for i, r := range rows {
		ids[i] = DocumentID(r, ords[i])
		docs[i] = RowDocument{
			GitSHA:    r.GitSHA,
			GitMsg:    r.GitMsg,
			Command:   r.Command,
			Ordinal:   ords[i],
			Time:      r.Time,
			Failed:    r.Failed(),
			IndexedAt: now,
		}
		if parseDate(r.GitDate) != nil {
			docs[i].GitDate = r.GitDate
		}
	}
	return ids, docs
}

// Export indexes every row under a stable id. Rows removed from the cache
// since the last export are not deleted from the index.
func (e *Elasticsearch) Export(ctx context.Context, rows []aggregate.PlotRow) error {
	if len(rows) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         e.indexName,
		Client:        e.client,
		NumWorkers:    4,
		FlushBytes:    5e+6,
		FlushInterval: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create bulk indexer: %w", err)
	}

	var successful, failed atomic.Int64
	ids, docs := documents(rows, time.Now().UTC())
	for i, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			failed.Add(1)
			slog.Error("failed to marshal document", "error", err, "id", ids[i])
			continue
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: ids[i],
			Body:       bytes.NewReader(body),
			OnSuccess: func(context.Context, esutil.BulkIndexerItem, esutil.BulkIndexerResponseItem) {
				successful.Add(1)
			},
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					slog.Error("bulk index error", "error", err, "id", item.DocumentID)
				} else {
					slog.Error("bulk index error", "status", res.Status, "error", res.Error.Type, "reason", res.Error.Reason, "id", item.DocumentID)
				}
			},
		})
		if err != nil {
			failed.Add(1)
			slog.Error("failed to add document to bulk indexer", "error", err, "id", ids[i])
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("close bulk indexer: %w", err)
	}

	slog.Debug("bulk indexing completed", "successful", successful.Load(), "failed", failed.Load(), "index", e.indexName)
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to index %d out of %d rows", n, len(rows))
	}
	return nil
}
