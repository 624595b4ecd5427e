// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/database"
	httpclient "readiness-scorer/internal/common/http"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/inference"
	"readiness-scorer/internal/readiness"
)

// Connection attempts made before giving up on a backing store.
var (
	ConnectAttempts = 10
	ConnectDelay    = 2 * time.Second
)

// Backends holds the stores the configuration actually needs. Unused ones stay nil.
type Backends struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
}

// Connect opens only the backends referenced by the benchmark source and the
// inference cache, retrying each with backoff.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.Benchmarks.Source == config.BenchmarkSourcePostgres {
		err := retryWithBackoff(ctx, func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			b.Postgres = pg
			return nil
		}, ConnectAttempts, ConnectDelay, log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Benchmarks.Source == config.BenchmarkSourceElasticsearch {
		err := retryWithBackoff(ctx, func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			b.Elasticsearch = es
			return nil
		}, ConnectAttempts, ConnectDelay, log, "Elasticsearch connection")
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	if cfg.Inference.CacheEnabled {
		err := retryWithBackoff(ctx, func() error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			b.Redis = rdb
			return nil
		}, ConnectAttempts, ConnectDelay, log, "Redis connection")
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	return b, nil
}

func (b *Backends) Close() {
	if b == nil {
		return
	}
	if b.Postgres != nil {
		b.Postgres.Close()
	}
	if b.Redis != nil {
		b.Redis.Close()
	}
}

// Rules loads the rules file (or the built-in rules) and applies the scoring overrides.
// allow_partial from the config wins only when it is set.
func Rules(cfg config.ScoringConfig) (readiness.Rules, error) {
	rules := readiness.DefaultRules()
	if cfg.RulesPath != "" {
		loaded, err := readiness.LoadRules(cfg.RulesPath)
		if err != nil {
			return readiness.Rules{}, err
		}
		rules = loaded
	}

	if cfg.AllowPartial != nil {
		rules.AllowPartial = *cfg.AllowPartial
	}
	if cfg.InferenceTimeout > 0 {
		rules.InferenceTimeout = config.GetDuration(cfg.InferenceTimeout)
	}
	if err := rules.Validate(); err != nil {
		return readiness.Rules{}, err
	}
	return rules, nil
}

// BenchmarkLoader picks the loader for the configured source.
func BenchmarkLoader(cfg config.BenchmarksConfig, b *Backends) (benchmarks.Loader, error) {
	switch cfg.Source {
	case config.BenchmarkSourceEmbedded, "":
		return benchmarks.EmbeddedLoader{}, nil
	case config.BenchmarkSourceFile:
		return benchmarks.FileLoader{Path: cfg.TablePath}, nil
	case config.BenchmarkSourcePostgres:
		if b == nil || b.Postgres == nil {
			return nil, fmt.Errorf("benchmark source %q needs a postgres connection", cfg.Source)
		}
		return benchmarks.NewPostgresLoader(b.Postgres, cfg.PostgresTable)
	case config.BenchmarkSourceElasticsearch:
		if b == nil || b.Elasticsearch == nil {
			return nil, fmt.Errorf("benchmark source %q needs an elasticsearch connection", cfg.Source)
		}
		return benchmarks.NewElasticsearchLoader(b.Elasticsearch, cfg.Index), nil
	default:
		return nil, fmt.Errorf("benchmark source %q is not supported", cfg.Source)
	}
}

// BenchmarkStore starts from the embedded table and loads the configured
// source once. A failed first load keeps the embedded table in service.
func BenchmarkStore(ctx context.Context, cfg config.BenchmarksConfig, b *Backends, log logger.Logger) (*benchmarks.Store, error) {
	loader, err := BenchmarkLoader(cfg, b)
	if err != nil {
		return nil, err
	}
	store, err := benchmarks.NewStore(benchmarks.Default(), loader, log)
	if err != nil {
		return nil, err
	}
	if err := store.Refresh(ctx); err != nil && cfg.Source == config.BenchmarkSourceFile {
		return nil, fmt.Errorf("load benchmark table: %w", err)
	}
	return store, nil
}

// Analyzer builds the inference collaborator. Mode "none" returns nil, which
// makes every score carry a fallback website_signals component.
func Analyzer(cfg config.InferenceConfig, b *Backends, log logger.Logger) readiness.Analyzer {
	client := httpclient.NewClient(
		config.GetDuration(cfg.Timeout),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithHeader("X-API-Key", cfg.APIKey),
	)

	var analyzer readiness.Analyzer
	switch cfg.Mode {
	case config.InferenceModeHTTP:
		analyzer = inference.NewHTTPAnalyzer(client, cfg.BaseURL, log)
	case config.InferenceModeProbe:
		analyzer = inference.NewSiteProbe(client, log)
	default:
		return nil
	}

	if cfg.CacheEnabled && b != nil && b.Redis != nil {
		analyzer = inference.NewCachedAnalyzer(analyzer, b.Redis, time.Duration(cfg.CacheTTL)*time.Second, log)
	}
	return analyzer
}

// Scorer assembles a scorer from configuration.
func Scorer(rules readiness.Rules, tables readiness.TableProvider, analyzer readiness.Analyzer, cfg config.ScoringConfig, log logger.Logger, opts ...readiness.Option) (*readiness.Scorer, error) {
	opts = append([]readiness.Option{readiness.WithBatchLimit(cfg.BatchLimit)}, opts...)
	return readiness.NewScorer(rules, tables, analyzer, log, opts...)
}
