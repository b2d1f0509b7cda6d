// Command bulletindex-indexer builds the knowledge base from a folder of
// bulletin PDFs. It is incremental: already indexed files are left alone,
// so it can run after every new batch of bulletins.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/config"
	dbRedis "github.com/escola-labs/bulletindex/internal/db/redis"
	"github.com/escola-labs/bulletindex/internal/domain"
	"github.com/escola-labs/bulletindex/internal/extract"
	logpkg "github.com/escola-labs/bulletindex/internal/logger"
	"github.com/escola-labs/bulletindex/internal/metrics"
	"github.com/escola-labs/bulletindex/internal/repository/embcache"
	"github.com/escola-labs/bulletindex/internal/repository/kb"
	openaiTransport "github.com/escola-labs/bulletindex/internal/transport/openai"
	embeddinguc "github.com/escola-labs/bulletindex/internal/usecase/embedding"
	indexinguc "github.com/escola-labs/bulletindex/internal/usecase/indexing"
	"github.com/escola-labs/bulletindex/internal/version"
)

func main() {
	folderFlag := flag.String("folder", "", "bulletin folder (overrides corpus.dir)")
	storeFlag := flag.String("store", "", "knowledge base path (overrides corpus.store_path)")
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		color.Red("failed to load config: %v", err)
		os.Exit(1)
	}
	if *folderFlag != "" {
		cfg.Corpus.Dir = *folderFlag
	}
	if *storeFlag != "" {
		cfg.Corpus.StorePath = *storeFlag
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		color.Red("failed to create logger: %v", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bulletindex indexer",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("folder", cfg.Corpus.Dir),
		zap.String("store_path", cfg.Corpus.StorePath),
	)

	metrics.RegisterEmbeddingMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, closeCache := buildEmbedder(ctx, cfg, logger)
	defer closeCache()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Indexando comunicados"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
	)

	svc := indexinguc.New(
		kb.New(cfg.Corpus.StorePath, logger),
		extract.New(logger),
		embedder,
		time.Duration(cfg.Embedding.MinIntervalMs)*time.Millisecond,
		cfg.Corpus.ChunkSize,
		cfg.Corpus.ChunkOverlap,
		logger,
	).WithProgress(func(string) { _ = bar.Add(1) })

	report, err := svc.Build(ctx, cfg.Corpus.Dir)
	_ = bar.Finish()
	if err != nil {
		color.Red("\nindexing failed: %v", err)
		os.Exit(1)
	}

	if report.NewFiles == 0 {
		color.Green("Base de conhecimento já está atualizada (%d PDFs na pasta).", report.ScannedFiles)
		return
	}

	color.Green("✔ %d novo(s) comunicado(s) indexado(s) em %s",
		report.IndexedDocuments, cfg.Corpus.StorePath)
	if report.SkippedDocuments > 0 {
		color.Yellow("⚠ %d documento(s) ignorado(s) por falha de extração", report.SkippedDocuments)
	}
	if report.SkippedChunks > 0 {
		color.Yellow("⚠ %d trecho(s) descartado(s) por falha de embedding", report.SkippedChunks)
	}
}

// buildEmbedder assembles the same decorator chain the server uses. The
// returned func closes the cache connection, a no-op when caching is off.
func buildEmbedder(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Embedder, func()) {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	closeCache := func() {}

	if len(cfg.Cache.Addrs) > 0 {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		embedder = embcache.New(base, cache, cfg.Embedding.Model, cfg.Cache.TTL(), metrics.EmbeddingCacheTotal, logger)
		closeCache = cache.Close
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Embedding.Model, logger), closeCache
}
