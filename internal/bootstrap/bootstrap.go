// Package bootstrap wires configuration into a ready receipt service.
// Both the HTTP server and the CLI start from here.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/ecoreceipt/backend/config"
	"github.com/ecoreceipt/backend/internal/domain"
	"github.com/ecoreceipt/backend/internal/infrastructure/cache"
	"github.com/ecoreceipt/backend/internal/infrastructure/catalog"
	"github.com/ecoreceipt/backend/internal/infrastructure/ocr"
	"github.com/ecoreceipt/backend/internal/usecase"
)

// App holds the long-lived dependencies built from a config
type App struct {
	Config   *config.Config
	Catalog  *domain.Catalog
	Receipts *usecase.ReceiptService

	cache *cache.MemoryCache
}

// New loads the catalog, sets up text extraction and caching, and builds the receipt service
func New(cfg *config.Config) (*App, error) {
	products, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)

	receipts := usecase.NewReceiptService(products, Extractor(cfg.OCR), memoryCache, ServiceConfig(cfg))

	slog.Info("Receipt service ready",
		"catalog", cfg.Catalog.Path,
		"entries", products.Len(),
		"threshold", receipts.Matcher().Threshold(),
		"ocr_enabled", cfg.OCR.Enabled(),
		"cache_ttl", cfg.Cache.TTL)

	return &App{
		Config:   cfg,
		Catalog:  products,
		Receipts: receipts,
		cache:    memoryCache,
	}, nil
}

// Close stops background work
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// Extractor builds the document dispatcher, with image OCR only when an API key is configured
func Extractor(cfg config.OCRConfig) *ocr.Dispatcher {
	if !cfg.Enabled() {
		slog.Info("OCR API key not configured, image receipts will be reported as unreadable")
		return ocr.NewDispatcher(nil)
	}

	return ocr.NewDispatcher(ocr.NewClient(ocr.ClientConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Language:          cfg.Language,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxRetries:        cfg.MaxRetries,
	}))
}

// ServiceConfig maps application config onto the receipt service settings
func ServiceConfig(cfg *config.Config) usecase.ReceiptServiceConfig {
	return usecase.ReceiptServiceConfig{
		Normalizer: usecase.NormalizerConfig{
			HeaderKeywords: cfg.Matching.HeaderKeywords,
			UnitTokens:     cfg.Matching.UnitTokens,
			MinLength:      cfg.Matching.MinCandidateLength,
		},
		Match: usecase.MatchConfig{
			Threshold: cfg.Matching.Threshold,
		},
		Aggregator: usecase.AggregatorConfig{
			HighImpactThreshold: cfg.Report.HighImpactThreshold,
		},
		Report: usecase.ReportConfig{
			CO2PerImpactPoint: cfg.Report.CO2PerImpactPoint,
			WeeksPerMonth:     cfg.Report.WeeksPerMonth,
		},
		CacheTTL:         cfg.Cache.TTL,
		BatchConcurrency: cfg.Batch.Concurrency,
	}
}
