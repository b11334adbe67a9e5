package usecase

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ecoreceipt/backend/internal/domain"
)

// ReceiptServiceConfig holds configuration for the receipt service
type ReceiptServiceConfig struct {
	Normalizer       NormalizerConfig
	Match            MatchConfig
	Aggregator       AggregatorConfig
	Report           ReportConfig
	CacheTTL         time.Duration
	BatchConcurrency int
}

// ReceiptService runs the receipt pipeline: extract text, normalize, match, summarize.
// The catalog is shared read-only between concurrent analyses.
type ReceiptService struct {
	catalog     *domain.Catalog
	extractor   domain.TextExtractor
	cache       domain.CacheRepository
	normalizer  *LineNormalizer
	matcher     *Matcher
	aggregator  *Aggregator
	reports     *ReportBuilder
	cacheTTL    time.Duration
	concurrency int
}

// NewReceiptService creates a new receipt service with dependencies.
// extractor and cache may be nil: documents then degrade to empty text and nothing is cached.
func NewReceiptService(
	catalog *domain.Catalog,
	extractor domain.TextExtractor,
	cache domain.CacheRepository,
	config ReceiptServiceConfig,
) *ReceiptService {
	aggregator := NewAggregator(config.Aggregator)

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	concurrency := config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &ReceiptService{
		catalog:     catalog,
		extractor:   extractor,
		cache:       cache,
		normalizer:  NewLineNormalizer(config.Normalizer),
		matcher:     NewMatcher(config.Match),
		aggregator:  aggregator,
		reports:     NewReportBuilder(aggregator, config.Report),
		cacheTTL:    cacheTTL,
		concurrency: concurrency,
	}
}

// Catalog returns the catalog the service matches against
func (s *ReceiptService) Catalog() *domain.Catalog {
	return s.catalog
}

// Normalizer returns the service's line normalizer
func (s *ReceiptService) Normalizer() *LineNormalizer {
	return s.normalizer
}

// Matcher returns the service's matcher
func (s *ReceiptService) Matcher() *Matcher {
	return s.matcher
}

// Aggregator returns the service's aggregator
func (s *ReceiptService) Aggregator() *Aggregator {
	return s.aggregator
}

// WithThreshold returns a copy of the service matching with threshold, which must lie in [0,100].
// The copy shares the catalog, extractor and cache.
func (s *ReceiptService) WithThreshold(threshold float64) (*ReceiptService, error) {
	matcher, err := s.matcher.WithThreshold(threshold)
	if err != nil {
		return nil, err
	}
	clone := *s
	clone.matcher = matcher
	return &clone, nil
}

// AnalyzeText runs normalize -> match -> summarize over already extracted text.
// Empty text is valid and yields an analysis with no records.
func (s *ReceiptService) AnalyzeText(ctx context.Context, source, text string) (*domain.ReceiptAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := s.normalizer.Normalize(text)
	records, err := s.matcher.Match(candidates, s.catalog)
	if err != nil {
		return nil, err
	}

	summary := s.aggregator.Summarize(records)
	slog.Debug("Analyzed receipt",
		"source", source,
		"candidates", len(candidates),
		"matched", len(summary.Matched),
		"unknown", summary.UnknownCount)

	return &domain.ReceiptAnalysis{
		Source:     source,
		Candidates: candidates,
		Records:    records,
		Summary:    summary,
	}, nil
}

// Analyze extracts text from doc and analyzes it.
// Extraction failures do not fail the analysis: they are recorded on it and the text is treated as empty.
// Unsupported document types are reported as errors.
func (s *ReceiptService) Analyze(ctx context.Context, doc domain.Document) (*domain.ReceiptAnalysis, error) {
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: document %q is empty", domain.ErrInvalidRequest, doc.Name)
	}

	cacheKey := s.generateCacheKey(doc)

	// Try cache first
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		analysis := *cached
		analysis.Source = doc.Name
		analysis.Cached = true
		return &analysis, nil
	}

	text, extractErr := s.extract(ctx, doc)
	if extractErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(extractErr, domain.ErrUnsupportedDocument) {
			return nil, extractErr
		}
		slog.Warn("Text extraction failed, treating receipt as empty",
			"document", doc.Name,
			"error", extractErr)
		text = ""
	}

	analysis, err := s.AnalyzeText(ctx, doc.Name, text)
	if err != nil {
		return nil, err
	}

	if extractErr != nil {
		// Don't cache degraded results
		analysis.ExtractionError = extractErr.Error()
		return analysis, nil
	}

	if err := s.setInCache(ctx, cacheKey, analysis); err != nil {
		slog.Warn("Failed to cache receipt analysis", "document", doc.Name, "error", err)
	}

	return analysis, nil
}

// AnalyzeBatch analyzes docs concurrently and combines them into one report, in input order.
// onDone, if set, is called once per finished document, never concurrently.
// Per-document failures degrade to empty analyses; only cancellation or an unusable
// catalog abort the batch.
func (s *ReceiptService) AnalyzeBatch(
	ctx context.Context,
	docs []domain.Document,
	onDone func(index int, analysis *domain.ReceiptAnalysis),
) (*domain.ImpactReport, error) {
	results := make([]domain.ReceiptAnalysis, len(docs))

	var doneMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			analysis, err := s.Analyze(gctx, doc)
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, domain.ErrEmptyCatalog) {
					return fmt.Errorf("analyze %s: %w", doc.Name, err)
				}
				slog.Warn("Receipt could not be analyzed", "document", doc.Name, "error", err)
				analysis = s.failedAnalysis(doc.Name, err)
			}
			results[i] = *analysis

			if onDone != nil {
				doneMu.Lock()
				onDone(i, analysis)
				doneMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := s.reports.Build(results)
	slog.Info("Built impact report",
		"report_id", report.ID,
		"receipts", len(results),
		"items", len(report.Items),
		"grade", report.Grade)

	if err := s.setInCache(ctx, reportCacheKey(report.ID), report); err != nil {
		slog.Warn("Failed to cache report", "report_id", report.ID, "error", err)
	}

	return report, nil
}

// BuildReport combines existing analyses into a report without caching it
func (s *ReceiptService) BuildReport(analyses []domain.ReceiptAnalysis) *domain.ImpactReport {
	return s.reports.Build(analyses)
}

// GetReport returns a report produced by AnalyzeBatch while it is still cached
func (s *ReceiptService) GetReport(ctx context.Context, id uuid.UUID) (*domain.ImpactReport, error) {
	if s.cache == nil {
		return nil, domain.ErrReportNotFound
	}

	value, err := s.cache.Get(ctx, reportCacheKey(id))
	if err != nil {
		return nil, domain.ErrReportNotFound
	}

	report, ok := value.(*domain.ImpactReport)
	if !ok {
		s.evict(ctx, reportCacheKey(id), value)
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

func (s *ReceiptService) extract(ctx context.Context, doc domain.Document) (string, error) {
	if s.extractor == nil {
		return "", domain.ErrOCRNotConfigured
	}
	return s.extractor.ExtractText(ctx, doc)
}

func (s *ReceiptService) failedAnalysis(source string, err error) *domain.ReceiptAnalysis {
	return &domain.ReceiptAnalysis{
		Source:          source,
		Candidates:      []string{},
		Records:         []domain.MatchRecord{},
		Summary:         s.aggregator.Summarize(nil),
		ExtractionError: err.Error(),
	}
}

// generateCacheKey creates a cache key from the document bytes and the matcher threshold.
// Format: "receipt:{sha256}:{threshold}"
func (s *ReceiptService) generateCacheKey(doc domain.Document) string {
	sum := sha256.Sum256(doc.Data)
	return fmt.Sprintf("receipt:%x:%.2f", sum, s.matcher.Threshold())
}

func reportCacheKey(id uuid.UUID) string {
	return "report:" + id.String()
}

// getFromCache retrieves a receipt analysis from cache
func (s *ReceiptService) getFromCache(ctx context.Context, key string) (*domain.ReceiptAnalysis, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	analysis, ok := value.(*domain.ReceiptAnalysis)
	if !ok {
		s.evict(ctx, key, value)
		return nil, domain.ErrCacheMiss
	}
	return analysis, nil
}

// evict drops a cache entry whose value has the wrong type for its key
func (s *ReceiptService) evict(ctx context.Context, key string, value interface{}) {
	slog.Warn("Evicting unexpected cache entry", "key", key, "type", fmt.Sprintf("%T", value))
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Failed to evict cache entry", "key", key, "error", err)
	}
}

// setInCache stores a value in cache with the service TTL
func (s *ReceiptService) setInCache(ctx context.Context, key string, value interface{}) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, value, s.cacheTTL)
}
