package imagerank

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pagecanvas/imagerank/cache"
	"github.com/pagecanvas/imagerank/metrics"
	"github.com/pagecanvas/imagerank/models"
)

const cacheKeyPrefix = "image-diversity:"

// Config contains engine configuration
type Config struct {
	CacheTTL            time.Duration // TTL for memoized analysis results
	SimilarityThreshold float64       // grouping threshold, 0 means default
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		CacheTTL:            24 * time.Hour,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Engine runs diversity analysis and section matching over analyzed image
// records. All computation is synchronous and pure; the injected cache store
// is the only side channel, and its failures degrade silently to
// recompute-without-persisting.
type Engine struct {
	config Config
	store  cache.Store // may be nil to disable memoization

	matrixComputations atomic.Int64
}

// New creates an Engine. store may be nil, in which case every call
// recomputes.
func New(config Config, store cache.Store) *Engine {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 24 * time.Hour
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &Engine{config: config, store: store}
}

// CacheKey derives the content-addressed cache key for a set of image URLs.
// The URL set is sorted first, so the key is independent of input order.
func CacheKey(images []models.ImageRecord) string {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	sort.Strings(urls)
	return cacheKeyPrefix + base64.StdEncoding.EncodeToString([]byte(strings.Join(urls, "|")))
}

// AnalyzeImageDiversity runs the full pipeline: similarity matrix, grouping,
// diversity scoring, composite ranking, categorization, and diverse-picks
// selection. Results are memoized under the sorted-URL cache key. Missing
// quality/content metadata and empty input degrade per the failure policy;
// the method never fails.
func (e *Engine) AnalyzeImageDiversity(ctx context.Context, images []models.ImageRecord, opts models.DiversityOptions) *models.AnalysisResult {
	start := time.Now()
	opts = mergeDiversityDefaults(opts)
	metrics.ImagesPerRun.Observe(float64(len(images)))

	key := CacheKey(images)
	if cached := e.lookup(ctx, key); cached != nil {
		metrics.AnalysesTotal.WithLabelValues("hit").Inc()
		return cached
	}
	metrics.AnalysesTotal.WithLabelValues("miss").Inc()

	matrix := e.calculateMatrix(images)
	groups := GroupSimilarImages(images, matrix, e.config.SimilarityThreshold)
	diversity := DiversityScores(matrix)
	ranked := enrichAndRank(images, diversity, groups, opts)

	result := &models.AnalysisResult{
		ID:     uuid.New().String(),
		Images: ranked,
		Groups: groups,
		Recommendations: models.Recommendations{
			Diverse:    selectDiversePicks(ranked, opts.MinDiversityScore),
			ByCategory: categorizeImages(ranked, opts.MaxGroupSize, opts.TargetCategories),
		},
		ImageCount:     len(images),
		ComputedAt:     time.Now().UTC(),
		ProcessingTime: time.Since(start).Seconds(),
	}

	e.persist(ctx, key, result)
	return result
}

// ProcessSectionMatching scores every image against every configured section,
// keeps the per-section top candidates, resolves cross-section collisions in
// priority order, and attaches a layout hint to each non-empty section.
func (e *Engine) ProcessSectionMatching(images []models.ImageRecord, opts models.SectionMatchingOptions) *models.SectionMatchingResult {
	metrics.SectionRunsTotal.Inc()
	opts = mergeSectionDefaults(opts)

	matched := MatchImagesToSections(images, opts)
	deduped := RemoveDuplicateImages(matched, SectionPriority)

	layouts := make(map[models.PageSection]models.LayoutRecommendation)
	for section, imgs := range deduped {
		if len(imgs) == 0 {
			continue
		}
		layouts[section] = RecommendSectionLayout(imgs, section)
	}

	return &models.SectionMatchingResult{
		Sections: deduped,
		Layouts:  layouts,
	}
}

// MatrixComputations reports how many times the similarity matrix has been
// computed since the engine was created. Cached analysis runs do not
// recompute the matrix.
func (e *Engine) MatrixComputations() int64 {
	return e.matrixComputations.Load()
}

func (e *Engine) calculateMatrix(images []models.ImageRecord) [][]float64 {
	e.matrixComputations.Add(1)
	timer := time.Now()
	matrix := CalculateSimilarityMatrix(images)
	metrics.SimilarityDuration.Observe(time.Since(timer).Seconds())
	return matrix
}

// lookup reads a memoized result. Any store failure is logged and treated as
// a miss.
func (e *Engine) lookup(ctx context.Context, key string) *models.AnalysisResult {
	if e.store == nil {
		return nil
	}
	data, ok, err := e.store.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.Inc()
		log.Printf("cache read failed for %s, recomputing: %v", key, err)
		return nil
	}
	if !ok {
		return nil
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		metrics.CacheErrors.Inc()
		log.Printf("cache entry for %s is unreadable, recomputing: %v", key, err)
		return nil
	}
	result.Cached = true
	return &result
}

// persist writes a result to the store fire-and-forget style: failures are
// logged, never returned.
func (e *Engine) persist(ctx context.Context, key string, result *models.AnalysisResult) {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("failed to encode analysis result for cache: %v", err)
		return
	}
	if err := e.store.Set(ctx, key, data, e.config.CacheTTL); err != nil {
		metrics.CacheErrors.Inc()
		log.Printf("cache write failed for %s: %v", key, err)
	}
}

func mergeDiversityDefaults(opts models.DiversityOptions) models.DiversityOptions {
	if opts.MinDiversityScore <= 0 {
		opts.MinDiversityScore = 0.3
	}
	if opts.MaxGroupSize <= 0 {
		opts.MaxGroupSize = 3
	}
	return opts
}

func mergeSectionDefaults(opts models.SectionMatchingOptions) models.SectionMatchingOptions {
	if len(opts.SectionCounts) == 0 {
		opts.SectionCounts = map[models.PageSection]int{
			models.SectionHero:      1,
			models.SectionFeatures:  3,
			models.SectionDetails:   4,
			models.SectionUsage:     2,
			models.SectionSpecs:     1,
			models.SectionGallery:   6,
			models.SectionLifestyle: 2,
		}
	}
	if opts.PreferLargeImages == nil {
		opts.PreferLargeImages = []models.PageSection{models.SectionHero, models.SectionFeatures}
	}
	if opts.QualityWeight <= 0 {
		opts.QualityWeight = 0.3
	}
	if opts.RelevanceWeight <= 0 {
		opts.RelevanceWeight = 0.5
	}
	if opts.DiversityWeight <= 0 {
		opts.DiversityWeight = 0.2
	}
	return opts
}
