package imagerank

import (
	"sort"

	"github.com/pagecanvas/imagerank/models"
)

const (
	diversityWeight      = 0.3
	defaultFactorWeight  = 0.35
	priorityFactorWeight = 0.5

	productFocusShare    = 0.4
	commercialValueShare = 0.6

	maxDiversePicks = 5
)

// OverallScore blends diversity, quality, and content relevance into a single
// ranking score. Missing quality or content simply removes that factor and
// its weight from the blend; with no applicable factors the score is 0.
func OverallScore(img *models.ImageRecord, diversity float64, opts models.DiversityOptions) float64 {
	score := diversity * diversityWeight
	weightSum := diversityWeight

	if img.Quality != nil {
		w := defaultFactorWeight
		if opts.PrioritizeQuality {
			w = priorityFactorWeight
		}
		score += img.Quality.Overall.Score * w
		weightSum += w
	}

	if img.Content != nil {
		w := defaultFactorWeight
		if opts.PrioritizeContent {
			w = priorityFactorWeight
		}
		contentScore := img.Content.ProductFocus.Score*productFocusShare +
			img.Content.CommercialValue.Score*commercialValueShare
		score += contentScore * w
		weightSum += w
	}

	if weightSum == 0 {
		return 0
	}
	return clamp01(score / weightSum)
}

// enrichAndRank returns copies of the input images with diversity scores,
// similarity-group keys, and overall scores filled in, sorted descending by
// overall score. The input slice is never mutated.
func enrichAndRank(images []models.ImageRecord, diversity []float64, groups [][]string, opts models.DiversityOptions) []models.ImageRecord {
	keys := groupKeys(groups)

	enriched := make([]models.ImageRecord, len(images))
	for i := range images {
		img := images[i] // copy
		d := diversity[i]
		img.DiversityScore = &d
		if seed, ok := keys[img.URL]; ok {
			img.SimilarityGroups = []string{seed}
		}
		overall := OverallScore(&img, d, opts)
		img.OverallScore = &overall
		enriched[i] = img
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		return *enriched[i].OverallScore > *enriched[j].OverallScore
	})
	return enriched
}

// categorizeImages buckets ranked images by the classifier's recommended-use
// hint. Buckets keep their overall-score ordering and are truncated to
// maxGroupSize. Only categories in targets are produced; nil targets means
// all of them.
func categorizeImages(ranked []models.ImageRecord, maxGroupSize int, targets []string) map[string][]models.ImageRecord {
	if len(targets) == 0 {
		targets = models.AllCategories
	}
	buckets := make(map[string][]models.ImageRecord, len(targets))
	for _, cat := range targets {
		buckets[cat] = []models.ImageRecord{}
	}
	for _, img := range ranked {
		if img.Content == nil {
			continue
		}
		cat := img.Content.RecommendedUse.Section
		if _, ok := buckets[cat]; !ok {
			continue
		}
		if len(buckets[cat]) < maxGroupSize {
			buckets[cat] = append(buckets[cat], img)
		}
	}
	return buckets
}

// selectDiversePicks walks the ranked list and keeps at most five images.
// Ungrouped images are taken directly; a grouped image is taken only when its
// group has not contributed a pick yet and its diversity clears the floor, so
// near-duplicates never crowd the selection.
func selectDiversePicks(ranked []models.ImageRecord, minDiversityScore float64) []models.ImageRecord {
	picks := []models.ImageRecord{}
	usedGroups := make(map[string]bool)

	for _, img := range ranked {
		if len(picks) >= maxDiversePicks {
			break
		}
		if len(img.SimilarityGroups) == 0 {
			picks = append(picks, img)
			continue
		}
		key := img.SimilarityGroups[0]
		if usedGroups[key] {
			continue
		}
		if img.DiversityScore != nil && *img.DiversityScore < minDiversityScore {
			continue
		}
		usedGroups[key] = true
		picks = append(picks, img)
	}
	return picks
}
