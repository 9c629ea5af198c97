// Package imagerank implements the image diversity analysis and
// section-matching engine used when assembling e-commerce detail pages:
// pairwise similarity over analyzed images, near-duplicate grouping,
// uniqueness scoring, composite ranking, and priority-deduplicated
// assignment of images to named page sections.
package imagerank

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/pagecanvas/imagerank/models"
)

// Factor weights for pairwise similarity. The pair score is normalized by the
// sum of the weights that were actually applicable, so two records that agree
// on every applicable factor always score 1.
const (
	weightContentType = 0.3
	weightSection     = 0.25
	weightTags        = 0.15
	weightColor       = 0.2
	weightMainObject  = 0.3
	weightResolution  = 0.1
)

// maxColorDistance is the RGB euclidean distance between black and white
var maxColorDistance = math.Sqrt(3 * 255 * 255)

// CalculateSimilarityMatrix computes the symmetric pairwise similarity matrix
// for the given images. Values are in [0,1] and the diagonal is 1. Records
// missing quality or content metadata simply contribute fewer factors; a pair
// with no applicable factors scores 0.
func CalculateSimilarityMatrix(images []models.ImageRecord) [][]float64 {
	n := len(images)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := pairSimilarity(&images[i], &images[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

func pairSimilarity(a, b *models.ImageRecord) float64 {
	var score, weight float64

	if a.Content != nil && b.Content != nil {
		ca, cb := a.Content, b.Content

		if ca.ContentType.Dominant() == cb.ContentType.Dominant() {
			score += weightContentType
		}
		weight += weightContentType

		if ca.RecommendedUse.Section == cb.RecommendedUse.Section {
			score += weightSection
		}
		weight += weightSection

		score += weightTags * tagOverlap(ca.Mood.Tags, cb.Mood.Tags)
		weight += weightTags

		// Malformed hex colors make this factor non-applicable rather than
		// an error.
		if ratio, ok := colorSimilarity(ca.ColorScheme.Dominant, cb.ColorScheme.Dominant); ok {
			score += weightColor * ratio
			weight += weightColor
		}

		if ca.Objects.Main == cb.Objects.Main {
			score += weightMainObject
		}
		weight += weightMainObject
	}

	if a.Quality != nil && b.Quality != nil {
		areaA := a.Quality.Resolution.Area()
		areaB := b.Quality.Resolution.Area()
		if areaA > 0 && areaB > 0 {
			ratio := float64(min(areaA, areaB)) / float64(max(areaA, areaB))
			if ratio > 0.8 {
				score += weightResolution
			}
			weight += weightResolution
		}
	}

	if weight == 0 {
		return 0
	}
	return clamp01(score / weight)
}

// tagOverlap returns |a ∩ b| / min(|a|,|b|), with the denominator floored at
// 1 to avoid dividing by zero when either tag list is empty
func tagOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[strings.ToLower(t)] = struct{}{}
	}
	common := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		lt := strings.ToLower(t)
		if _, dup := seen[lt]; dup {
			continue
		}
		seen[lt] = struct{}{}
		if _, ok := set[lt]; ok {
			common++
		}
	}
	denom := min(len(set), len(seen))
	if denom < 1 {
		denom = 1
	}
	return float64(common) / float64(denom)
}

// colorSimilarity maps the euclidean RGB distance between two hex colors to
// [0,1], where identical colors score 1 and black vs white scores 0. Returns
// ok=false when either color fails to parse.
func colorSimilarity(hexA, hexB string) (float64, bool) {
	ca, errA := colorful.Hex(strings.ToLower(strings.TrimSpace(hexA)))
	cb, errB := colorful.Hex(strings.ToLower(strings.TrimSpace(hexB)))
	if errA != nil || errB != nil {
		return 0, false
	}
	dr := (ca.R - cb.R) * 255
	dg := (ca.G - cb.G) * 255
	db := (ca.B - cb.B) * 255
	dist := math.Sqrt(dr*dr + dg*dg + db*db)
	return 1 - dist/maxColorDistance, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
