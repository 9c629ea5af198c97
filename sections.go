package imagerank

import (
	"math"
	"sort"
	"strings"

	"github.com/pagecanvas/imagerank/models"
)

const (
	// relevance is capped before weighting: up to 0.3 from the placement
	// hint, up to 0.2 from tag matches
	maxHintRelevance     = 0.3
	partialHintRelevance = 0.15
	tagMatchRelevance    = 0.05
	maxTagRelevance      = 0.2
	maxRelevance         = 0.5

	// images only qualify for a section above this floor
	sectionScoreFloor = 0.3

	// size bonus for sections that prefer large imagery
	largeImageArea = 1_000_000
	sizeBonusScale = 10_000_000
	maxSizeBonus   = 0.1
)

// sectionVocabulary holds the fixed keyword sets an image's classifier output
// is matched against for one page section
type sectionVocabulary struct {
	hints []string
	tags  []string
}

var sectionVocabularies = map[models.PageSection]sectionVocabulary{
	models.SectionHero: {
		hints: []string{"main", "hero", "primary"},
		tags:  []string{"clean", "minimal", "professional", "bold", "studio", "bright"},
	},
	models.SectionFeatures: {
		hints: []string{"feature", "features", "detail"},
		tags:  []string{"detailed", "functional", "closeup", "technical", "clear"},
	},
	models.SectionDetails: {
		hints: []string{"detail", "details", "closeup"},
		tags:  []string{"macro", "texture", "closeup", "material", "precise", "craftsmanship"},
	},
	models.SectionUsage: {
		hints: []string{"usage", "context", "how-to"},
		tags:  []string{"action", "hands", "demonstration", "practical", "use"},
	},
	models.SectionSpecs: {
		hints: []string{"specification", "specs", "infographic"},
		tags:  []string{"chart", "diagram", "technical", "data", "measurements"},
	},
	models.SectionGallery: {
		hints: []string{"gallery", "main", "detail"},
		tags:  []string{"clean", "varied", "angle", "alternative"},
	},
	models.SectionLifestyle: {
		hints: []string{"lifestyle", "context", "scene"},
		tags:  []string{"warm", "natural", "people", "outdoor", "cozy", "scene"},
	},
	models.SectionAccessories: {
		hints: []string{"accessory", "accessories", "extras"},
		tags:  []string{"bundle", "included", "parts", "complement"},
	},
	models.SectionComparison: {
		hints: []string{"comparison", "compare", "versus"},
		tags:  []string{"side-by-side", "contrast", "options", "variants"},
	},
}

// CalculateSectionScore scores one image against one page section. The score
// is a weighted sum of relevance (placement hint and tag matches against the
// section's vocabulary, capped at 0.5), overall quality, and diversity, each
// contributing 0 when its metadata is absent. The weighted sum is clamped to
// [0,1]; sections listed in PreferLargeImages then earn a bonus of up to 0.1
// for imagery over a megapixel.
func CalculateSectionScore(img *models.ImageRecord, section models.PageSection, opts models.SectionMatchingOptions) float64 {
	relevance := sectionRelevance(img, section)

	quality := 0.0
	if img.Quality != nil {
		quality = img.Quality.Overall.Score
	}
	diversity := 0.0
	if img.DiversityScore != nil {
		diversity = *img.DiversityScore
	}

	score := clamp01(relevance*opts.RelevanceWeight +
		quality*opts.QualityWeight +
		diversity*opts.DiversityWeight)

	if img.Quality != nil && sectionIn(section, opts.PreferLargeImages) {
		area := img.Quality.Resolution.Area()
		if area > largeImageArea {
			bonus := float64(area-largeImageArea) / sizeBonusScale * maxSizeBonus
			score += math.Min(maxSizeBonus, bonus)
		}
	}
	return score
}

func sectionRelevance(img *models.ImageRecord, section models.PageSection) float64 {
	if img.Content == nil {
		return 0
	}
	vocab := sectionVocabularies[section]

	relevance := 0.0
	hint := strings.TrimSpace(strings.ToLower(img.Content.RecommendedUse.Section))
	if hint != "" {
		for _, h := range vocab.hints {
			if hint == h {
				relevance += maxHintRelevance
				break
			}
			if strings.Contains(hint, h) || strings.Contains(h, hint) {
				relevance += partialHintRelevance
				break
			}
		}
	}

	tagBonus := 0.0
	for _, tag := range img.Content.Mood.Tags {
		lt := strings.TrimSpace(strings.ToLower(tag))
		for _, v := range vocab.tags {
			if lt == v {
				tagBonus += tagMatchRelevance
				break
			}
		}
	}
	relevance += math.Min(maxTagRelevance, tagBonus)

	return math.Min(maxRelevance, relevance)
}

func sectionIn(section models.PageSection, sections []models.PageSection) bool {
	for _, s := range sections {
		if s == section {
			return true
		}
	}
	return false
}

// MatchImagesToSections scores every image against every configured section
// and keeps, per section, the top SectionCounts[section] images scoring above
// the qualification floor. The same image may appear under several sections
// here; RemoveDuplicateImages resolves the collisions afterwards.
func MatchImagesToSections(images []models.ImageRecord, opts models.SectionMatchingOptions) map[models.PageSection][]models.ImageRecord {
	result := make(map[models.PageSection][]models.ImageRecord, len(opts.SectionCounts))

	type scored struct {
		img   models.ImageRecord
		score float64
	}

	for section, count := range opts.SectionCounts {
		if count <= 0 {
			continue
		}
		candidates := make([]scored, 0, len(images))
		for i := range images {
			s := CalculateSectionScore(&images[i], section, opts)
			if s > sectionScoreFloor {
				candidates = append(candidates, scored{img: images[i], score: s})
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		if len(candidates) > count {
			candidates = candidates[:count]
		}
		selected := make([]models.ImageRecord, len(candidates))
		for i, c := range candidates {
			selected[i] = c.img
		}
		result[section] = selected
	}
	return result
}
