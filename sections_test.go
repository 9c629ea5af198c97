package imagerank

import (
	"math"
	"testing"

	"github.com/pagecanvas/imagerank/models"
)

func defaultSectionOptions() models.SectionMatchingOptions {
	return mergeSectionDefaults(models.SectionMatchingOptions{})
}

func TestCalculateSectionScore(t *testing.T) {
	diversity := func(v float64) *float64 { return &v }

	tests := []struct {
		name          string
		img           models.ImageRecord
		section       models.PageSection
		expectedRange [2]float64 // min, max expected score
	}{
		{
			name: "ideal hero image",
			img: models.ImageRecord{
				URL: "https://shop.example.com/hero.jpg",
				Quality: &models.QualityAssessment{
					Overall:    models.ScoreDetail{Score: 0.95},
					Resolution: models.Resolution{Width: 2000, Height: 1500},
				},
				Content: &models.ContentAnalysis{
					RecommendedUse: models.RecommendedUse{Section: "main"},
					Mood:           models.Mood{Tags: []string{"clean", "studio", "bold"}},
				},
				DiversityScore: diversity(0.8),
			},
			section:       models.SectionHero,
			expectedRange: [2]float64{0.6, 0.8},
		},
		{
			name: "lifestyle shot against hero - mediocre",
			img: models.ImageRecord{
				URL: "https://shop.example.com/scene.jpg",
				Quality: &models.QualityAssessment{
					Overall:    models.ScoreDetail{Score: 0.6},
					Resolution: models.Resolution{Width: 800, Height: 600},
				},
				Content: &models.ContentAnalysis{
					RecommendedUse: models.RecommendedUse{Section: "lifestyle"},
					Mood:           models.Mood{Tags: []string{"warm", "outdoor"}},
				},
				DiversityScore: diversity(0.5),
			},
			section:       models.SectionHero,
			expectedRange: [2]float64{0.2, 0.4},
		},
		{
			name: "lifestyle shot against lifestyle - strong",
			img: models.ImageRecord{
				URL: "https://shop.example.com/scene.jpg",
				Quality: &models.QualityAssessment{
					Overall: models.ScoreDetail{Score: 0.6},
				},
				Content: &models.ContentAnalysis{
					RecommendedUse: models.RecommendedUse{Section: "lifestyle"},
					Mood:           models.Mood{Tags: []string{"warm", "outdoor", "natural"}},
				},
				DiversityScore: diversity(0.5),
			},
			section:       models.SectionLifestyle,
			expectedRange: [2]float64{0.5, 0.8},
		},
		{
			name:          "no metadata at all",
			img:           models.ImageRecord{URL: "https://shop.example.com/bare.jpg"},
			section:       models.SectionGallery,
			expectedRange: [2]float64{0, 0},
		},
		{
			name: "infographic against specs",
			img: models.ImageRecord{
				URL: "https://shop.example.com/chart.png",
				Content: &models.ContentAnalysis{
					RecommendedUse: models.RecommendedUse{Section: "specs"},
					Mood:           models.Mood{Tags: []string{"chart", "data", "technical"}},
				},
			},
			section:       models.SectionSpecs,
			expectedRange: [2]float64{0.2, 0.3},
		},
	}

	opts := defaultSectionOptions()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSectionScore(&tt.img, tt.section, opts)
			if got < tt.expectedRange[0]-1e-9 || got > tt.expectedRange[1]+1e-9 {
				t.Errorf("CalculateSectionScore() = %v, want in [%v, %v]",
					got, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestSectionRelevanceCaps(t *testing.T) {
	img := models.ImageRecord{
		URL: "https://shop.example.com/a.jpg",
		Content: &models.ContentAnalysis{
			RecommendedUse: models.RecommendedUse{Section: "hero"},
			// six matching tags would give 0.3 uncapped
			Mood: models.Mood{Tags: []string{"clean", "minimal", "professional", "bold", "studio", "bright"}},
		},
	}

	got := sectionRelevance(&img, models.SectionHero)

	// 0.3 hint + tag bonus capped at 0.2
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("sectionRelevance() = %v, want 0.5", got)
	}
}

func TestSizeBonus(t *testing.T) {
	mk := func(width, height int) *models.ImageRecord {
		return &models.ImageRecord{
			URL: "https://shop.example.com/a.jpg",
			Quality: &models.QualityAssessment{
				Overall:    models.ScoreDetail{Score: 1.0},
				Resolution: models.Resolution{Width: width, Height: height},
			},
		}
	}
	opts := defaultSectionOptions()

	small := CalculateSectionScore(mk(800, 600), models.SectionHero, opts)
	large := CalculateSectionScore(mk(4000, 3000), models.SectionHero, opts)

	if large <= small {
		t.Errorf("large image should outscore small for hero: %v vs %v", large, small)
	}
	// 12MP exceeds the bonus scale, so the bonus is pinned at 0.1
	if math.Abs(large-small-0.1) > 1e-9 {
		t.Errorf("size bonus = %v, want 0.1", large-small)
	}

	// gallery is not in PreferLargeImages
	galleryLarge := CalculateSectionScore(mk(4000, 3000), models.SectionGallery, opts)
	gallerySmall := CalculateSectionScore(mk(800, 600), models.SectionGallery, opts)
	if galleryLarge != gallerySmall {
		t.Errorf("no size bonus expected for gallery: %v vs %v", galleryLarge, gallerySmall)
	}
}

func TestMatchImagesToSections(t *testing.T) {
	diversity := func(v float64) *float64 { return &v }
	mk := func(url, hint string, quality float64) models.ImageRecord {
		return models.ImageRecord{
			URL:            url,
			Quality:        &models.QualityAssessment{Overall: models.ScoreDetail{Score: quality}},
			Content:        &models.ContentAnalysis{RecommendedUse: models.RecommendedUse{Section: hint}},
			DiversityScore: diversity(0.6),
		}
	}

	images := []models.ImageRecord{
		mk("https://shop.example.com/1.jpg", "main", 0.9),
		mk("https://shop.example.com/2.jpg", "main", 0.8),
		mk("https://shop.example.com/3.jpg", "main", 0.7),
	}

	opts := defaultSectionOptions()
	opts.SectionCounts = map[models.PageSection]int{
		models.SectionHero:    1,
		models.SectionGallery: 2,
	}

	matched := MatchImagesToSections(images, opts)

	if len(matched[models.SectionHero]) != 1 {
		t.Errorf("hero should keep exactly 1 image, got %d", len(matched[models.SectionHero]))
	}
	if matched[models.SectionHero][0].URL != "https://shop.example.com/1.jpg" {
		t.Errorf("hero should keep the top scorer, got %s", matched[models.SectionHero][0].URL)
	}
	if len(matched[models.SectionGallery]) != 2 {
		t.Errorf("gallery should keep 2 images, got %d", len(matched[models.SectionGallery]))
	}
}

func TestMatchImagesToSectionsScoreFloor(t *testing.T) {
	// bare records score 0 everywhere and must not qualify
	images := urlsOnly("a", "b")
	opts := defaultSectionOptions()

	matched := MatchImagesToSections(images, opts)

	for section, imgs := range matched {
		if len(imgs) != 0 {
			t.Errorf("section %s should be empty for unscorable images, got %v", section, imgs)
		}
	}
}
