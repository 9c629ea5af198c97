package imagerank

import "github.com/pagecanvas/imagerank/models"

// Layout names returned by RecommendSectionLayout
const (
	LayoutSingle     = "single"
	LayoutSlider     = "slider"
	LayoutGrid       = "grid"
	LayoutMosaic     = "mosaic"
	LayoutComparison = "comparison"
)

// RecommendSectionLayout maps a section and its selected image count to a
// presentation hint. Zero or one image always renders as a single block;
// otherwise each section has a default layout.
func RecommendSectionLayout(images []models.ImageRecord, section models.PageSection) models.LayoutRecommendation {
	n := len(images)
	if n <= 1 {
		return models.LayoutRecommendation{Layout: LayoutSingle}
	}

	switch section {
	case models.SectionHero, models.SectionLifestyle:
		return models.LayoutRecommendation{Layout: LayoutSlider}
	case models.SectionFeatures:
		return models.LayoutRecommendation{Layout: LayoutGrid, Columns: min(3, n)}
	case models.SectionDetails:
		return models.LayoutRecommendation{Layout: LayoutMosaic}
	case models.SectionGallery:
		return models.LayoutRecommendation{Layout: LayoutGrid, Columns: 3}
	case models.SectionComparison:
		return models.LayoutRecommendation{Layout: LayoutComparison}
	default:
		if n <= 3 {
			return models.LayoutRecommendation{Layout: LayoutGrid}
		}
		return models.LayoutRecommendation{Layout: LayoutSlider}
	}
}
