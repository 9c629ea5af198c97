package imagerank

import "github.com/pagecanvas/imagerank/models"

// SectionPriority orders sections for collision resolution. When one image
// qualifies for several sections it is kept in the first section of this
// order and dropped everywhere later; earlier sections are never affected by
// later ones.
var SectionPriority = []models.PageSection{
	models.SectionHero,
	models.SectionFeatures,
	models.SectionDetails,
	models.SectionUsage,
	models.SectionSpecs,
	models.SectionLifestyle,
	models.SectionAccessories,
	models.SectionGallery,
	models.SectionComparison,
}

// RemoveDuplicateImages resolves cross-section collisions: walking sections
// in priority order, each URL is kept where it first appears and removed from
// every later section. Pass nil to use SectionPriority.
func RemoveDuplicateImages(sections map[models.PageSection][]models.ImageRecord, priority []models.PageSection) map[models.PageSection][]models.ImageRecord {
	if priority == nil {
		priority = SectionPriority
	}
	seen := make(map[string]bool)
	result := make(map[models.PageSection][]models.ImageRecord, len(sections))

	for _, section := range priority {
		images, ok := sections[section]
		if !ok {
			continue
		}
		kept := make([]models.ImageRecord, 0, len(images))
		for _, img := range images {
			if seen[img.URL] {
				continue
			}
			seen[img.URL] = true
			kept = append(kept, img)
		}
		result[section] = kept
	}
	return result
}
