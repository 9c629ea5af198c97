package models

import "time"

// PageSection identifies a named region of a generated detail page
type PageSection string

const (
	SectionHero        PageSection = "hero"
	SectionFeatures    PageSection = "features"
	SectionDetails     PageSection = "details"
	SectionUsage       PageSection = "usage"
	SectionSpecs       PageSection = "specs"
	SectionGallery     PageSection = "gallery"
	SectionLifestyle   PageSection = "lifestyle"
	SectionAccessories PageSection = "accessories"
	SectionComparison  PageSection = "comparison"
)

// AllSections lists every known page section
var AllSections = []PageSection{
	SectionHero,
	SectionFeatures,
	SectionDetails,
	SectionUsage,
	SectionSpecs,
	SectionGallery,
	SectionLifestyle,
	SectionAccessories,
	SectionComparison,
}

// ImageRecord is a single candidate image flowing through the analysis
// pipeline. Quality and Content are produced by upstream assessors and may be
// absent; the engine only uses the factors that are present. DiversityScore,
// SimilarityGroups and OverallScore are filled in by the engine on enriched
// copies - input records are never mutated.
type ImageRecord struct {
	URL              string             `json:"url"`
	AltText          string             `json:"alt_text,omitempty"`
	Quality          *QualityAssessment `json:"quality,omitempty"`
	Content          *ContentAnalysis   `json:"content,omitempty"`
	DiversityScore   *float64           `json:"diversity_score,omitempty"`
	SimilarityGroups []string           `json:"similarity_groups,omitempty"`
	OverallScore     *float64           `json:"overall_score,omitempty"`
	EXIF             *EXIFData          `json:"exif,omitempty"`
}

// QualityAssessment is the output of the external per-image quality assessor,
// consumed read-only
type QualityAssessment struct {
	Overall    ScoreDetail  `json:"overall"`
	Resolution Resolution   `json:"resolution"`
	Sharpness  *ScoreDetail `json:"sharpness,omitempty"`
	Noise      *ScoreDetail `json:"noise,omitempty"`
	Color      *ScoreDetail `json:"color,omitempty"`
}

// ScoreDetail is a normalized score in [0,1] with an optional label
type ScoreDetail struct {
	Score float64 `json:"score"`
	Level string  `json:"level,omitempty"`
}

// Resolution holds pixel dimensions reported by the quality assessor
type Resolution struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Megapixels float64 `json:"megapixels,omitempty"`
}

// Area returns the pixel area, or 0 when dimensions are unknown
func (r Resolution) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// ContentAnalysis is the output of the external content/tag classifier,
// consumed read-only
type ContentAnalysis struct {
	ContentType     ContentTypeFlags `json:"content_type"`
	RecommendedUse  RecommendedUse   `json:"recommended_use"`
	Mood            Mood             `json:"mood"`
	ColorScheme     ColorScheme      `json:"color_scheme"`
	Objects         Objects          `json:"objects"`
	ProductFocus    ScoreDetail      `json:"product_focus"`
	CommercialValue ScoreDetail      `json:"commercial_value"`
}

// ContentTypeFlags classifies what kind of shot an image is
type ContentTypeFlags struct {
	IsProduct     bool `json:"is_product"`
	IsLifestyle   bool `json:"is_lifestyle"`
	IsInfographic bool `json:"is_infographic"`
	HasPerson     bool `json:"has_person"`
}

// Dominant reduces the flags to a single label for pairwise comparison.
// Product wins over lifestyle, which wins over infographic and person shots.
func (f ContentTypeFlags) Dominant() string {
	switch {
	case f.IsProduct:
		return "product"
	case f.IsLifestyle:
		return "lifestyle"
	case f.IsInfographic:
		return "infographic"
	case f.HasPerson:
		return "person"
	default:
		return "general"
	}
}

// RecommendedUse is the classifier's free-text placement hint
type RecommendedUse struct {
	Section string `json:"section"`
	Reason  string `json:"reason,omitempty"`
}

// Mood holds descriptive tags assigned by the classifier
type Mood struct {
	Tags []string `json:"tags"`
}

// ColorScheme holds colors extracted by the classifier, hex-encoded
type ColorScheme struct {
	Dominant string   `json:"dominant"`
	Palette  []string `json:"palette,omitempty"`
}

// Objects identifies what the classifier saw in the image
type Objects struct {
	Main   string   `json:"main"`
	Others []string `json:"others,omitempty"`
}

// EXIFData contains header metadata captured while probing an image
type EXIFData struct {
	DateTime string `json:"date_time,omitempty"`
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Software string `json:"software,omitempty"`
}

// DiversityOptions controls ranking and recommendation selection
type DiversityOptions struct {
	PrioritizeQuality bool     `json:"prioritize_quality"`
	PrioritizeContent bool     `json:"prioritize_content"`
	MinDiversityScore float64  `json:"min_diversity_score"` // default 0.3
	MaxGroupSize      int      `json:"max_group_size"`      // default 3
	TargetCategories  []string `json:"target_categories,omitempty"`
}

// Categories the ranker buckets images into, keyed by the classifier's
// recommended-use hint
const (
	CategoryMain          = "main"
	CategoryDetail        = "detail"
	CategoryLifestyle     = "lifestyle"
	CategorySpecification = "specification"
)

// AllCategories lists the ranking buckets in presentation order
var AllCategories = []string{CategoryMain, CategoryDetail, CategoryLifestyle, CategorySpecification}

// SectionMatchingOptions controls how images are scored against page sections.
// Weights are intentionally not normalized; callers may over- or under-weight,
// and scores are clamped at each computation boundary instead.
type SectionMatchingOptions struct {
	SectionCounts     map[PageSection]int `json:"section_counts"`
	PreferLargeImages []PageSection       `json:"prefer_large_images,omitempty"`
	QualityWeight     float64             `json:"quality_weight"`
	RelevanceWeight   float64             `json:"relevance_weight"`
	DiversityWeight   float64             `json:"diversity_weight"`
}

// Recommendations groups the ranker's selection output
type Recommendations struct {
	Diverse    []ImageRecord            `json:"diverse"`
	ByCategory map[string][]ImageRecord `json:"by_category"`
}

// AnalysisResult is the complete output of a diversity analysis run
type AnalysisResult struct {
	ID              string          `json:"id"`
	Images          []ImageRecord   `json:"images"`
	Groups          [][]string      `json:"groups"`
	Recommendations Recommendations `json:"recommendations"`
	ImageCount      int             `json:"image_count"`
	ComputedAt      time.Time       `json:"computed_at"`
	ProcessingTime  float64         `json:"processing_time_seconds"`
	Cached          bool            `json:"cached"`
}

// LayoutRecommendation is a presentation hint for one section's images
type LayoutRecommendation struct {
	Layout  string `json:"layout"`
	Columns int    `json:"columns,omitempty"`
}

// SectionMatchingResult maps sections to their selected images. After
// deduplication a URL appears in at most one section's list.
type SectionMatchingResult struct {
	Sections map[PageSection][]ImageRecord        `json:"sections"`
	Layouts  map[PageSection]LayoutRecommendation `json:"layout_recommendations"`
}

// ScanResult is the output of scanning a shop page for candidate images
type ScanResult struct {
	ID             string        `json:"id"`
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Images         []ImageRecord `json:"images"`
	ScannedAt      time.Time     `json:"scanned_at"`
	ProcessingTime float64       `json:"processing_time_seconds"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// AnalyzeRequest is the request body for the analyze endpoint
type AnalyzeRequest struct {
	Images  []ImageRecord    `json:"images"`
	Options DiversityOptions `json:"options"`
}

// SectionsRequest is the request body for the section-matching endpoint
type SectionsRequest struct {
	Images  []ImageRecord          `json:"images"`
	Options SectionMatchingOptions `json:"options"`
}

// ScanRequest is the request body for the scan endpoint
type ScanRequest struct {
	URL string `json:"url"`
}
