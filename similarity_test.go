package imagerank

import (
	"math"
	"testing"

	"github.com/pagecanvas/imagerank/models"
)

// productRecord builds a fully-analyzed product image for tests
func productRecord(url string) models.ImageRecord {
	return models.ImageRecord{
		URL: url,
		Quality: &models.QualityAssessment{
			Overall:    models.ScoreDetail{Score: 0.85},
			Resolution: models.Resolution{Width: 1200, Height: 900},
		},
		Content: &models.ContentAnalysis{
			ContentType:     models.ContentTypeFlags{IsProduct: true},
			RecommendedUse:  models.RecommendedUse{Section: "main"},
			Mood:            models.Mood{Tags: []string{"clean", "minimal"}},
			ColorScheme:     models.ColorScheme{Dominant: "#ffffff"},
			Objects:         models.Objects{Main: "tumbler"},
			ProductFocus:    models.ScoreDetail{Score: 0.9},
			CommercialValue: models.ScoreDetail{Score: 0.8},
		},
	}
}

// lifestyleRecord builds an image disjoint from productRecord on every factor
func lifestyleRecord(url string) models.ImageRecord {
	return models.ImageRecord{
		URL: url,
		Content: &models.ContentAnalysis{
			ContentType:     models.ContentTypeFlags{IsLifestyle: true},
			RecommendedUse:  models.RecommendedUse{Section: "lifestyle"},
			Mood:            models.Mood{Tags: []string{"scene"}},
			ColorScheme:     models.ColorScheme{Dominant: "#000000"},
			Objects:         models.Objects{Main: "picnic"},
			ProductFocus:    models.ScoreDetail{Score: 0.2},
			CommercialValue: models.ScoreDetail{Score: 0.4},
		},
	}
}

func TestCalculateSimilarityMatrixInvariants(t *testing.T) {
	images := []models.ImageRecord{
		productRecord("https://shop.example.com/a.jpg"),
		productRecord("https://shop.example.com/b.jpg"),
		lifestyleRecord("https://shop.example.com/c.jpg"),
	}

	matrix := CalculateSimilarityMatrix(images)

	if len(matrix) != 3 {
		t.Fatalf("Expected 3x3 matrix, got %d rows", len(matrix))
	}
	for i := range matrix {
		if matrix[i][i] != 1 {
			t.Errorf("matrix[%d][%d] = %v, want 1", i, i, matrix[i][i])
		}
		for j := range matrix[i] {
			if matrix[i][j] != matrix[j][i] {
				t.Errorf("matrix not symmetric at (%d,%d): %v vs %v", i, j, matrix[i][j], matrix[j][i])
			}
			if matrix[i][j] < 0 || matrix[i][j] > 1 {
				t.Errorf("matrix[%d][%d] = %v out of [0,1]", i, j, matrix[i][j])
			}
		}
	}
}

func TestIdenticalRecordsScoreOne(t *testing.T) {
	images := []models.ImageRecord{
		productRecord("https://shop.example.com/a.jpg"),
		productRecord("https://shop.example.com/b.jpg"),
	}

	matrix := CalculateSimilarityMatrix(images)

	if math.Abs(matrix[0][1]-1) > 1e-9 {
		t.Errorf("identical records scored %v, want 1", matrix[0][1])
	}
}

func TestDisjointRecordsScoreZero(t *testing.T) {
	images := []models.ImageRecord{
		productRecord("https://shop.example.com/a.jpg"),
		lifestyleRecord("https://shop.example.com/c.jpg"),
	}

	matrix := CalculateSimilarityMatrix(images)

	if matrix[0][1] != 0 {
		t.Errorf("disjoint records scored %v, want 0", matrix[0][1])
	}
}

func TestSimilarityMissingMetadata(t *testing.T) {
	tests := []struct {
		name string
		a    models.ImageRecord
		b    models.ImageRecord
		want float64
	}{
		{
			name: "no metadata at all",
			a:    models.ImageRecord{URL: "https://shop.example.com/a.jpg"},
			b:    models.ImageRecord{URL: "https://shop.example.com/b.jpg"},
			want: 0,
		},
		{
			name: "quality only, matching areas",
			a: models.ImageRecord{
				URL:     "https://shop.example.com/a.jpg",
				Quality: &models.QualityAssessment{Resolution: models.Resolution{Width: 1000, Height: 1000}},
			},
			b: models.ImageRecord{
				URL:     "https://shop.example.com/b.jpg",
				Quality: &models.QualityAssessment{Resolution: models.Resolution{Width: 1000, Height: 950}},
			},
			want: 1, // the resolution factor is the only applicable one and it matches
		},
		{
			name: "quality only, very different areas",
			a: models.ImageRecord{
				URL:     "https://shop.example.com/a.jpg",
				Quality: &models.QualityAssessment{Resolution: models.Resolution{Width: 2000, Height: 2000}},
			},
			b: models.ImageRecord{
				URL:     "https://shop.example.com/b.jpg",
				Quality: &models.QualityAssessment{Resolution: models.Resolution{Width: 100, Height: 100}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pairSimilarity(&tt.a, &tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pairSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMalformedColorSkipsFactor(t *testing.T) {
	a := productRecord("https://shop.example.com/a.jpg")
	b := productRecord("https://shop.example.com/b.jpg")
	a.Content.ColorScheme.Dominant = "not-a-color"

	got := pairSimilarity(&a, &b)

	// Every remaining factor matches, so the pair still scores 1
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("pairSimilarity() = %v, want 1 with color factor skipped", got)
	}
}

func TestColorSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		hexA     string
		hexB     string
		wantOK   bool
		expected [2]float64 // min, max expected ratio
	}{
		{"identical whites", "#ffffff", "#ffffff", true, [2]float64{1, 1}},
		{"black vs white", "#000000", "#ffffff", true, [2]float64{0, 0}},
		{"near colors", "#ff0000", "#ee0000", true, [2]float64{0.9, 1.0}},
		{"short form", "#fff", "#ffffff", true, [2]float64{1, 1}},
		{"garbage", "blue-ish", "#ffffff", false, [2]float64{0, 0}},
		{"empty", "", "#ffffff", false, [2]float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, ok := colorSimilarity(tt.hexA, tt.hexB)
			if ok != tt.wantOK {
				t.Fatalf("colorSimilarity() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ratio < tt.expected[0]-1e-9 || ratio > tt.expected[1]+1e-9 {
				t.Errorf("colorSimilarity() = %v, want in [%v, %v]", ratio, tt.expected[0], tt.expected[1])
			}
		})
	}
}

func TestTagOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"identical", []string{"clean", "minimal"}, []string{"clean", "minimal"}, 1},
		{"disjoint", []string{"clean"}, []string{"scene"}, 0},
		{"partial", []string{"clean", "minimal", "bright"}, []string{"clean", "warm"}, 0.5},
		{"empty side", []string{"clean"}, nil, 0},
		{"case insensitive", []string{"Clean"}, []string{"clean"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagOverlap(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("tagOverlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEmptyInputMatrix(t *testing.T) {
	matrix := CalculateSimilarityMatrix(nil)
	if len(matrix) != 0 {
		t.Errorf("Expected empty matrix, got %d rows", len(matrix))
	}
}
