package scan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"github.com/pagecanvas/imagerank/models"
)

// probeImage downloads up to MaxImageBytes of an image and fills in a partial
// quality assessment (resolution plus a resolution-derived overall score that
// the external assessor refines later) and any EXIF header metadata. The
// bytes are decoded only far enough to read the header; no pixel analysis
// happens here.
func (s *Scanner) probeImage(ctx context.Context, img models.ImageRecord) (models.ImageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", img.URL, nil)
	if err != nil {
		return img, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return img, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return img, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	limited := io.LimitReader(resp.Body, s.config.MaxImageBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		return img, fmt.Errorf("failed to read image data: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return img, fmt.Errorf("failed to decode image header: %w", err)
	}

	img.Quality = &models.QualityAssessment{
		Overall: models.ScoreDetail{
			Score: resolutionScore(cfg.Width, cfg.Height),
			Level: "estimated",
		},
		Resolution: models.Resolution{
			Width:      cfg.Width,
			Height:     cfg.Height,
			Megapixels: float64(cfg.Width) * float64(cfg.Height) / 1_000_000,
		},
	}

	// EXIF is best effort: most web imagery is stripped
	if meta := extractEXIF(data); meta != nil {
		img.EXIF = meta
	}

	return img, nil
}

// resolutionScore is a coarse stand-in for the external quality assessor,
// derived from pixel count alone
func resolutionScore(width, height int) float64 {
	megapixels := float64(width) * float64(height) / 1_000_000
	switch {
	case megapixels >= 2:
		return 0.9
	case megapixels >= 1:
		return 0.75
	case megapixels >= 0.3:
		return 0.55
	default:
		return 0.3
	}
}

func extractEXIF(data []byte) *models.EXIFData {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	meta := &models.EXIFData{}
	if tag, err := x.Get(exif.DateTime); err == nil {
		meta.DateTime, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Make); err == nil {
		meta.Make, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		meta.Model, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Software); err == nil {
		meta.Software, _ = tag.StringVal()
	}

	if meta.DateTime == "" && meta.Make == "" && meta.Model == "" && meta.Software == "" {
		return nil
	}
	return meta
}
