package imagerank

import "github.com/pagecanvas/imagerank/models"

// DefaultSimilarityThreshold is the minimum pairwise similarity for an image
// to join a group
const DefaultSimilarityThreshold = 0.75

// GroupSimilarImages clusters near-duplicate images using single-seed
// grouping: the first unvisited image in input order seeds a group, and every
// remaining unvisited image whose similarity to that seed exceeds threshold
// joins it. Membership is decided against the seed only, not transitively
// against other members, so an image similar to a non-seed member but not to
// the seed forms its own group.
func GroupSimilarImages(images []models.ImageRecord, matrix [][]float64, threshold float64) [][]string {
	groups := [][]string{}
	if len(images) == 0 {
		return groups
	}
	visited := make([]bool, len(images))
	for i := range images {
		if visited[i] {
			continue
		}
		visited[i] = true
		group := []string{images[i].URL}
		for j := range images {
			if visited[j] {
				continue
			}
			if matrix[i][j] > threshold {
				visited[j] = true
				group = append(group, images[j].URL)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// DiversityScores derives a per-image uniqueness score from the similarity
// matrix: 1 minus the mean similarity to every other image. A single image
// has diversity 0.
func DiversityScores(matrix [][]float64) []float64 {
	n := len(matrix)
	scores := make([]float64, n)
	if n < 2 {
		return scores
	}
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if j != i {
				sum += matrix[i][j]
			}
		}
		scores[i] = clamp01(1 - sum/float64(n-1))
	}
	return scores
}

// groupKeys maps every URL that belongs to a multi-member group to that
// group's seed URL. Singleton groups are omitted: an image alone in its group
// carries no similarity-group marker.
func groupKeys(groups [][]string) map[string]string {
	keys := make(map[string]string)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		seed := group[0]
		for _, url := range group {
			keys[url] = seed
		}
	}
	return keys
}
