package vectorstore

import "math"

// mmrLambda balances relevance against diversity in MMR selection.
const mmrLambda = 0.5

// MaximalMarginalRelevance selects k candidate indices that are relevant to
// the query while penalizing redundancy against already-selected candidates.
// Candidates must be ordered by descending query similarity; the returned
// indices are in selection order.
func MaximalMarginalRelevance(query []float32, candidates [][]float32, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	querySim := make([]float64, len(candidates))
	for i, c := range candidates {
		querySim[i] = CosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	taken := make([]bool, len(candidates))

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		bestRedundancy := math.Inf(1)
		for i := range candidates {
			if taken[i] {
				continue
			}
			redundancy := 0.0
			for _, s := range selected {
				if sim := CosineSimilarity(candidates[i], candidates[s]); sim > redundancy {
					redundancy = sim
				}
			}
			score := mmrLambda*querySim[i] - (1-mmrLambda)*redundancy
			// A duplicate of a selected chunk that is collinear with the
			// query scores the same as a diverse candidate; ties go to
			// the less redundant one.
			if score > bestScore || (score == bestScore && redundancy < bestRedundancy) {
				bestScore = score
				bestRedundancy = redundancy
				best = i
			}
		}
		selected = append(selected, best)
		taken[best] = true
	}
	return selected
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield zero similarity.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
