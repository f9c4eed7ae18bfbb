package textutil

// JaccardSimilarity computes the Jaccard index of the word sets of two texts:
// |intersection| / |union|. Returns 0 when either text has no usable tokens.
func JaccardSimilarity(a, b string) float64 {
	setA := WordSet(a)
	setB := WordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SharedWords counts distinct tokens common to both texts.
func SharedWords(a, b string) int {
	setA := WordSet(a)
	if len(setA) == 0 {
		return 0
	}
	setB := WordSet(b)
	if len(setB) == 0 {
		return 0
	}
	shared := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}
	return shared
}
