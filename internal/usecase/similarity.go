package usecase

// indelSubstitutionCost makes a substitution as expensive as a deletion plus an insertion,
// which turns the weighted Levenshtein distance into the Indel distance.
const indelSubstitutionCost = 2

// Similarity scores two strings in [0,100]: identical strings score 100 and strings
// with no character in common score 0. The score is the normalized Indel ratio
// 100 * (|a|+|b| - d) / (|a|+|b|), computed over runes.
func Similarity(a, b string) float64 {
	r1 := []rune(a)
	r2 := []rune(b)

	total := len(r1) + len(r2)
	if total == 0 {
		return 100
	}

	dist := weightedLevenshtein(r1, r2, indelSubstitutionCost)
	return float64(100*(total-dist)) / float64(total)
}

// weightedLevenshtein calculates the edit distance between two rune slices
// with unit insertion/deletion cost and the given substitution cost
func weightedLevenshtein(r1, r2 []rune, substitutionCost int) int {
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = substitutionCost
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
