package normalize

import "strings"

// Similarity scores two raw strings in [0,1]. It takes the better of
// the edit-distance ratio over the full canonical strings and the
// token-set ratio, so both character-level typos ("Santa Catarian")
// and reordered or partial token sets ("Catarina Santa") score high.
func Similarity(a, b string) float64 {
	ca, cb := Canonical(a), Canonical(b)
	if ca == "" || cb == "" {
		return 0
	}
	if ca == cb {
		return 1
	}

	edit := editRatio(ca, cb)
	tokens := tokenSetRatio(ca, cb)
	if tokens > edit {
		return tokens
	}
	return edit
}

// editRatio converts Damerau-Levenshtein distance into a [0,1] ratio.
func editRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(maxLen)
}

// editDistance computes Damerau-Levenshtein distance (insert, delete,
// substitute, adjacent transposition) with a rolling three-row matrix.
func editDistance(a, b string) int {
	lenA, lenB := len(a), len(b)
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Keep a as the shorter string so the rows stay small.
	if lenA > lenB {
		a, b = b, a
		lenA, lenB = lenB, lenA
	}

	prevPrev := make([]int, lenA+1)
	prev := make([]int, lenA+1)
	curr := make([]int, lenA+1)

	for i := 0; i <= lenA; i++ {
		prev[i] = i
	}

	for j := 1; j <= lenB; j++ {
		curr[0] = j
		for i := 1; i <= lenA; i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min3(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)

			// Adjacent transposition
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if t := prevPrev[i-2] + 1; t < curr[i] {
					curr[i] = t
				}
			}
		}
		prevPrev, prev, curr = prev, curr, prevPrev
	}

	return prev[lenA]
}

// tokenSetRatio measures shared tokens as a ratio of the smaller token
// set, so an abbreviation matching a subset of a longer name still
// scores well.
func tokenSetRatio(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(ta))
	for _, tok := range ta {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(tb))
	for _, tok := range tb {
		setB[tok] = true
	}

	overlap := 0
	for tok := range setB {
		if setA[tok] {
			overlap++
		}
	}

	minLen := len(setA)
	if len(setB) < minLen {
		minLen = len(setB)
	}
	return float64(overlap) / float64(minLen)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
