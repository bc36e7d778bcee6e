package attribution

// jaroWinkler computes the Jaro-Winkler similarity of two rune slices, used
// by move detection to score candidate deletion/insertion pairs (spec
// §4.2, "Move detection"). Returns a value in [0,1].
func jaroWinkler(a, b []rune) float64 {
	jaro := jaroSimilarity(a, b)
	if jaro == 0 {
		return 0
	}

	// Winkler adjustment: boost similarity for strings sharing a common
	// prefix, up to 4 characters, scaled by a fixed 0.1 factor.
	const prefixScale = 0.1
	const maxPrefix = 4

	prefixLen := 0
	for prefixLen < len(a) && prefixLen < len(b) && prefixLen < maxPrefix && a[prefixLen] == b[prefixLen] {
		prefixLen++
	}

	return jaro + float64(prefixLen)*prefixScale*(1-jaro)
}

// jaroSimilarity computes the Jaro similarity of two rune slices.
func jaroSimilarity(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matchDistance := maxInt(len(a), len(b))/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := range a {
		start := maxInt(0, i-matchDistance)
		end := minInt(i+matchDistance+1, len(b))
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range a {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions))/m) / 3
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
