package favicon

// IsBetter decides whether a contender displaces the incumbent favicon.
// Strictly better source priority always wins regardless of size; equal
// priority requires strictly greater width, so the first candidate seen at
// the best size is kept.
func IsBetter(candidate Source, candidateWidth, incumbentWidth int, incumbent Source) bool {
	cp, ip := candidate.Priority(), incumbent.Priority()
	if cp != ip {
		return cp < ip
	}
	return candidateWidth > incumbentWidth
}

// SelectBest returns the best candidate and its comparison width, applying
// the minimum-width floor. The dims slice pairs 1:1 with candidates; a
// length mismatch yields (nil, 0). For non-square images the comparison
// dimension is the smaller edge.
func SelectBest(candidates []Candidate, dims [][2]int, minWidth int) (*Candidate, int) {
	if len(candidates) != len(dims) {
		return nil, 0
	}

	var best *Candidate
	bestWidth := 0
	for i := range candidates {
		width := minEdge(dims[i][0], dims[i][1])
		if best == nil {
			if width > 0 {
				best = &candidates[i]
				bestWidth = width
			}
			continue
		}
		if IsBetter(candidates[i].Source, width, bestWidth, best.Source) {
			best = &candidates[i]
			bestWidth = width
		}
	}

	if best == nil || bestWidth < minWidth {
		return nil, 0
	}
	return best, bestWidth
}

func minEdge(w, h int) int {
	if h < w {
		return h
	}
	return w
}
