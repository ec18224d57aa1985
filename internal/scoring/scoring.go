// Package scoring contains the mode router, the per-mode base scorers,
// and the ordered adjuster chain that folds reinforcement memory,
// streak state, and exploration noise into a final [0,100] score.
//
// Every adjuster is a pure function over explicit inputs; the engine is
// responsible for fetching memory state and threading it through.
package scoring

// clamp100 bounds a score to [0,100].
func clamp100(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// clampBucket bounds a feature bucket to [0,10].
func clampBucket(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// scale maps x from [lo,hi] onto [0,1], clamped.
func scale(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	v := (x - lo) / (hi - lo)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
