package domain

// StreakState is the current run of consecutive same-typed outcomes for
// one tracked scope. Exactly one active streak per scope at a time.
type StreakState struct {
	Type  Outcome
	Count int
}

// Apply folds the next outcome into the streak: matching type
// increments the count, a differing type resets it to 1.
func (s StreakState) Apply(o Outcome) StreakState {
	if s.Type == o && s.Count > 0 {
		return StreakState{Type: o, Count: s.Count + 1}
	}
	return StreakState{Type: o, Count: 1}
}

// StreakScopeGlobal is the scope key for the engine-wide streak.
const StreakScopeGlobal = "global"

// StreakScopeToken returns the streak scope key for one token.
func StreakScopeToken(token string) string {
	return "token:" + token
}
