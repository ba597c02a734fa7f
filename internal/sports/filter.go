package sports

import "marqueed/internal/espn"

// FilterByTeams keeps only games where at least one competitor abbreviation
// matches a configured team. An unmatched filter yields an empty result, not
// the original list. With an empty team list the emptyShowsAll policy decides
// between the unfiltered list and nothing at all.
func FilterByTeams(games []espn.Game, teams []string, emptyShowsAll bool) []espn.Game {
	if len(teams) == 0 {
		if emptyShowsAll {
			return games
		}
		return nil
	}
	out := make([]espn.Game, 0, len(games))
	for _, g := range games {
		if g.HasAnyTeam(teams) {
			out = append(out, g)
		}
	}
	return out
}
