package espn

// League maps a short league key to its scoreboard path segment.
type League struct {
	Key  string
	Path string
}

// SupportedLeagues is the fixed league table. The sports module iterates
// leagues in exactly this order, regardless of config order.
var SupportedLeagues = []League{
	{"nfl", "football/nfl"},
	{"nba", "basketball/nba"},
	{"nhl", "hockey/nhl"},
	{"mlb", "baseball/mlb"},
	{"wnba", "basketball/wnba"},
	{"eng.1", "soccer/eng.1"},
	{"esp.1", "soccer/esp.1"},
	{"ger.1", "soccer/ger.1"},
	{"ita.1", "soccer/ita.1"},
	{"fra.1", "soccer/fra.1"},
	{"por.1", "soccer/por.1"},
	{"ned.1", "soccer/ned.1"},
	{"mex.1", "soccer/mex.1"},
	{"usa.1", "soccer/usa.1"},
	{"uefa.champions", "soccer/uefa.champions"},
	{"college-football", "football/college-football"},
	{"mens-college-basketball", "basketball/mens-college-basketball"},
	{"womens-college-basketball", "basketball/womens-college-basketball"},
	{"college-baseball", "baseball/college-baseball"},
}

// LeagueKeys returns the supported league keys in declared order.
func LeagueKeys() []string {
	keys := make([]string, len(SupportedLeagues))
	for i, l := range SupportedLeagues {
		keys[i] = l.Key
	}
	return keys
}

// LeaguePath resolves a league key to its path segment.
func LeaguePath(key string) (string, bool) {
	for _, l := range SupportedLeagues {
		if l.Key == key {
			return l.Path, true
		}
	}
	return "", false
}
