package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "marqueed/pkg/logx"
)

const scoreboardJSON = `{
  "events": [
    {
      "id": "401547417",
      "name": "Kansas City Chiefs at San Francisco 49ers",
      "competitions": [
        {"competitors": [{"team": {"abbreviation": "SF"}}, {"team": {"abbreviation": "KC"}}]}
      ]
    },
    {
      "id": "401547418",
      "name": "Buffalo Bills at Miami Dolphins",
      "competitions": [
        {"competitors": [{"team": {"abbreviation": "MIA"}}, {"team": {"abbreviation": "BUF"}}]}
      ]
    }
  ]
}`

func TestScoreboard(t *testing.T) {
	t.Parallel()
	var gotPath, gotDates string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDates = r.URL.Query().Get("dates")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scoreboardJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logx.Nop())
	games, err := c.Scoreboard(context.Background(), "nfl", "20260829")
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if gotPath != "/football/nfl/scoreboard" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotDates != "20260829" {
		t.Fatalf("dates = %s", gotDates)
	}
	if len(games) != 2 {
		t.Fatalf("games = %d, want 2", len(games))
	}
	if !games[0].HasAnyTeam([]string{"KC"}) {
		t.Fatal("expected first game to include KC")
	}
	if games[1].HasAnyTeam([]string{"KC"}) {
		t.Fatal("second game should not include KC")
	}
}

func TestScoreboardErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logx.Nop())
	if _, err := c.Scoreboard(context.Background(), "nfl", "20260829"); err == nil {
		t.Fatal("expected error on 502")
	}
	if _, err := c.Scoreboard(context.Background(), "curling", "20260829"); err == nil {
		t.Fatal("expected error for unsupported league")
	}
}

func TestLeagueTableOrder(t *testing.T) {
	t.Parallel()
	keys := LeagueKeys()
	if len(keys) != 19 {
		t.Fatalf("league count = %d, want 19", len(keys))
	}
	if keys[0] != "nfl" || keys[len(keys)-1] != "college-baseball" {
		t.Fatalf("unexpected league order: first=%s last=%s", keys[0], keys[len(keys)-1])
	}
	if p, ok := LeaguePath("uefa.champions"); !ok || p != "soccer/uefa.champions" {
		t.Fatalf("LeaguePath = %s, %v", p, ok)
	}
}
