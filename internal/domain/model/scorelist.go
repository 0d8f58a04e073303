// Package model contains the remote entities passed between layers.
// Field names follow the remote GraphQL schema.
package model

import "time"

// ScoreState is the outcome of a single run.
type ScoreState string

// Known score states.
const (
	ScoreStateDQ           ScoreState = "DQ"
	ScoreStateDidNotFinish ScoreState = "DidNotFinish"
	ScoreStateDidNotScore  ScoreState = "DidNotScore"
	ScoreStateScored       ScoreState = "Scored"
)

// Shooter is a competitor. Scores only carry the name.
type Shooter struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Division string `json:"division,omitempty"`
}

// Score is one competitor run on a scorelist.
type Score struct {
	ID              int        `json:"id"`
	Round           int        `json:"round"`
	Alphas          int        `json:"alphas"`
	Charlies        int        `json:"charlies"`
	Deltas          int        `json:"deltas"`
	Misses          int        `json:"misses"`
	Noshoots        int        `json:"noshoots"`
	Poppers         int        `json:"poppers"`
	ProErrorCount   int        `json:"proErrorCount"`
	Time            float64    `json:"time"`
	HitFactor       string     `json:"hitFactor"`
	RoundPrecentage float64    `json:"roundPrecentage"`
	State           ScoreState `json:"state"`
	Shooter         Shooter    `json:"shooter"`
}

// StageRef is the stage summary embedded in scorelists.
type StageRef struct {
	Name     string `json:"name"`
	CreateAt string `json:"createAt,omitempty"`
}

// Scorelist is a stage session with its scores.
type Scorelist struct {
	ID       int      `json:"id"`
	CreateAt string   `json:"createAt"`
	Rounds   int      `json:"rounds"`
	Stage    StageRef `json:"stage"`
	Scores   []Score  `json:"scores"`
}

// Title is the page heading: the stage date followed by the stage name.
func (s Scorelist) Title() string {
	return DisplayDate(s.Stage.CreateAt) + " " + s.Stage.Name
}

// ScorelistSummary is the catalog entry used by statistics filters.
type ScorelistSummary struct {
	ID           int      `json:"id"`
	CreateAt     string   `json:"createAt"`
	LastUpdate   string   `json:"lastUpdate"`
	ScoreboardID int      `json:"scoreboardId"`
	Rounds       int      `json:"rounds"`
	Stage        StageRef `json:"stage"`
}

// Scoreboard groups scorelists.
type Scoreboard struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DisplayDate renders a remote timestamp as YYYY-MM-DD. Values that do not
// parse as RFC 3339 are returned unchanged.
func DisplayDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format(time.DateOnly)
}
