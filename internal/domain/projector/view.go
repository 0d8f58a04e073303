package projector

import "github.com/okian/rangeboard/internal/domain/model"

// ScorelistView is everything a scorelist page renders for one viewer.
type ScorelistView struct {
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Rounds   int        `json:"rounds"`
	Round    int        `json:"round"`
	Ordering bool       `json:"ordering"`
	Tabs     []Tab      `json:"tabs"`
	Columns  []Column   `json:"columns"`
	Rows     []ScoreRow `json:"rows"`
}

// View projects a scorelist for the selected round and ordering mode.
func View(sl model.Scorelist, round int, ordering bool) ScorelistView {
	return ScorelistView{
		ID:       sl.ID,
		Title:    sl.Title(),
		Rounds:   sl.Rounds,
		Round:    round,
		Ordering: ordering,
		Tabs:     Tabs(sl.Rounds),
		Columns:  Columns(round, ordering),
		Rows:     Project(sl.Scores, round),
	}
}
