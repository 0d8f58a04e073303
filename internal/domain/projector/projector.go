// Package projector turns remote scorelist data into grid rows, columns and
// round tabs. Every call builds fresh slices; inputs are never modified.
package projector

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/samber/lo"
)

// ScoreRow is one grid row.
type ScoreRow struct {
	ID         int              `json:"id"`
	Round      *int             `json:"round,omitempty"`
	Name       string           `json:"name"`
	A          int              `json:"a"`
	C          int              `json:"c"`
	D          int              `json:"d"`
	Miss       int              `json:"miss"`
	NoShoots   int              `json:"noShoots"`
	Popper     int              `json:"popper"`
	ProErrors  int              `json:"proErrors"`
	Time       float64          `json:"time"`
	HitFactor  string           `json:"hitFactor"`
	Percentage string           `json:"percentage"`
	State      model.ScoreState `json:"state"`
}

// Project keeps the scores of the given round, or all of them when round is
// 0, and returns them as rows sorted by id.
func Project(scores []model.Score, round int) []ScoreRow {
	kept := lo.Filter(scores, func(s model.Score, _ int) bool {
		return round == 0 || s.Round == round
	})
	rows := lo.Map(kept, func(s model.Score, _ int) ScoreRow {
		return projectScore(s, round)
	})
	slices.SortFunc(rows, func(a, b ScoreRow) int { return cmp.Compare(a.ID, b.ID) })
	return rows
}

func projectScore(s model.Score, round int) ScoreRow {
	row := ScoreRow{
		ID:         s.ID,
		Name:       DisplayName(s.Shooter.Name, s.State),
		A:          s.Alphas,
		C:          s.Charlies,
		D:          s.Deltas,
		Miss:       s.Misses,
		NoShoots:   s.Noshoots,
		Popper:     s.Poppers,
		ProErrors:  s.ProErrorCount,
		Time:       s.Time,
		HitFactor:  FormatHitFactor(s.HitFactor),
		Percentage: FormatPercentage(s.RoundPrecentage),
		State:      s.State,
	}
	if round == 0 {
		r := s.Round
		row.Round = &r
	}
	return row
}

// DisplayName appends the DQ or DNF marker to the shooter name.
func DisplayName(name string, state model.ScoreState) string {
	switch state {
	case model.ScoreStateDQ:
		return name + " (DQ)"
	case model.ScoreStateDidNotFinish:
		return name + " (DNF)"
	}
	return name
}

// FormatHitFactor renders the remote decimal string with two decimals.
// Unparseable input renders as 0.00.
func FormatHitFactor(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatPercentage renders a round percentage with one decimal and a % sign.
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// RowClass returns the row style for a score state.
func RowClass(state model.ScoreState) string {
	switch state {
	case model.ScoreStateDQ:
		return "dq"
	case model.ScoreStateDidNotFinish:
		return "dnf"
	case model.ScoreStateScored:
		return "scored"
	}
	return ""
}

// DetailPath is the relative link from a scorelist to one of its scores.
func DetailPath(scorelistID, scoreID int) string {
	return strconv.Itoa(scorelistID) + "/" + strconv.Itoa(scoreID)
}
