// Package statistics assembles the aggregate report page: the remote filter
// built from the URL selection, the summary lines, hit-zone shares and the
// option lists of the filter selects.
package statistics

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/samber/lo"
)

// Filter is the globalStatistic filter input. Empty dimensions are omitted
// so the remote service treats them as unfiltered.
type Filter struct {
	ScoreboardID []int `json:"scoreboardId,omitempty"`
	ScorelistID  []int `json:"scorelistId,omitempty"`
	StageID      []int `json:"stageId,omitempty"`
}

// FilterFromSelection maps a URL selection to the remote filter.
func FilterFromSelection(sel filter.Selection) Filter {
	return Filter{
		ScoreboardID: filter.Normalize(sel.Get(filter.Scoreboard)),
		ScorelistID:  filter.Normalize(sel.Get(filter.Scorelist)),
		StageID:      filter.Normalize(sel.Get(filter.Stage)),
	}
}

// IsEmpty reports whether no dimension is filtered.
func (f Filter) IsEmpty() bool {
	return len(f.ScoreboardID) == 0 && len(f.ScorelistID) == 0 && len(f.StageID) == 0
}

// HitZone is one pie slice.
type HitZone struct {
	Name  string  `json:"name"`
	Value int     `json:"value"`
	Share float64 `json:"share"`
	Label string  `json:"label"`
	Class string  `json:"class"`
}

// HitZones returns the five hit-zone slices in fixed order. Label is the
// share as a whole percentage, or "" for a zero share or an empty total.
func HitZones(stat model.GlobalStatistic) []HitZone {
	zones := []HitZone{
		{Name: "Alpha", Value: stat.AlphaZoneTotal, Class: "alpha"},
		{Name: "Charlie", Value: stat.CharlieZoneTotal, Class: "charlie"},
		{Name: "Delta", Value: stat.DeltaZoneTotal, Class: "delta"},
		{Name: "Miss", Value: stat.MissTotal, Class: "miss"},
		{Name: "No Shoot", Value: stat.NoShootTotal, Class: "noshoot"},
	}
	total := lo.SumBy(zones, func(z HitZone) int { return z.Value })
	if total == 0 {
		return zones
	}
	for i := range zones {
		zones[i].Share = float64(zones[i].Value) / float64(total)
		zones[i].Label = ZoneLabel(zones[i].Share)
	}
	return zones
}

// ZoneLabel renders a share in [0,1] as "N%", or "" when it is zero.
func ZoneLabel(share float64) string {
	if share == 0 || math.IsNaN(share) {
		return ""
	}
	return strconv.Itoa(int(math.Round(share*100))) + "%"
}

// SummaryLine is one labelled figure of the report.
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary renders the headline figures.
func Summary(stat model.GlobalStatistic) []SummaryLine {
	return []SummaryLine{
		{Label: "Joined shooter", Value: strconv.Itoa(stat.ShootersTotal)},
		{Label: "Total runs", Value: strconv.Itoa(stat.RunsTotal)},
		{Label: "Total scored stages", Value: strconv.Itoa(stat.StagesTotal)},
		{Label: "Total DQ", Value: strconv.Itoa(stat.DQTotal)},
		{Label: "Total DNF", Value: strconv.Itoa(stat.DNFTotal)},
		{Label: "Total pro errors", Value: strconv.Itoa(stat.ProErrorTotal)},
		{Label: "Total completed", Value: strconv.Itoa(stat.FinishedTotal)},
		{Label: "Total poppers", Value: strconv.Itoa(stat.PopperTotal)},
		{Label: "Average hit-factor", Value: fmt.Sprintf("%.3f", stat.AverageHitFactor)},
		{Label: "Average accuracy", Value: fmt.Sprintf("%.2f%%", stat.AverageAccuracy)},
	}
}

// Option is one entry of a filter select.
type Option struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Select is a filter select bound to one dimension.
type Select struct {
	Dimension filter.Dimension `json:"dimension"`
	Title     string           `json:"title"`
	Options   []Option         `json:"options"`
}

// Selected returns the labels of the selected options.
func (s Select) Selected() []string {
	return lo.FilterMap(s.Options, func(o Option, _ int) (string, bool) { return o.Label, o.Selected })
}

// ScorelistLabel is "<date> <stage name>".
func ScorelistLabel(sl model.ScorelistSummary) string {
	return model.DisplayDate(sl.CreateAt) + " " + sl.Stage.Name
}

// Selects builds the three filter selects from the catalog.
func Selects(catalog model.Catalog, sel filter.Selection) []Select {
	return []Select{
		{
			Dimension: filter.Scoreboard,
			Title:     "Scoreboard",
			Options: lo.Map(catalog.Scoreboards, func(sb model.Scoreboard, _ int) Option {
				return Option{ID: sb.ID, Label: sb.Name, Selected: sel.Contains(filter.Scoreboard, sb.ID)}
			}),
		},
		{
			Dimension: filter.Scorelist,
			Title:     "Scorelist",
			Options: lo.Map(catalog.Scorelists, func(sl model.ScorelistSummary, _ int) Option {
				return Option{ID: sl.ID, Label: ScorelistLabel(sl), Selected: sel.Contains(filter.Scorelist, sl.ID)}
			}),
		},
		{
			Dimension: filter.Stage,
			Title:     "Stage",
			Options: lo.Map(catalog.Stages, func(st model.StageSummary, _ int) Option {
				return Option{ID: st.ID, Label: st.Name, Selected: sel.Contains(filter.Stage, st.ID)}
			}),
		},
	}
}

// View is the assembled statistics page.
type View struct {
	Summary  []SummaryLine `json:"summary"`
	HitZones []HitZone     `json:"hitZones"`
	Selects  []Select      `json:"selects"`
}

// Assemble builds the page view from a freshly fetched statistic.
func Assemble(stat model.GlobalStatistic, catalog model.Catalog, sel filter.Selection) View {
	return View{
		Summary:  Summary(stat),
		HitZones: HitZones(stat),
		Selects:  Selects(catalog, sel),
	}
}
