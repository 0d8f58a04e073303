package projector

import "strconv"

// Column describes one grid column.
type Column struct {
	Field   string `json:"field"`
	Hidden  bool   `json:"hidden,omitempty"`
	Pinned  bool   `json:"pinned,omitempty"`
	RowDrag bool   `json:"rowDrag,omitempty"`
}

var columnFields = []string{
	"Id", "Round", "Name", "A", "C", "D", "Miss", "NoShoots",
	"Popper", "ProErrors", "Time", "HitFactor", "Percentage", "State",
}

// Columns returns the grid columns for the selected round. Id and State are
// always hidden; Round is only shown on the overall tab. Name becomes the
// drag handle while ordering is enabled.
func Columns(round int, ordering bool) []Column {
	cols := make([]Column, 0, len(columnFields))
	for _, f := range columnFields {
		c := Column{Field: f}
		switch f {
		case "Id":
			c.Hidden, c.Pinned = true, true
		case "Round":
			c.Hidden, c.Pinned = round != 0, true
		case "Name":
			c.Pinned, c.RowDrag = true, ordering
		case "State":
			c.Hidden = true
		}
		cols = append(cols, c)
	}
	return cols
}

// Tab is one round selector.
type Tab struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Tabs returns "Overall" followed by one tab per round.
func Tabs(rounds int) []Tab {
	tabs := make([]Tab, 0, max(rounds, 0)+1)
	tabs = append(tabs, Tab{Label: "Overall", Value: 0})
	for i := 1; i <= rounds; i++ {
		tabs = append(tabs, Tab{Label: "Round " + strconv.Itoa(i), Value: i})
	}
	return tabs
}
