package site

import (
	"net/http"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/statistics"
	"github.com/okian/rangeboard/pkg/logger"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	m := filter.NewManager(r.Context(), r.URL, filter.WithLogger(h.log))
	view, err := h.deps.Statistics(r.Context(), m.Selection())
	status := http.StatusOK
	if err != nil {
		h.log.Warn(r.Context(), "statistics read failed", logger.Error(err))
		status = errorStatus(err)
	}

	body := StatisticsBody(view, err)
	if isFragment(r) {
		render(w, status, body)
		return
	}
	render(w, status, PageLayout("Statistics", Navbar("/statistics"), StatisticsContent(m.Location(), body)))
}

// handleStatisticsFilter applies one changed select to the current location.
// htmx callers get the new body and the location to replace; others are
// redirected.
func (h *Handler) handleStatisticsFilter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, http.StatusBadRequest, errorBox(err.Error()))
		return
	}
	current, err := r.URL.Parse(r.PostForm.Get("location"))
	if err != nil || current.Path != "/statistics" {
		current, _ = r.URL.Parse("/statistics")
	}

	m := filter.NewManager(r.Context(), current, filter.WithLogger(h.log))
	for _, d := range filter.Dimensions {
		if _, touched := r.PostForm[string(d)+"_present"]; !touched {
			continue
		}
		ids := make([]int, 0, len(r.PostForm[string(d)]))
		for _, raw := range r.PostForm[string(d)] {
			if id, err := strconv.Atoi(raw); err == nil {
				ids = append(ids, id)
			}
		}
		if err := m.Set(d, ids); err != nil {
			render(w, http.StatusBadRequest, errorBox(err.Error()))
			return
		}
	}

	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, m.Location(), http.StatusSeeOther)
		return
	}
	view, err := h.deps.Statistics(r.Context(), m.Selection())
	status := http.StatusOK
	if err != nil {
		status = errorStatus(err)
	}
	w.Header().Set("HX-Replace-Url", m.Location())
	render(w, status, StatisticsBody(view, err))
}

// StatisticsContent is the statistics page: the filter form around the
// swappable body.
func StatisticsContent(location string, body g.Node) g.Node {
	return Div(
		H1(Class("text-2xl font-bold text-white mb-6"), g.Text("Statistics")),
		Div(ID("statistics"), g.Attr("data-location", location), body),
	)
}

// StatisticsBody renders the filter selects, the summary and the hit-zone
// pie, or the inline error.
func StatisticsBody(view statistics.View, err error) g.Node {
	if err != nil {
		return errorBox(errorText(err))
	}
	return Div(Class("statistics-body"),
		filterForm(view.Selects),
		Div(Class("grid md:grid-cols-2 gap-6 mt-6"),
			summaryList(view.Summary),
			hitZonePie(view.HitZones),
		),
	)
}

func filterForm(selects []statistics.Select) g.Node {
	return Div(Class("flex flex-wrap gap-4"),
		g.Map(selects, func(s statistics.Select) g.Node {
			name := string(s.Dimension)
			return Form(Class("filter"), Method("post"), Action("/statistics/filter"),
				g.Attr("hx-post", "/statistics/filter"),
				g.Attr("hx-target", "#statistics"),
				g.Attr("hx-trigger", "change"),
				g.Attr("hx-vals", `js:{location: window.location.pathname + window.location.search}`),
				Input(Type("hidden"), Name(name+"_present"), Value("1")),
				Label(For("filter-"+name), Class("block text-sm text-slate-400"), g.Text(s.Title)),
				Select(ID("filter-"+name), Name(name), Multiple(), Class("bg-slate-900 rounded p-2 min-w-48"),
					g.Map(s.Options, func(o statistics.Option) g.Node {
						return Option(Value(strconv.Itoa(o.ID)), g.If(o.Selected, Selected()), g.Text(o.Label))
					}),
				),
			)
		}),
	)
}

func summaryList(lines []statistics.SummaryLine) g.Node {
	return Dl(Class("summary grid grid-cols-2 gap-2"),
		g.Map(lines, func(l statistics.SummaryLine) g.Node {
			return g.Group([]g.Node{
				Dt(Class("text-slate-400"), g.Text(l.Label)),
				Dd(Class("text-white tabular-nums"), g.Text(l.Value)),
			})
		}),
	)
}

// hitZonePie draws the pie as a conic gradient. Slices with an empty label
// are still drawn but not annotated.
func hitZonePie(zones []statistics.HitZone) g.Node {
	colors := map[string]string{
		"alpha": "#16a34a", "charlie": "#ca8a04", "delta": "#ea580c", "miss": "#dc2626", "noshoot": "#6b7280",
	}
	gradient := ""
	start := 0.0
	for _, z := range zones {
		if z.Share == 0 {
			continue
		}
		end := start + z.Share*100
		if gradient != "" {
			gradient += ", "
		}
		gradient += colors[z.Class] + " " + strconv.FormatFloat(start, 'f', 2, 64) + "% " + strconv.FormatFloat(end, 'f', 2, 64) + "%"
		start = end
	}
	if gradient == "" {
		gradient = "#1e293b 0% 100%"
	}
	return Div(Class("hit-zones"),
		Div(Class("w-48 h-48 rounded-full mx-auto"), Style("background: conic-gradient("+gradient+")")),
		Ul(Class("mt-4"),
			g.Map(zones, func(z statistics.HitZone) g.Node {
				return Li(Class("zone "+z.Class),
					Span(Class("inline-block w-3 h-3 mr-2 zone-"+z.Class)),
					g.Text(z.Name),
					g.If(z.Label != "", Span(Class("label ml-2 tabular-nums"), g.Text(z.Label))),
				)
			}),
		),
	)
}
