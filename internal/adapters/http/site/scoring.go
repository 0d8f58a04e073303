package site

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/samber/lo"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) handleScorelist(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "scorelistId", ErrInvalidScorelistID)
	if err != nil {
		render(w, errorStatus(err), PageLayout("Scorelist", Navbar(""), errorBox(err.Error())))
		return
	}
	q := r.URL.Query()
	round, _ := strconv.Atoi(q.Get("round"))
	ordering, _ := strconv.ParseBool(q.Get("ordering"))

	view, err := h.deps.ScorelistView(r.Context(), id, max(round, 0), ordering)
	if err != nil {
		h.log.Warn(r.Context(), "scorelist read failed", logger.Int("scorelist_id", id), logger.Error(err))
		render(w, errorStatus(err), PageLayout("Scorelist", Navbar(""), errorBox(errorText(err))))
		return
	}
	render(w, http.StatusOK, PageLayout(view.Title, Navbar(""), ScorelistContent(view)))
}

// ScorelistContent renders the round tabs, the ordering toggle and the grid.
// The live script keeps the grid current and sends viewer interactions.
func ScorelistContent(v projector.ScorelistView) g.Node {
	return Div(ID("scorelist"), g.Attr("data-id", strconv.Itoa(v.ID)),
		g.Attr("data-round", strconv.Itoa(v.Round)), g.Attr("data-ordering", strconv.FormatBool(v.Ordering)),
		H1(Class("text-2xl font-bold text-white mb-4"), g.Text(v.Title)),
		Div(Class("flex items-center gap-4 mb-4"),
			roundTabs(v),
			A(ID("ordering"), Class("toggle px-3 py-1 rounded border border-slate-700"),
				Href(fmt.Sprintf("?round=%d&ordering=%t", v.Round, !v.Ordering)),
				g.Textf("Ordering: %s", lo.Ternary(v.Ordering, "on", "off")),
			),
			Button(ID("add-round"), Type("button"), Class("px-3 py-1 rounded bg-cyan-700 text-white"), g.Text("Add round")),
		),
		Div(ID("live-status"), Class("text-sm text-slate-500 mb-2")),
		ScoreGrid(v),
		Script(g.Raw(liveScript)),
	)
}

func roundTabs(v projector.ScorelistView) g.Node {
	return Div(Class("tabs flex gap-1"), g.Attr("role", "tablist"),
		g.Map(v.Tabs, func(t projector.Tab) g.Node {
			cls := "tab px-3 py-1 rounded"
			if t.Value == v.Round {
				cls += " active bg-cyan-400/10 text-cyan-400"
			}
			return A(Class(cls), g.Attr("role", "tab"), g.Attr("data-round", strconv.Itoa(t.Value)),
				Href(fmt.Sprintf("?round=%d&ordering=%t", t.Value, v.Ordering)), g.Text(t.Label))
		}),
	)
}

// ScoreGrid renders the visible columns and one row per score. Rows link to
// the score detail and are draggable while ordering is on.
func ScoreGrid(v projector.ScorelistView) g.Node {
	cols := lo.Filter(v.Columns, func(c projector.Column, _ int) bool { return !c.Hidden })
	return Table(ID("grid"), Class("w-full text-sm"),
		THead(Tr(g.Map(cols, func(c projector.Column) g.Node {
			return Th(Class("text-left p-2"), g.Text(c.Field))
		}))),
		TBody(g.Map(v.Rows, func(row projector.ScoreRow) g.Node {
			return Tr(Class("row "+projector.RowClass(row.State)),
				g.Attr("data-id", strconv.Itoa(row.ID)),
				g.Attr("data-href", projector.DetailPath(v.ID, row.ID)),
				g.If(v.Ordering, g.Attr("draggable", "true")),
				g.Map(cols, func(c projector.Column) g.Node {
					return Td(Class("p-2 tabular-nums"), g.Text(cellValue(row, c.Field)))
				}),
			)
		})),
	)
}

func cellValue(row projector.ScoreRow, field string) string {
	switch field {
	case "Id":
		return strconv.Itoa(row.ID)
	case "Round":
		if row.Round == nil {
			return ""
		}
		return strconv.Itoa(*row.Round)
	case "Name":
		return row.Name
	case "A":
		return strconv.Itoa(row.A)
	case "C":
		return strconv.Itoa(row.C)
	case "D":
		return strconv.Itoa(row.D)
	case "Miss":
		return strconv.Itoa(row.Miss)
	case "NoShoots":
		return strconv.Itoa(row.NoShoots)
	case "Popper":
		return strconv.Itoa(row.Popper)
	case "ProErrors":
		return strconv.Itoa(row.ProErrors)
	case "Time":
		return strconv.FormatFloat(row.Time, 'f', -1, 64)
	case "HitFactor":
		return row.HitFactor
	case "Percentage":
		return row.Percentage
	case "State":
		return string(row.State)
	}
	return ""
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "scorelistId", ErrInvalidScorelistID)
	if err == nil {
		var scoreID int
		scoreID, err = routeID(r, "scoreId", ErrInvalidScoreID)
		if err == nil {
			h.renderScore(w, r, id, scoreID)
			return
		}
	}
	render(w, errorStatus(err), PageLayout("Score", Navbar(""), errorBox(err.Error())))
}

func (h *Handler) renderScore(w http.ResponseWriter, r *http.Request, scorelistID, scoreID int) {
	sl, err := h.deps.Scorelist(r.Context(), scorelistID)
	if err != nil {
		render(w, errorStatus(err), PageLayout("Score", Navbar(""), errorBox(errorText(err))))
		return
	}
	score, ok := lo.Find(sl.Scores, func(s model.Score) bool { return s.ID == scoreID })
	if !ok {
		render(w, http.StatusNotFound, PageLayout("Score", Navbar(""), errorBox(ErrScoreNotFound.Error())))
		return
	}
	render(w, http.StatusOK, PageLayout(score.Shooter.Name, Navbar(""), ScoreContent(sl, score)))
}

// ScoreContent renders one run.
func ScoreContent(sl model.Scorelist, s model.Score) g.Node {
	line := func(label, value string) g.Node {
		return g.Group([]g.Node{Dt(Class("text-slate-400"), g.Text(label)), Dd(Class("text-white"), g.Text(value))})
	}
	return Div(ID("score"),
		A(Href(fmt.Sprintf("/scoring/%d", sl.ID)), Class("text-cyan-400"), g.Text(sl.Title())),
		H1(Class("text-2xl font-bold text-white my-4"), g.Text(projector.DisplayName(s.Shooter.Name, s.State))),
		Dl(Class("grid grid-cols-2 gap-2"),
			line("Round", strconv.Itoa(s.Round)),
			line("A", strconv.Itoa(s.Alphas)),
			line("C", strconv.Itoa(s.Charlies)),
			line("D", strconv.Itoa(s.Deltas)),
			line("Miss", strconv.Itoa(s.Misses)),
			line("No-shoots", strconv.Itoa(s.Noshoots)),
			line("Poppers", strconv.Itoa(s.Poppers)),
			line("Pro errors", strconv.Itoa(s.ProErrorCount)),
			line("Time", strconv.FormatFloat(s.Time, 'f', -1, 64)),
			line("Hit factor", projector.FormatHitFactor(s.HitFactor)),
			line("Percentage", projector.FormatPercentage(s.RoundPrecentage)),
			line("State", string(s.State)),
		),
	)
}

const liveScript = `
(function () {
	const root = document.getElementById('scorelist');
	const status = document.getElementById('live-status');
	let round = Number(root.dataset.round), ordering = root.dataset.ordering === 'true';
	const proto = location.protocol === 'https:' ? 'wss' : 'ws';
	const ws = new WebSocket(proto + '://' + location.host + '/v1/scorelists/' + root.dataset.id +
		'/live?round=' + round + '&ordering=' + ordering);
	const send = (m) => ws.readyState === 1 && ws.send(JSON.stringify(m));

	function renderGrid(view) {
		const cols = view.columns.filter(c => !c.hidden).map(c => c.field);
		const keys = {Id: 'id', Round: 'round', Name: 'name', A: 'a', C: 'c', D: 'd', Miss: 'miss',
			NoShoots: 'noShoots', Popper: 'popper', ProErrors: 'proErrors', Time: 'time',
			HitFactor: 'hitFactor', Percentage: 'percentage', State: 'state'};
		const grid = document.getElementById('grid');
		grid.tHead.innerHTML = '<tr>' + cols.map(c => '<th class="text-left p-2">' + c + '</th>').join('') + '</tr>';
		const body = grid.tBodies[0];
		body.innerHTML = '';
		for (const row of view.rows) {
			const tr = document.createElement('tr');
			tr.className = 'row ' + ({DQ: 'dq', DidNotFinish: 'dnf', Scored: 'scored'}[row.state] || '');
			tr.dataset.id = row.id;
			tr.dataset.href = view.id + '/' + row.id;
			tr.draggable = view.ordering;
			for (const c of cols) {
				const td = document.createElement('td');
				td.className = 'p-2 tabular-nums';
				td.textContent = row[keys[c]] ?? '';
				tr.appendChild(td);
			}
			body.appendChild(tr);
		}
		document.getElementById('ordering').textContent = 'Ordering: ' + (view.ordering ? 'on' : 'off');
		document.querySelectorAll('.tab').forEach(t => t.classList.toggle('active', Number(t.dataset.round) === view.round));
	}

	ws.onmessage = (ev) => {
		const m = JSON.parse(ev.data);
		if (m.type === 'state') {
			const grid = document.getElementById('grid');
			if (m.status === 'loaded') { status.textContent = ''; grid.hidden = false; renderGrid(m.view); }
			else if (m.status === 'error') { grid.hidden = true; status.textContent = 'Error: ' + JSON.stringify(m.error); }
			else if (grid.hidden) { status.textContent = 'Loading...'; }
		} else if (m.type === 'error') {
			status.textContent = 'Error: ' + m.error.message;
		}
	};
	ws.onclose = () => { status.textContent = 'Disconnected'; };

	document.querySelectorAll('.tab').forEach(t => t.addEventListener('click', (e) => {
		e.preventDefault();
		round = Number(t.dataset.round);
		send({type: 'selectRound', round: round});
	}));
	document.getElementById('ordering').addEventListener('click', (e) => {
		e.preventDefault();
		ordering = !ordering;
		send({type: 'toggleOrdering'});
	});
	document.getElementById('add-round').addEventListener('click', () => send({type: 'addRound'}));

	const body = document.getElementById('grid').tBodies[0];
	let moved = 0;
	body.addEventListener('click', (e) => {
		const tr = e.target.closest('tr');
		if (tr) location.href = location.pathname.replace(/\/$/, '') + '/' + tr.dataset.id;
	});
	body.addEventListener('dragstart', (e) => {
		const tr = e.target.closest('tr');
		moved = tr ? Number(tr.dataset.id) : 0;
		if (tr) tr.classList.add('dragging');
	});
	body.addEventListener('dragover', (e) => e.preventDefault());
	body.addEventListener('drop', (e) => {
		e.preventDefault();
		const tr = e.target.closest('tr');
		send({type: 'dragEnd', moved: moved, target: tr ? Number(tr.dataset.id) : 0});
	});
	body.addEventListener('dragend', (e) => e.target.classList && e.target.classList.remove('dragging'));
})();
`
