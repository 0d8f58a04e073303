package site

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/pkg/logger"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) handleStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.deps.Stages(r.Context())
	if err != nil {
		render(w, errorStatus(err), PageLayout("Stages", Navbar("/stages"), errorBox(errorText(err))))
		return
	}
	render(w, http.StatusOK, PageLayout("Stages", Navbar("/stages"), StageList(stages)))
}

// StageList links every stage to its detail page.
func StageList(stages []model.StageSummary) g.Node {
	return Div(
		H1(Class("text-2xl font-bold text-white mb-4"), g.Text("Stages")),
		g.If(len(stages) == 0, P(Class("empty text-slate-500"), g.Text("No stages yet."))),
		Ul(ID("stages"),
			g.Map(stages, func(st model.StageSummary) g.Node {
				return Li(Class("stage py-1"), A(Href(fmt.Sprintf("/stages/%d", st.ID)), Class("text-cyan-400"), g.Text(st.Name)))
			}),
		),
	)
}

func (h *Handler) handleStage(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "stageId", ErrInvalidStageID)
	if err != nil {
		render(w, errorStatus(err), PageLayout("Stage", Navbar(""), errorBox(err.Error())))
		return
	}
	st, err := h.deps.Stage(r.Context(), id)
	if err != nil {
		h.log.Warn(r.Context(), "stage read failed", logger.Int("stage_id", id), logger.Error(err))
		render(w, errorStatus(err), PageLayout("Stage", Navbar(""), errorBox(errorText(err))))
		return
	}
	render(w, http.StatusOK, PageLayout(st.Name, Navbar(""), StageContent(st, false)))
}

// handleDeleteStage deletes once the form carries confirm=true. Without it
// the stage is shown again with the confirmation prompt.
func (h *Handler) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r, "stageId", ErrInvalidStageID)
	if err != nil {
		render(w, errorStatus(err), PageLayout("Stage", Navbar(""), errorBox(err.Error())))
		return
	}
	if err := r.ParseForm(); err != nil {
		render(w, http.StatusBadRequest, PageLayout("Stage", Navbar(""), errorBox(err.Error())))
		return
	}
	confirmed, _ := strconv.ParseBool(r.PostForm.Get("confirm"))
	if !confirmed {
		st, err := h.deps.Stage(r.Context(), id)
		if err != nil {
			render(w, errorStatus(err), PageLayout("Stage", Navbar(""), errorBox(errorText(err))))
			return
		}
		render(w, http.StatusOK, PageLayout(st.Name, Navbar(""), StageContent(st, true)))
		return
	}
	if _, err := h.deps.DeleteStage(r.Context(), id, true); err != nil {
		render(w, errorStatus(err), PageLayout("Stage", Navbar(""), errorBox(errorText(err))))
		return
	}
	h.log.Info(r.Context(), "stage deleted", logger.Int("stage_id", id))
	http.Redirect(w, r, "/statistics", http.StatusSeeOther)
}

// StageContent renders a stage. With confirm set the delete button asks
// for confirmation instead of opening the prompt.
func StageContent(st model.Stage, confirm bool) g.Node {
	line := func(label, value string) g.Node {
		return g.Group([]g.Node{Dt(Class("text-slate-400"), g.Text(label)), Dd(Class("text-white"), g.Text(value))})
	}
	action := fmt.Sprintf("/stages/%d/delete", st.ID)
	return Div(ID("stage"),
		H1(Class("text-2xl font-bold text-white mb-4"), g.Text(st.Name)),
		g.If(st.Description != "", P(Class("description mb-4"), g.Text(st.Description))),
		Dl(Class("grid grid-cols-2 gap-2"),
			line("Designer", st.Designer.Name),
			line("Created", model.DisplayDate(st.CreateAt)),
			line("Papers", strconv.Itoa(st.Papers)),
			line("No-shoots", strconv.Itoa(st.Noshoots)),
			line("Poppers", strconv.Itoa(st.Poppers)),
			line("Max score", strconv.Itoa(st.MaxScore)),
			line("Min rounds", strconv.Itoa(st.MinRounds)),
			line("Stage type", st.StageType),
		),
		g.If(!confirm,
			Form(ID("delete"), Class("mt-6"), Method("post"), Action(action),
				Button(Type("submit"), Class("px-3 py-1 rounded border border-red-800 text-red-400"), g.Text("Delete")),
			),
		),
		g.If(confirm,
			Form(ID("delete"), Class("confirm mt-6"), Method("post"), Action(action),
				P(Class("text-red-400 mb-2"), g.Textf("Delete stage %q? This cannot be undone.", st.Name)),
				Input(Type("hidden"), Name("confirm"), Value("true")),
				Button(Type("submit"), Class("px-3 py-1 rounded bg-red-700 text-white"), g.Text("Confirm delete")),
				A(Href(fmt.Sprintf("/stages/%d", st.ID)), Class("ml-4 text-slate-400"), g.Text("Cancel")),
			),
		),
	)
}

func (h *Handler) handleNewStage(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, PageLayout("New stage", Navbar("/stages/new"), StageForm(stage.Form{GunCondition: 1}, nil)))
}

// handleCreateStage parses and submits the form. Rejected forms are shown
// again with every violation next to the fields.
func (h *Handler) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, http.StatusBadRequest, PageLayout("New stage", Navbar("/stages/new"), errorBox(err.Error())))
		return
	}
	f, bad := stage.ParseForm(r.PostForm)
	if len(bad) > 0 {
		var ve *stage.ValidationError
		if errors.As(h.deps.ValidateStage(f), &ve) {
			bad = append(bad, ve.Violations...)
		}
		render(w, http.StatusUnprocessableEntity, PageLayout("New stage", Navbar("/stages/new"), StageForm(f, bad)))
		return
	}
	id, err := h.deps.CreateStage(r.Context(), f)
	var ve *stage.ValidationError
	switch {
	case errors.As(err, &ve):
		render(w, http.StatusUnprocessableEntity, PageLayout("New stage", Navbar("/stages/new"), StageForm(f, ve.Violations)))
		return
	case err != nil:
		h.log.Warn(r.Context(), "create stage failed", logger.Error(err))
		render(w, errorStatus(err), PageLayout("New stage", Navbar("/stages/new"),
			Div(errorBox(errorText(err)), StageForm(f, nil))))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/stages/%d", id), http.StatusSeeOther)
}

// StageForm renders the create form with the derived attributes and any
// violations.
func StageForm(f stage.Form, violations []stage.Violation) g.Node {
	messages := map[string][]string{}
	for _, v := range violations {
		messages[v.Field] = append(messages[v.Field], v.Message)
	}
	field := func(name, label, typ, value string) g.Node {
		return Div(Class("field mb-3"),
			Label(For("stage-"+name), Class("block text-sm text-slate-400"), g.Text(label)),
			Input(ID("stage-"+name), Name(name), Type(typ), Value(value), Class("bg-slate-900 rounded p-2 w-full")),
			g.Map(messages[name], func(m string) g.Node {
				return P(Class("violation text-sm text-red-400"), g.Attr("data-field", name), g.Text(m))
			}),
		)
	}
	num := func(n int) string { return strconv.Itoa(n) }
	attrs := f.Attributes()
	return Form(ID("stage-form"), Method("post"), Action("/stages/new"), Class("max-w-xl"),
		H1(Class("text-2xl font-bold text-white mb-4"), g.Text("New stage")),
		field("name", "Name", "text", f.Name),
		Div(Class("field mb-3"),
			Label(For("stage-description"), Class("block text-sm text-slate-400"), g.Text("Description")),
			Textarea(ID("stage-description"), Name("description"), Class("bg-slate-900 rounded p-2 w-full"), g.Text(f.Description)),
		),
		field("designer", "Designer id", "number", num(f.DesignerID)),
		field("papers", "Papers", "number", num(f.Papers)),
		field("noshoots", "No-shoots", "number", num(f.Noshoots)),
		field("poppers", "Poppers", "number", num(f.Poppers)),
		field("gunCondition", "Gun condition", "number", num(f.GunCondition)),
		field("walkthroughTime", "Walkthrough time", "number", num(f.WalkthroughTime)),
		Dl(Class("attributes grid grid-cols-2 gap-2 my-4"),
			Dt(g.Text("Min rounds")), Dd(g.Text(num(attrs.MinRounds))),
			Dt(g.Text("Max score")), Dd(g.Text(num(attrs.MaxScore))),
			Dt(g.Text("Stage type")), Dd(g.Text(attrs.StageType)),
		),
		Button(Type("submit"), Class("px-3 py-1 rounded bg-cyan-700 text-white"), g.Text("Create")),
	)
}
