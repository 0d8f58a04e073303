package site

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"

	"github.com/okian/rangeboard/internal/domain/model"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) handleShooters(w http.ResponseWriter, r *http.Request) {
	shooters, err := h.deps.Shooters(r.Context())
	if err != nil {
		render(w, errorStatus(err), PageLayout("Shooters", Navbar("/shooters"), errorBox(errorText(err))))
		return
	}
	render(w, http.StatusOK, PageLayout("Shooters", Navbar("/shooters"), ShooterTable(shooters)))
}

// ShooterTable lists shooters by name.
func ShooterTable(shooters []model.Shooter) g.Node {
	sorted := slices.Clone(shooters)
	slices.SortStableFunc(sorted, func(a, b model.Shooter) int { return cmp.Compare(a.Name, b.Name) })
	return Div(
		H1(Class("text-2xl font-bold text-white mb-4"), g.Text("Shooters")),
		Table(ID("shooters"), Class("w-full text-sm"),
			THead(Tr(Th(Class("text-left p-2"), g.Text("Id")), Th(Class("text-left p-2"), g.Text("Name")), Th(Class("text-left p-2"), g.Text("Division")))),
			TBody(g.Map(sorted, func(s model.Shooter) g.Node {
				return Tr(Class("shooter"),
					Td(Class("p-2 tabular-nums"), g.Text(strconv.Itoa(s.ID))),
					Td(Class("p-2"), g.Text(s.Name)),
					Td(Class("p-2"), g.Text(s.Division)),
				)
			})),
		),
	)
}
