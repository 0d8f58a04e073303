package site_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/okian/rangeboard/internal/adapters/graphql"
	"github.com/okian/rangeboard/internal/adapters/http/site"
	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	mu        sync.Mutex
	failAll   error
	deleted   []int
	created   []stage.Form
	selection filter.Selection
	validator *stage.Validator
}

func newFakeDeps() *fakeDeps {
	v, err := stage.NewValidator()
	if err != nil {
		panic(err)
	}
	return &fakeDeps{validator: v}
}

func (f *fakeDeps) scorelist() model.Scorelist {
	return model.Scorelist{
		ID:       7,
		CreateAt: "2024-03-01T10:00:00Z",
		Rounds:   2,
		Stage:    model.StageRef{Name: "El Presidente", CreateAt: "2024-03-01T10:00:00Z"},
		Scores: []model.Score{
			{ID: 3, Round: 1, Alphas: 10, HitFactor: "5.1234", State: model.ScoreStateScored, Shooter: model.Shooter{Name: "Ann"}},
			{ID: 1, Round: 2, Alphas: 4, HitFactor: "oops", State: model.ScoreStateDQ, Shooter: model.Shooter{Name: "Bob"}},
		},
	}
}

func (f *fakeDeps) Scorelist(_ context.Context, id int) (model.Scorelist, error) {
	if f.failAll != nil {
		return model.Scorelist{}, f.failAll
	}
	if id != 7 {
		return model.Scorelist{}, &graphql.Error{Kind: graphql.ErrNotFound, Message: "scorelist not found"}
	}
	return f.scorelist(), nil
}

func (f *fakeDeps) ScorelistView(ctx context.Context, id, round int, ordering bool) (projector.ScorelistView, error) {
	sl, err := f.Scorelist(ctx, id)
	if err != nil {
		return projector.ScorelistView{}, err
	}
	return projector.View(sl, round, ordering), nil
}

func (f *fakeDeps) Stages(context.Context) ([]model.StageSummary, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	return []model.StageSummary{{ID: 4, Name: "Box Drill"}, {ID: 5, Name: "Speed Trap"}}, nil
}

func (f *fakeDeps) Stage(_ context.Context, id int) (model.Stage, error) {
	if f.failAll != nil {
		return model.Stage{}, f.failAll
	}
	return model.Stage{
		ID: id, Name: "Speed Trap", Description: "Run and gun", CreateAt: "2024-02-10T08:00:00Z",
		Papers: 6, Poppers: 2, MinRounds: 14, MaxScore: 70, StageType: stage.TypeMedium,
		Designer: model.Designer{Name: "Carol"},
	}, nil
}

func (f *fakeDeps) DeleteStage(_ context.Context, id int, confirmed bool) (int, error) {
	if !confirmed {
		return 0, stage.ErrInvalidForm
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return id, nil
}

func (f *fakeDeps) ValidateStage(form stage.Form) error {
	return f.validator.Validate(form)
}

func (f *fakeDeps) CreateStage(_ context.Context, form stage.Form) (int, error) {
	if err := f.validator.Validate(form); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, form)
	return 11, nil
}

func (f *fakeDeps) Statistics(_ context.Context, sel filter.Selection) (statistics.View, error) {
	f.mu.Lock()
	f.selection = sel
	f.mu.Unlock()
	if f.failAll != nil {
		return statistics.View{}, f.failAll
	}
	stat := model.GlobalStatistic{ShootersTotal: 4, AlphaZoneTotal: 6, CharlieZoneTotal: 4}
	catalog := model.Catalog{Scoreboards: []model.Scoreboard{{ID: 1, Name: "Club night"}}}
	return statistics.Assemble(stat, catalog, sel), nil
}

func (f *fakeDeps) Shooters(context.Context) ([]model.Shooter, error) {
	return []model.Shooter{{ID: 2, Name: "Zed", Division: "Open"}, {ID: 1, Name: "Amy", Division: "Production"}}, nil
}

func newRouter(deps *fakeDeps) http.Handler {
	r := chi.NewRouter()
	site.New(deps, "https://remote.example/").Register(r)
	return r
}

func do(h http.Handler, req *http.Request) (*httptest.ResponseRecorder, *goquery.Document) {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	So(err, ShouldBeNil)
	return w, doc
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNavigation(t *testing.T) {
	Convey("Given the site router", t, func() {
		h := newRouter(newFakeDeps())

		Convey("When the root is requested", func() {
			w, _ := do(h, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then it redirects to statistics", func() {
				So(w.Code, ShouldEqual, http.StatusFound)
				So(w.Header().Get("Location"), ShouldEqual, "/statistics")
			})
		})

		Convey("When an /api path is requested", func() {
			w, _ := do(h, httptest.NewRequest(http.MethodGet, "/api/rest/stage?id=4", nil))

			Convey("Then it is forwarded permanently to the remote service", func() {
				So(w.Code, ShouldEqual, http.StatusMovedPermanently)
				So(w.Header().Get("Location"), ShouldEqual, "https://remote.example/rest/stage?id=4")
			})
		})

		Convey("When the shooter list is requested", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/shooters", nil))

			Convey("Then shooters are listed by name", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("tr.shooter").Length(), ShouldEqual, 2)
				So(doc.Find("tr.shooter td").Eq(1).Text(), ShouldEqual, "Amy")
				So(doc.Find("nav a.text-cyan-400").Text(), ShouldEqual, "Shooters")
			})
		})
	})
}

func TestStatisticsPage(t *testing.T) {
	Convey("Given the site router", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("When the page is requested with a filter", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/statistics?scoreboard=%5B1%5D", nil))

			Convey("Then the summary, pie and selected option are rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("dl.summary dd").First().Text(), ShouldEqual, "4")
				So(doc.Find("li.zone.alpha span.label").Text(), ShouldEqual, "60%")
				So(doc.Find("li.zone.delta span.label").Length(), ShouldEqual, 0)
				So(doc.Find("select#filter-scoreboard option[selected]").Text(), ShouldEqual, "Club night")
				So(deps.selection.Get(filter.Scoreboard), ShouldResemble, []int{1})
			})
		})

		Convey("When a filter parameter is malformed", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/statistics?scoreboard=nope", nil))

			Convey("Then the page renders unfiltered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find(".error").Length(), ShouldEqual, 0)
				So(deps.selection.Get(filter.Scoreboard), ShouldBeEmpty)
			})
		})

		Convey("When htmx asks for the page", func() {
			req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
			req.Header.Set("HX-Request", "true")
			_, doc := do(h, req)

			Convey("Then only the body fragment is returned", func() {
				So(doc.Find("nav").Length(), ShouldEqual, 0)
				So(doc.Find(".statistics-body").Length(), ShouldEqual, 1)
			})
		})

		Convey("When the remote service fails", func() {
			deps.failAll = &graphql.Error{Kind: graphql.ErrTransport, Code: "transport", Message: "boom"}
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/statistics", nil))

			Convey("Then the serialized error is shown inline", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(doc.Find(".error").Text(), ShouldContainSubstring, "boom")
			})
		})

		Convey("When a select changes without htmx", func() {
			form := url.Values{"location": {"/statistics?stage=%5B5%5D"}, "scoreboard_present": {"1"}, "scoreboard": {"2", "1", "2"}}
			w, _ := do(h, postForm("/statistics/filter", form))

			Convey("Then the browser is sent to the new location", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				loc, err := url.Parse(w.Header().Get("Location"))
				So(err, ShouldBeNil)
				So(loc.Path, ShouldEqual, "/statistics")
				So(loc.Query().Get("scoreboard"), ShouldEqual, "[2,1]")
				So(loc.Query().Get("stage"), ShouldEqual, "[5]")
			})
		})

		Convey("When a select is cleared through htmx", func() {
			form := url.Values{"location": {"/statistics?scoreboard=%5B1%5D"}, "scoreboard_present": {"1"}}
			req := postForm("/statistics/filter", form)
			req.Header.Set("HX-Request", "true")
			w, doc := do(h, req)

			Convey("Then the parameter is dropped from the pushed location", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("HX-Replace-Url"), ShouldEqual, "/statistics")
				So(doc.Find(".statistics-body").Length(), ShouldEqual, 1)
				So(deps.selection.Get(filter.Scoreboard), ShouldBeEmpty)
			})
		})
	})
}

func TestScoringPages(t *testing.T) {
	Convey("Given the site router", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("When the overall tab is requested", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/7", nil))

			Convey("Then rows are sorted by id with state classes", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("h1").First().Text(), ShouldEqual, "2024-03-01 El Presidente")
				rows := doc.Find("#grid tbody tr")
				So(rows.Length(), ShouldEqual, 2)
				So(rows.First().AttrOr("data-id", ""), ShouldEqual, "1")
				So(rows.First().HasClass("dq"), ShouldBeTrue)
				So(rows.First().AttrOr("data-href", ""), ShouldEqual, "7/1")
				So(rows.First().Text(), ShouldContainSubstring, "Bob (DQ)")
				So(rows.First().Text(), ShouldContainSubstring, "0.00")
				So(doc.Find("#grid th").Text(), ShouldContainSubstring, "Round")
				So(doc.Find(".tab").Length(), ShouldEqual, 3)
			})

			Convey("Then the loaded grid is not paired with a loading notice", func() {
				So(doc.Find("#live-status").Length(), ShouldEqual, 1)
				So(doc.Find("#live-status").Text(), ShouldBeEmpty)
				So(doc.Find(".loading").Length(), ShouldEqual, 0)
			})
		})

		Convey("When a round is selected with ordering on", func() {
			_, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/7?round=1&ordering=true", nil))

			Convey("Then only that round is shown and rows can be dragged", func() {
				rows := doc.Find("#grid tbody tr")
				So(rows.Length(), ShouldEqual, 1)
				So(rows.AttrOr("draggable", ""), ShouldEqual, "true")
				So(doc.Find("#grid th").Text(), ShouldNotContainSubstring, "Round")
				So(doc.Find(".tab.active").Text(), ShouldEqual, "Round 1")
				So(doc.Find("#ordering").Text(), ShouldEqual, "Ordering: on")
			})
		})

		Convey("When the id is not a number", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/abc", nil))

			Convey("Then an inline error is shown", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(doc.Find(".error").Text(), ShouldEqual, "Error: invalid scorelist id")
			})
		})

		Convey("When the scorelist does not exist", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/8", nil))

			Convey("Then not found is reported", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(doc.Find(".error").Text(), ShouldContainSubstring, "scorelist not found")
			})
		})

		Convey("When a score detail is requested", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/7/3", nil))

			Convey("Then the run is shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("#score h1").Text(), ShouldEqual, "Ann")
				So(doc.Find("#score dd").Text(), ShouldContainSubstring, "5.12")
			})
		})

		Convey("When the score is not on the scorelist", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/scoring/7/99", nil))

			Convey("Then not found is reported", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(doc.Find(".error").Text(), ShouldEqual, "Error: score not found")
			})
		})
	})
}

func TestStagePages(t *testing.T) {
	Convey("Given the site router", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("When the stage list is requested", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/stages", nil))

			Convey("Then each stage links to its detail page", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("li.stage").Length(), ShouldEqual, 2)
				So(doc.Find("li.stage a").Last().AttrOr("href", ""), ShouldEqual, "/stages/5")
			})
		})

		Convey("When a stage is requested", func() {
			w, doc := do(h, httptest.NewRequest(http.MethodGet, "/stages/5", nil))

			Convey("Then its attributes and the delete button are shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("#stage h1").Text(), ShouldEqual, "Speed Trap")
				So(doc.Find("#stage dd").Text(), ShouldContainSubstring, "Carol")
				So(doc.Find("form#delete").AttrOr("action", ""), ShouldEqual, "/stages/5/delete")
				So(doc.Find("form#delete input[name=confirm]").Length(), ShouldEqual, 0)
			})
		})

		Convey("When delete is posted without confirmation", func() {
			w, doc := do(h, postForm("/stages/5/delete", url.Values{}))

			Convey("Then the confirmation prompt is shown and nothing is deleted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("form.confirm input[name=confirm]").AttrOr("value", ""), ShouldEqual, "true")
				So(deps.deleted, ShouldBeEmpty)
			})
		})

		Convey("When delete is confirmed", func() {
			w, _ := do(h, postForm("/stages/5/delete", url.Values{"confirm": {"true"}}))

			Convey("Then the stage is deleted and the user sent to statistics", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(w.Header().Get("Location"), ShouldEqual, "/statistics")
				So(deps.deleted, ShouldResemble, []int{5})
			})
		})

		Convey("When the new stage form is requested", func() {
			_, doc := do(h, httptest.NewRequest(http.MethodGet, "/stages/new", nil))

			Convey("Then the empty form is shown", func() {
				So(doc.Find("form#stage-form input[name=name]").Length(), ShouldEqual, 1)
				So(doc.Find(".violation").Length(), ShouldEqual, 0)
			})
		})

		Convey("When an invalid stage is submitted", func() {
			form := url.Values{"name": {" "}, "designer": {"2"}, "papers": {"x"}, "gunCondition": {"1"}}
			w, doc := do(h, postForm("/stages/new", form))

			Convey("Then every violation is shown and nothing is created", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(doc.Find(`.violation[data-field="papers"]`).Length(), ShouldEqual, 1)
				So(doc.Find(`.violation[data-field="name"]`).Length(), ShouldEqual, 1)
				So(deps.created, ShouldBeEmpty)
			})
		})

		Convey("When a valid stage is submitted", func() {
			form := url.Values{"name": {"Box Drill"}, "designer": {"2"}, "papers": {"8"}, "poppers": {"1"}, "gunCondition": {"2"}}
			w, _ := do(h, postForm("/stages/new", form))

			Convey("Then the user is sent to the new stage", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(w.Header().Get("Location"), ShouldEqual, "/stages/11")
				So(deps.created, ShouldHaveLength, 1)
				So(deps.created[0].Papers, ShouldEqual, 8)
			})
		})
	})
}
