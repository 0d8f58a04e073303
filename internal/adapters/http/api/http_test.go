package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/okian/rangeboard/internal/adapters/graphql"
	"github.com/okian/rangeboard/internal/adapters/http/api"
	service "github.com/okian/rangeboard/internal/app"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
	"github.com/okian/rangeboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockRemote struct {
	mu      sync.Mutex
	failOn  string
	swaps   [][2]int
	deleted []int
	filters []statistics.Filter
}

func (m *mockRemote) fail(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == op {
		return &graphql.Error{Kind: graphql.ErrTransport, Code: "transport", Operation: op, Message: "connection refused"}
	}
	return nil
}

func (m *mockRemote) Scorelist(_ context.Context, id int) (model.Scorelist, error) {
	if err := m.fail("findUniqueScorelist"); err != nil {
		return model.Scorelist{}, err
	}
	if id != 7 {
		return model.Scorelist{}, &graphql.Error{Kind: graphql.ErrNotFound, Code: "not_found", Operation: "findUniqueScorelist", Message: "not found"}
	}
	return model.Scorelist{
		ID:     7,
		Rounds: 2,
		Stage:  model.StageRef{Name: "Speed", CreateAt: "2024-03-01T10:00:00Z"},
		Scores: []model.Score{
			{ID: 2, Round: 2, HitFactor: "3.456", Shooter: model.Shooter{Name: "B"}, State: model.ScoreStateDQ},
			{ID: 1, Round: 1, HitFactor: "5", RoundPrecentage: 100, Shooter: model.Shooter{Name: "A"}, State: model.ScoreStateScored},
		},
	}, nil
}

func (m *mockRemote) Catalog(context.Context) (model.Catalog, error) {
	return model.Catalog{Stages: []model.StageSummary{{ID: 4, Name: "Speed"}}}, nil
}

func (m *mockRemote) SwapID(_ context.Context, id1, id2 int) error {
	if err := m.fail("swapId"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swaps = append(m.swaps, [2]int{id1, id2})
	return nil
}

func (m *mockRemote) Stage(_ context.Context, id int) (model.Stage, error) {
	return model.Stage{ID: id, Name: "Speed", Papers: 4}, nil
}

func (m *mockRemote) DeleteStage(_ context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return id, nil
}

func (m *mockRemote) CreateStage(context.Context, stage.CreateInput) (int, error) {
	return 11, nil
}

func (m *mockRemote) SetRounds(context.Context, int, int) error {
	return m.fail("updateOneScorelist")
}

func (m *mockRemote) GlobalStatistic(_ context.Context, f statistics.Filter) (model.GlobalStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	return model.GlobalStatistic{ShootersTotal: 2, AlphaZoneTotal: 1, CharlieZoneTotal: 1}, nil
}

func (m *mockRemote) Shooters(context.Context) ([]model.Shooter, error) {
	return []model.Shooter{{ID: 1, Name: "A", Division: "Open"}}, nil
}

func (m *mockRemote) swapCalls() [][2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]int(nil), m.swaps...)
}

func (m *mockRemote) deletedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.deleted...)
}

func (m *mockRemote) seenFilters() []statistics.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]statistics.Filter(nil), m.filters...)
}

func (m *mockRemote) setFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = op
}

func newTestServer(remote *mockRemote) (*httptest.Server, func()) {
	svc := service.New(remote, service.WithLogger(logger.Nop()))
	So(svc.Start(context.Background()), ShouldBeNil)
	r := chi.NewRouter()
	api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Register(r)
	ts := httptest.NewServer(r)
	return ts, func() {
		ts.Close()
		svc.Stop()
	}
}

func do(ts *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	So(err, ShouldBeNil)
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestServerRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		remote := &mockRemote{}
		ts, stop := newTestServer(remote)
		defer stop()

		Convey("When the health endpoint is requested", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then Prometheus metrics are served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/plain")
			})
		})

		Convey("When the stats endpoint is requested", func() {
			resp, body := do(ts, http.MethodGet, "/stats", "")

			Convey("Then the service stats are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["started"], ShouldEqual, true)
			})
		})

		Convey("When a scorelist round is requested", func() {
			resp, body := do(ts, http.MethodGet, "/v1/scorelists/7?round=2", "")

			Convey("Then only that round is projected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["title"], ShouldEqual, "2024-03-01 Speed")
				rows := body["rows"].([]any)
				So(rows, ShouldHaveLength, 1)
				row := rows[0].(map[string]any)
				So(row["name"], ShouldEqual, "B (DQ)")
				So(row["hitFactor"], ShouldEqual, "3.46")
			})
		})

		Convey("When the scorelist id is not a number", func() {
			resp, body := do(ts, http.MethodGet, "/v1/scorelists/abc", "")

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "invalid scorelist id")
			})
		})

		Convey("When the scorelist does not exist", func() {
			resp, body := do(ts, http.MethodGet, "/v1/scorelists/99", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("When the remote read fails", func() {
			remote.setFailure("findUniqueScorelist")
			resp, body := do(ts, http.MethodGet, "/v1/scorelists/7", "")

			Convey("Then the failure is serialized", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
				So(body["code"], ShouldEqual, "upstream_error")
				upstream := body["upstream"].(map[string]any)
				So(upstream["operation"], ShouldEqual, "findUniqueScorelist")
			})
		})

		Convey("When a round is added", func() {
			resp, body := do(ts, http.MethodPost, "/v1/scorelists/7/rounds", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["rounds"], ShouldEqual, 3)
		})

		Convey("When adding a round fails upstream", func() {
			remote.setFailure("updateOneScorelist")
			resp, body := do(ts, http.MethodPost, "/v1/scorelists/7/rounds", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			So(body["code"], ShouldEqual, "upstream_error")
		})

		Convey("When a drag ends", func() {
			Convey("With ordering off it is rejected", func() {
				resp, body := do(ts, http.MethodPost, "/v1/scorelists/7/swap", `{"moved":1,"target":2,"ordering":false}`)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "ordering_disabled")
				So(remote.swapCalls(), ShouldBeEmpty)
			})

			Convey("Without a target nothing is issued", func() {
				resp, body := do(ts, http.MethodPost, "/v1/scorelists/7/swap", `{"moved":1,"ordering":true}`)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["issued"], ShouldEqual, false)
				So(remote.swapCalls(), ShouldBeEmpty)
			})

			Convey("With ordering on the ids are swapped", func() {
				resp, body := do(ts, http.MethodPost, "/v1/scorelists/7/swap", `{"moved":1,"target":2,"ordering":true}`)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["issued"], ShouldEqual, true)
				So(remote.swapCalls(), ShouldResemble, [][2]int{{1, 2}})
			})

			Convey("With a broken body it is rejected", func() {
				resp, _ := do(ts, http.MethodPost, "/v1/scorelists/7/swap", `{`)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a stage is deleted", func() {
			Convey("Without confirmation nothing happens", func() {
				resp, body := do(ts, http.MethodDelete, "/v1/stages/4", "")
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "confirmation_required")
				So(remote.deletedIDs(), ShouldBeEmpty)
			})

			Convey("With confirmation the stage is removed", func() {
				resp, body := do(ts, http.MethodDelete, "/v1/stages/4?confirm=true", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["id"], ShouldEqual, 4)
				So(remote.deletedIDs(), ShouldResemble, []int{4})
			})
		})

		Convey("When a stage is created", func() {
			Convey("An invalid form reports violations", func() {
				resp, body := do(ts, http.MethodPost, "/v1/stages", `{"name":"","gunCondition":5}`)
				So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
				So(body["code"], ShouldEqual, "invalid_form")
				So(len(body["violations"].([]any)), ShouldBeGreaterThan, 0)
			})

			Convey("A valid form returns the new id", func() {
				resp, body := do(ts, http.MethodPost, "/v1/stages", `{"name":"Speed","designer":1,"papers":2,"gunCondition":1}`)
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldEqual, 11)
			})
		})

		Convey("When statistics are requested with a malformed filter", func() {
			resp, body := do(ts, http.MethodGet, "/v1/statistics?stage=%5B4%5D&scoreboard=oops", "")

			Convey("Then the malformed dimension is ignored", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				filters := remote.seenFilters()
				So(filters, ShouldHaveLength, 1)
				So(filters[0].StageID, ShouldResemble, []int{4})
				So(filters[0].ScoreboardID, ShouldBeEmpty)
				So(body["hitZones"], ShouldHaveLength, 5)
			})
		})

		Convey("When shooters are requested", func() {
			resp, err := http.Get(ts.URL + "/v1/shooters")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var shooters []model.Shooter
			So(json.NewDecoder(resp.Body).Decode(&shooters), ShouldBeNil)
			So(shooters[0].Division, ShouldEqual, "Open")
		})

		Convey("When stages are listed", func() {
			resp, err := http.Get(ts.URL + "/v1/stages")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var stages []model.StageSummary
			So(json.NewDecoder(resp.Body).Decode(&stages), ShouldBeNil)
			So(stages, ShouldResemble, []model.StageSummary{{ID: 4, Name: "Speed"}})
		})
	})
}

func readMessage(ctx context.Context, conn *websocket.Conn) map[string]any {
	_, data, err := conn.Read(ctx)
	So(err, ShouldBeNil)
	var m map[string]any
	So(json.Unmarshal(data, &m), ShouldBeNil)
	return m
}

// readState skips loading states.
func readState(ctx context.Context, conn *websocket.Conn) map[string]any {
	for {
		m := readMessage(ctx, conn)
		if m["type"] != "state" || m["status"] != "loading" {
			return m
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg string) {
	So(conn.Write(ctx, websocket.MessageText, []byte(msg)), ShouldBeNil)
}

func TestLiveEndpoint(t *testing.T) {
	Convey("Given a live connection to a scorelist", t, func() {
		remote := &mockRemote{}
		ts, stop := newTestServer(remote)
		defer stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/scorelists/7/live"
		conn, _, err := websocket.Dial(ctx, url, nil)
		So(err, ShouldBeNil)
		defer func() { _ = conn.CloseNow() }()

		Convey("Then the loaded scorelist is pushed", func() {
			m := readState(ctx, conn)
			So(m["status"], ShouldEqual, "loaded")
			view := m["view"].(map[string]any)
			So(view["rows"], ShouldHaveLength, 2)
		})

		Convey("When the viewer selects a round", func() {
			readState(ctx, conn)
			writeMessage(ctx, conn, `{"type":"selectRound","round":1}`)
			m := readState(ctx, conn)

			Convey("Then the view is re-projected", func() {
				view := m["view"].(map[string]any)
				So(view["round"], ShouldEqual, 1)
				So(view["rows"], ShouldHaveLength, 1)
			})
		})

		Convey("When the viewer drags with ordering on", func() {
			readState(ctx, conn)
			writeMessage(ctx, conn, `{"type":"toggleOrdering"}`)
			So(readState(ctx, conn)["view"].(map[string]any)["ordering"], ShouldEqual, true)
			writeMessage(ctx, conn, `{"type":"dragEnd","moved":2,"target":1}`)
			m := readMessage(ctx, conn)

			Convey("Then the swap is acknowledged", func() {
				So(m["type"], ShouldEqual, "ack")
				So(m["issued"], ShouldEqual, true)
				So(remote.swapCalls(), ShouldResemble, [][2]int{{2, 1}})
			})
		})

		Convey("When a write fails upstream", func() {
			readState(ctx, conn)
			remote.setFailure("updateOneScorelist")
			writeMessage(ctx, conn, `{"type":"addRound"}`)
			m := readMessage(ctx, conn)

			Convey("Then an error message is pushed", func() {
				So(m["type"], ShouldEqual, "error")
				So(m["request"], ShouldEqual, "addRound")
				So(m["error"].(map[string]any)["code"], ShouldEqual, "upstream_error")
			})
		})

		Convey("When the viewer sends an unknown message", func() {
			readState(ctx, conn)
			writeMessage(ctx, conn, `{"type":"explode"}`)
			m := readMessage(ctx, conn)
			So(m["type"], ShouldEqual, "error")
			So(m["error"].(map[string]any)["code"], ShouldEqual, "bad_request")
		})
	})
}
