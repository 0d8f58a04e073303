package graphql_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/okian/rangeboard/internal/adapters/graphql"
	"github.com/okian/rangeboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

// transportServer speaks the server side of graphql-transport-ws. It sends
// `notifications` next messages and then either completes or errors.
type transportServer struct {
	notifications int
	finish        string
	mu            sync.Mutex
	query         string
	gotPong       bool
}

func (s *transportServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{graphql.Subprotocol}})
	if err != nil {
		return
	}
	defer func() { _ = conn.CloseNow() }()
	ctx := r.Context()

	send := func(m graphql.Message) {
		b, _ := json.Marshal(m)
		_ = conn.Write(ctx, websocket.MessageText, b)
	}
	recv := func() graphql.Message {
		var m graphql.Message
		_, data, err := conn.Read(ctx)
		if err == nil {
			_ = json.Unmarshal(data, &m)
		}
		return m
	}

	if recv().Type != "connection_init" {
		return
	}
	send(graphql.Message{Type: "connection_ack"})
	send(graphql.Message{Type: "ping"})
	if recv().Type == "pong" {
		s.mu.Lock()
		s.gotPong = true
		s.mu.Unlock()
	}
	sub := recv()
	s.mu.Lock()
	s.query = gjson.GetBytes(sub.Payload, "query").String()
	s.mu.Unlock()

	for i := 0; i < s.notifications; i++ {
		send(graphql.Message{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"subscriptScoreChange":true}}`)})
	}
	switch s.finish {
	case "error":
		send(graphql.Message{ID: sub.ID, Type: "error", Payload: json.RawMessage(`[{"message":"nope"}]`)})
	default:
		send(graphql.Message{ID: sub.ID, Type: "complete"})
	}
	// Wait for the client to hang up.
	_, _, _ = conn.Read(ctx)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscriber(t *testing.T) {
	Convey("Given a server that sends two notifications and completes", t, func() {
		fake := &transportServer{notifications: 2}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var events []model.ChangeEvent
		err := graphql.NewSubscriber(wsURL(srv)).Subscribe(ctx, model.TopicScoreChange, func(ev model.ChangeEvent) {
			events = append(events, ev)
		})

		Convey("Then a resync and both notifications are delivered and the stream ends cleanly", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 3)
			So(events[0].Resync, ShouldBeTrue)
			So(events[1].Resync, ShouldBeFalse)
			So(events[1].Topic, ShouldEqual, model.TopicScoreChange)
			fake.mu.Lock()
			defer fake.mu.Unlock()
			So(fake.query, ShouldEqual, "subscription { subscriptScoreChange }")
			So(fake.gotPong, ShouldBeTrue)
		})
	})

	Convey("Given a server that ends the stream with an error", t, func() {
		srv := httptest.NewServer(&transportServer{finish: "error"})
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := graphql.NewSubscriber(wsURL(srv)).Subscribe(ctx, model.TopicScorelistChange, func(model.ChangeEvent) {})
		So(errors.Is(err, graphql.ErrSubscription), ShouldBeTrue)
	})

	Convey("Given nothing listening", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := wsURL(srv)
		srv.Close()

		err := graphql.NewSubscriber(url).Subscribe(context.Background(), model.TopicScoreChange, func(model.ChangeEvent) {})
		So(errors.Is(err, graphql.ErrSubscription), ShouldBeTrue)
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := graphql.NewSubscriber("ws://127.0.0.1:1").Subscribe(ctx, model.TopicScoreChange, func(model.ChangeEvent) {})
		So(err, ShouldBeNil)
	})
}
