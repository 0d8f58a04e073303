package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	service "github.com/okian/rangeboard/internal/app"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/reorder"
	"github.com/okian/rangeboard/pkg/logger"
)

const liveWriteTimeout = 3 * time.Second

// Client message types accepted on the live connection.
const (
	msgSelectRound    = "selectRound"
	msgToggleOrdering = "toggleOrdering"
	msgDragEnd        = "dragEnd"
	msgAddRound       = "addRound"
)

// Server message types pushed on the live connection.
const (
	msgState = "state"
	msgAck   = "ack"
	msgError = "error"
)

var errUnknownMessage = fmt.Errorf("%w: unknown message type", ErrBadRequest)

type clientMessage struct {
	Type   string `json:"type"`
	Round  int    `json:"round,omitempty"`
	Moved  int    `json:"moved,omitempty"`
	Target int    `json:"target,omitempty"`
}

type serverMessage struct {
	Type    string                   `json:"type"`
	Status  service.Status           `json:"status,omitempty"`
	View    *projector.ScorelistView `json:"view,omitempty"`
	Request string                   `json:"request,omitempty"`
	Issued  *bool                    `json:"issued,omitempty"`
	Rounds  int                      `json:"rounds,omitempty"`
	Error   *errorResponse           `json:"error,omitempty"`
}

// LiveHandler pushes scorelist updates over a websocket and accepts viewer
// interactions on the same connection.
type LiveHandler struct {
	deps Dependencies
	opts options
	log  logger.Logger
}

// newLiveHandler creates a new live handler.
func newLiveHandler(deps Dependencies, opts options) *LiveHandler {
	return &LiveHandler{deps: deps, opts: opts, log: opts.log.Named("live")}
}

// HandleLive handles GET /v1/scorelists/{id}/live.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "scorelist")
	if err != nil {
		writeError(w, err)
		return
	}
	round, ordering := viewerState(r)
	session, err := h.deps.Join(id, round, ordering)
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Close()

	conn, err := websocket.Accept(w, r, h.opts.acceptOptions())
	if err != nil {
		h.log.Warn(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan serverMessage, h.opts.outbox)
	updates, unwatch := session.Updates()
	defer unwatch()

	go h.pump(ctx, cancel, session, updates, out)
	go h.write(ctx, cancel, conn, out)
	h.read(ctx, conn, session, out)

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

// pump renders every snapshot for the session. When the binder drops the
// watcher the connection is ended.
func (h *LiveHandler) pump(ctx context.Context, cancel context.CancelFunc, session *service.LiveSession,
	updates <-chan service.Snapshot[model.Scorelist], out chan<- serverMessage) {
	for snap := range updates {
		if !send(ctx, out, stateMessage(session.Apply(snap))) {
			return
		}
	}
	h.log.Debug(ctx, "update stream closed", logger.Int("scorelist_id", session.ID()))
	cancel()
}

func (h *LiveHandler) write(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan serverMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-out:
			payload, err := json.Marshal(m)
			if err != nil {
				h.log.Error(ctx, "encode live message failed", logger.Error(err))
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, liveWriteTimeout)
			err = conn.Write(wctx, websocket.MessageText, payload)
			wcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func (h *LiveHandler) read(ctx context.Context, conn *websocket.Conn, session *service.LiveSession, out chan<- serverMessage) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					h.log.Debug(ctx, "live read ended", logger.Error(err))
				}
			}
			return
		}

		var cm clientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			send(ctx, out, errorMessage("", wrapBody(err)))
			continue
		}
		send(ctx, out, h.handle(ctx, session, cm))
	}
}

func (h *LiveHandler) handle(ctx context.Context, session *service.LiveSession, cm clientMessage) serverMessage {
	switch cm.Type {
	case msgSelectRound:
		return stateMessage(session.SelectRound(cm.Round))
	case msgToggleOrdering:
		return stateMessage(session.ToggleOrdering())
	case msgDragEnd:
		issued, err := session.DragEnd(ctx, reorder.Intent{Moved: cm.Moved, Target: cm.Target})
		if err != nil {
			return errorMessage(cm.Type, err)
		}
		return serverMessage{Type: msgAck, Request: cm.Type, Issued: &issued}
	case msgAddRound:
		rounds, err := session.AddRound(ctx)
		if err != nil {
			return errorMessage(cm.Type, err)
		}
		return serverMessage{Type: msgAck, Request: cm.Type, Rounds: rounds}
	default:
		return errorMessage(cm.Type, errUnknownMessage)
	}
}

func send(ctx context.Context, out chan<- serverMessage, m serverMessage) bool {
	select {
	case out <- m:
		return true
	case <-ctx.Done():
		return false
	}
}

func stateMessage(u service.LiveUpdate) serverMessage {
	m := serverMessage{Type: msgState, Status: u.Status, View: u.View}
	if u.Err != nil {
		_, code := classify(u.Err)
		resp := newErrorResponse(code, u.Err)
		m.Error = &resp
	}
	return m
}

func errorMessage(request string, err error) serverMessage {
	_, code := classify(err)
	resp := newErrorResponse(code, err)
	return serverMessage{Type: msgError, Request: request, Error: &resp}
}
