package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsPongWait = 60 * time.Second

type wsHandler struct {
	server   *Server
	upgrader websocket.Upgrader
}

func newWSHandler(s *Server) *wsHandler {
	return &wsHandler{
		server: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the cors middleware and the token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades an authenticated participant and answers its commands on
// the socket. Every message is a request; the server never pushes.
func (h *wsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := h.server.logger
	teamID, err := subjectID(r)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "team", teamID, "error", err)
		return
	}
	defer conn.Close()

	// the request context ends with the handler; presence must outlive it briefly
	ctx := r.Context()
	h.server.presence.Join(ctx, teamID)
	defer h.server.presence.Leave(context.WithoutCancel(ctx), teamID)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		h.server.presence.Touch(ctx, teamID)
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPongWait / 2)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					logger.Debug("ws write error", "team", teamID, "error", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.server.presence.Touch(ctx, teamID)
		select {
		case send <- h.dispatch(r, teamID, inbound):
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
}

func (h *wsHandler) dispatch(r *http.Request, teamID int64, in inboundMessage) outboundMessage {
	ctx := r.Context()
	svc := h.server.svc
	switch in.Type {
	case "current":
		cur, err := svc.Progress.CurrentQuestion(ctx, teamID)
		if err != nil {
			return h.errorMessage(err)
		}
		return outboundMessage{Type: "question", Payload: cur}
	case "status":
		st, err := svc.Progress.Status(ctx, teamID)
		if err != nil {
			return h.errorMessage(err)
		}
		return outboundMessage{Type: "status", Payload: st}
	case "submit":
		var req submitRequest
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			return outboundMessage{Type: "error", Payload: errorPayload{Code: "validation_failed", Message: "invalid submit payload"}}
		}
		if err := h.server.validate.Struct(req); err != nil {
			return outboundMessage{Type: "error", Payload: errorPayload{Code: "validation_failed", Message: err.Error()}}
		}
		res, err := svc.Progress.SubmitAnswer(ctx, teamID, req.Answer)
		if err != nil {
			return h.errorMessage(err)
		}
		return outboundMessage{Type: "submitResult", Payload: res}
	}
	return outboundMessage{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}
}

func (h *wsHandler) errorMessage(err error) outboundMessage {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.server.logger.Error("ws command failed", "error", err)
		if code == "internal_server_error" {
			msg = http.StatusText(status)
		}
	}
	return outboundMessage{Type: "error", Payload: errorPayload{Code: code, Message: msg}}
}
