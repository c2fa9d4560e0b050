package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// navigateRequest is one client frame on the navigation socket.
type navigateRequest struct {
	Path string `json:"path"`
}

const writeWait = 10 * time.Second

// handleWebSocket resolves one path per text frame and answers, in order,
// with the body /_waypoint/resolve would return for it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.wsError("upgrade")
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if m := s.config.Metrics; m != nil {
		m.WebSocketOpened()
		defer m.WebSocketClosed()
	}
	if s.config.MaxFrameSize > 0 {
		conn.SetReadLimit(s.config.MaxFrameSize)
	}

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.wsError("read")
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var body any
		var req navigateRequest
		switch {
		case json.Unmarshal(data, &req) != nil:
			s.wsError("decode")
			body = errorBody{Error: "bad_request", Detail: "frame is not valid JSON"}
		case req.Path == "":
			body = errorBody{Error: "bad_request", Detail: "missing path"}
		default:
			_, body = s.resolve(ctx, req.Path)
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(body); err != nil {
			s.wsError("write")
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) wsError(kind string) {
	if m := s.config.Metrics; m != nil {
		m.WebSocketError(kind)
	}
}
