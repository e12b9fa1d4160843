package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"recipe-map/internal/view"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 16 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	HandshakeTimeout: 10 * time.Second,
}

// handleWS：快照推送通道
// 背景：首帧为当前快照，之后每次视图变化推送一帧；客户端也可通过同一连接回传事件（格式同 POST events）
// 约束：推送队列只保留最新快照，慢客户端不会阻塞视图；视图被卸载时连接随之关闭
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Views.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("ws_upgrade_error", "err", err)
		return
	}
	v := sess.view
	latest := make(chan view.Snapshot, 1)
	push := func(snap view.Snapshot) {
		select {
		case latest <- snap:
		default:
			select {
			case <-latest:
			default:
			}
			select {
			case latest <- snap:
			default:
			}
		}
	}
	cancel := v.Watch(push)
	push(v.Snapshot())
	closed := make(chan struct{})
	go s.wsRead(conn, r, v, closed)
	s.wsWrite(conn, latest, sess.done, closed)
	cancel()
}

func (s *Server) wsRead(conn *websocket.Conn, r *http.Request, v *view.View, closed chan struct{}) {
	defer close(closed)
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var ev eventRequest
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("ws_read_error", "err", err)
			}
			return
		}
		if _, _, err := s.apply(r, v, ev); err != nil {
			s.log.Debug("ws_event_error", "type", ev.Type, "err", err)
		}
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, latest <-chan view.Snapshot, done, closed <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case snap := <-latest:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view unmounted"))
			return
		case <-closed:
			return
		}
	}
}
