package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamReplies отправляет новые ответы поста по websocket, по одному JSON на сообщение
func (a *API) streamReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	// до апгрейда, чтобы вернуть обычный 404
	if _, err := a.posts.GetPostByID(postID); err != nil {
		a.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := a.subs.Subscribe(postID)
	defer cancel()

	logger := a.logger.With("request_id", RequestIDFromContext(r.Context()), "post_id", postID)
	logger.Info("reply stream opened")
	defer logger.Info("reply stream closed")

	// читаем только чтобы заметить закрытие соединения клиентом
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case reply, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(a.wsWriteTimeout))
			if err := conn.WriteJSON(reply); err != nil {
				logger.Warn("failed to write reply to stream", "error", err)
				return
			}
		}
	}
}
