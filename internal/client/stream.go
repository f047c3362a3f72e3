package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/gorilla/websocket"
)

// StreamReplies читает websocket-поток новых ответов поста и вызывает fn
// на каждый ответ. Возвращает nil при отмене ctx или штатном закрытии.
func (c *Client) StreamReplies(ctx context.Context, postID uint, fn func(*model.Reply)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + fmt.Sprintf("/api/forums/posts/%d/replies/stream", postID)

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && errors.Is(err, websocket.ErrBadHandshake) {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to connect to reply stream: %w", err)
	}
	defer conn.Close()

	c.logger.Info("connected to reply stream", "post_id", postID)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var reply model.Reply
		if err := conn.ReadJSON(&reply); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reply stream failed: %w", err)
		}
		fn(&reply)
	}
}
