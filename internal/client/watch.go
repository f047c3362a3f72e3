package client

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/poller"
	"github.com/VitaminP8/alumni-forum/internal/thread"
)

// WatchThread периодически перечитывает ответы поста и вызывает fn,
// когда набор ответов изменился. Первый успешный ответ отдается всегда.
// Блокирует до отмены ctx.
func (c *Client) WatchThread(ctx context.Context, postID uint, interval time.Duration, fn func(*thread.Forest)) error {
	var last uint64
	seen := false

	p := poller.New(interval, func(ctx context.Context) error {
		forest, err := c.Thread(ctx, postID)
		if err != nil {
			return err
		}

		sum := fingerprint(forest)
		if seen && sum == last {
			return nil
		}
		seen, last = true, sum
		fn(forest)
		return nil
	}, poller.WithOnError(func(err error) {
		if ctx.Err() == nil {
			c.logger.Warn("failed to refresh thread", "post_id", postID, "error", err)
		}
	}), poller.WithLogger(c.logger))

	if err := p.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	p.Stop()
	return nil
}

// fingerprint учитывает все поля, которые видны пользователю
func fingerprint(forest *thread.Forest) uint64 {
	h := fnv.New64a()
	thread.Walk(forest.Replies, func(depth int, r *model.Reply) {
		fmt.Fprintf(h, "%d|%d|%s|%d|%t|%t|%s\n", depth, r.ID, r.UpdatedAt, r.LikesCount, r.IsDeleted, r.IsSolution, r.Content)
	})
	for _, e := range forest.Excluded {
		fmt.Fprintf(h, "x|%d|%s\n", e.ID, e.Reason)
	}
	return h.Sum64()
}
