package reply

import (
	"context"

	"github.com/VitaminP8/alumni-forum/internal/model"
)

type ReplyStorage interface {
	// parentID == nil - ответ верхнего уровня
	CreateReply(ctx context.Context, postID uint, parentID *uint, content string) (*model.Reply, error)
	// плоский список в порядке создания
	ListReplies(postID uint, page, limit int) (*model.ReplyPage, error)
	GetNestedReplies(postID, replyID uint) ([]*model.Reply, error)
	UpdateReply(ctx context.Context, postID, replyID uint, content string) (*model.Reply, error)
	DeleteReply(ctx context.Context, postID, replyID uint) error
	LikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error)
	UnlikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error)
	MarkSolution(ctx context.Context, postID, replyID uint) (*model.Reply, error)
}
