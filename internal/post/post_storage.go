package post

import (
	"context"

	"github.com/VitaminP8/alumni-forum/internal/model"
)

type PostStorage interface {
	CreatePost(ctx context.Context, categoryID uint, title, content string, tags []string) (*model.Post, error)
	GetPostByID(id uint) (*model.Post, error)
	ListPosts(filter model.PostFilter) (*model.PostPage, error)
	IncrementViews(id uint) error
	AddRepliesCount(id uint, delta int) error
	LockPost(ctx context.Context, id uint) error
	UnlockPost(ctx context.Context, id uint) error
	PinPost(ctx context.Context, id uint) error
	UnpinPost(ctx context.Context, id uint) error
	DeletePostByID(ctx context.Context, id uint) error
	UpdatePost(ctx context.Context, id uint, title, content string, tags []string) (*model.Post, error)
	LikePost(ctx context.Context, id uint) (*model.Post, error)
	UnlikePost(ctx context.Context, id uint) (*model.Post, error)
}
