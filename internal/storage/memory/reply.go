package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/post"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/internal/subscription"
)

const deletedContent = "[deleted]"

type ReplyMemoryStorage struct {
	mu          sync.Mutex
	replies     map[uint]*model.Reply
	byPost      map[uint][]uint        // postID -> id ответов в порядке создания
	likes       map[uint]map[uint]bool // replyID -> userID
	nextID      uint
	postStorage post.PostStorage // хранилище постов (DI)
	manager     subscription.Manager
}

func NewReplyMemoryStorage(postStore post.PostStorage, manager subscription.Manager) *ReplyMemoryStorage {
	return &ReplyMemoryStorage{
		replies:     make(map[uint]*model.Reply),
		byPost:      make(map[uint][]uint),
		likes:       make(map[uint]map[uint]bool),
		nextID:      1,
		postStorage: postStore,
		manager:     manager,
	}
}

func (s *ReplyMemoryStorage) CreateReply(ctx context.Context, postID uint, parentID *uint, content string) (*model.Reply, error) {
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}

	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	curPost, err := s.postStorage.GetPostByID(postID)
	if err != nil {
		return nil, err
	}
	if curPost.IsLocked {
		return nil, fmt.Errorf("post %d: %w", postID, storage.ErrLocked)
	}

	s.mu.Lock()

	var parentPtr *uint
	if parentID != nil {
		// родитель должен существовать и принадлежать тому же посту
		parent, ok := s.replies[*parentID]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("reply %d: %w", *parentID, storage.ErrParentNotFound)
		}
		if parent.PostID != postID {
			s.mu.Unlock()
			return nil, storage.ErrParentOtherPost
		}
		pid := *parentID
		parentPtr = &pid
		parent.RepliesCount++
	}

	id := s.nextID
	s.nextID++

	now := time.Now().UTC().Format(time.RFC3339)
	reply := &model.Reply{
		ID:            id,
		PostID:        postID,
		UserID:        userID,
		ParentReplyID: parentPtr,
		AuthorName:    auth.GetUsernameFromContext(ctx),
		Content:       content,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.replies[id] = reply
	s.byPost[postID] = append(s.byPost[postID], id)
	result := cloneReply(reply)

	s.mu.Unlock()

	if err := s.postStorage.AddRepliesCount(postID, 1); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if s.manager != nil {
		s.manager.Publish(postID, cloneReply(result))
	}

	return result, nil
}

func (s *ReplyMemoryStorage) ListReplies(postID uint, page, limit int) (*model.ReplyPage, error) {
	if _, err := s.postStorage.GetPostByID(postID); err != nil {
		return nil, err
	}
	page, limit = storage.NormalizePage(page, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byPost[postID]
	result := &model.ReplyPage{Items: []*model.Reply{}, Page: page, Limit: limit, Total: len(ids)}

	offset := (page - 1) * limit
	if offset >= len(ids) {
		return result, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	for _, id := range ids[offset:end] {
		result.Items = append(result.Items, cloneReply(s.replies[id]))
	}
	return result, nil
}

func (s *ReplyMemoryStorage) GetNestedReplies(postID, replyID uint) ([]*model.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getReply(postID, replyID); err != nil {
		return nil, err
	}

	children := []*model.Reply{}
	for _, id := range s.byPost[postID] {
		r := s.replies[id]
		if r.ParentReplyID != nil && *r.ParentReplyID == replyID {
			children = append(children, cloneReply(r))
		}
	}
	return children, nil
}

func (s *ReplyMemoryStorage) UpdateReply(ctx context.Context, postID, replyID uint, content string) (*model.Reply, error) {
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}
	return s.updateByAuthor(ctx, postID, replyID, func(r *model.Reply) {
		r.Content = content
	})
}

// DeleteReply помечает ответ удаленным: он остается в списке,
// чтобы вложенные ответы не потеряли родителя
func (s *ReplyMemoryStorage) DeleteReply(ctx context.Context, postID, replyID uint) error {
	_, err := s.updateByAuthor(ctx, postID, replyID, func(r *model.Reply) {
		r.IsDeleted = true
		r.Content = deletedContent
	})
	return err
}

func (s *ReplyMemoryStorage) LikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return s.setLike(ctx, postID, replyID, true)
}

func (s *ReplyMemoryStorage) UnlikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return s.setLike(ctx, postID, replyID, false)
}

// MarkSolution отмечает ответ решением. Может только автор поста,
// предыдущее решение снимается.
func (s *ReplyMemoryStorage) MarkSolution(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	curPost, err := s.postStorage.GetPostByID(postID)
	if err != nil {
		return nil, err
	}
	if curPost.UserID != userID {
		return nil, fmt.Errorf("%w: only the post author can mark a solution", storage.ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.getReply(postID, replyID)
	if err != nil {
		return nil, err
	}

	for _, id := range s.byPost[postID] {
		s.replies[id].IsSolution = false
	}
	reply.IsSolution = true

	return cloneReply(reply), nil
}

func (s *ReplyMemoryStorage) setLike(ctx context.Context, postID, replyID uint, liked bool) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.getReply(postID, replyID)
	if err != nil {
		return nil, err
	}

	users := s.likes[replyID]
	if users == nil {
		users = make(map[uint]bool)
		s.likes[replyID] = users
	}

	// повторный лайк (или снятие) ничего не меняет
	if users[userID] != liked {
		if liked {
			users[userID] = true
			reply.LikesCount++
		} else {
			delete(users, userID)
			reply.LikesCount--
		}
	}

	return cloneReply(reply), nil
}

func (s *ReplyMemoryStorage) updateByAuthor(ctx context.Context, postID, replyID uint, update func(*model.Reply)) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.getReply(postID, replyID)
	if err != nil {
		return nil, err
	}
	if reply.UserID != userID {
		return nil, fmt.Errorf("%w: not author", storage.ErrForbidden)
	}
	if reply.IsDeleted {
		return nil, fmt.Errorf("reply %d: %w", replyID, storage.ErrNotFound)
	}

	update(reply)
	reply.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return cloneReply(reply), nil
}

// getReply вызывается под мьютексом
func (s *ReplyMemoryStorage) getReply(postID, replyID uint) (*model.Reply, error) {
	reply, ok := s.replies[replyID]
	if !ok || reply.PostID != postID {
		return nil, fmt.Errorf("reply %d: %w", replyID, storage.ErrNotFound)
	}
	return reply, nil
}

func cloneReply(r *model.Reply) *model.Reply {
	c := *r
	if r.ParentReplyID != nil {
		pid := *r.ParentReplyID
		c.ParentReplyID = &pid
	}
	c.NestedReplies = nil
	return &c
}
