package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
)

type PostMemoryStorage struct {
	mu     sync.Mutex
	posts  map[uint]*model.Post
	likes  map[uint]map[uint]bool // postID -> userID
	nextID uint
}

func NewPostMemoryStorage() *PostMemoryStorage {
	return &PostMemoryStorage{
		posts:  make(map[uint]*model.Post),
		likes:  make(map[uint]map[uint]bool),
		nextID: 1,
	}
}

func (s *PostMemoryStorage) CreatePost(ctx context.Context, categoryID uint, title, content string, tags []string) (*model.Post, error) {
	// Контекст read-only, поэтому читаем его до мьютекса
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}
	if err := storage.ValidTitle(title); err != nil {
		return nil, err
	}
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	now := time.Now().UTC().Format(time.RFC3339)
	post := &model.Post{
		ID:         id,
		CategoryID: categoryID,
		UserID:     userID,
		AuthorName: auth.GetUsernameFromContext(ctx),
		Title:      title,
		Content:    content,
		Slug:       fmt.Sprintf("%s-%d", storage.Slugify(title), id),
		Tags:       append([]string(nil), tags...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.posts[id] = post
	return clonePost(post), nil
}

func (s *PostMemoryStorage) GetPostByID(id uint) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}

	return clonePost(post), nil
}

// ListPosts - сначала закрепленные, затем новые
func (s *PostMemoryStorage) ListPosts(filter model.PostFilter) (*model.PostPage, error) {
	page, limit := storage.NormalizePage(filter.Page, filter.Limit)
	search := strings.ToLower(filter.Search)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*model.Post
	for _, post := range s.posts {
		if filter.CategoryID != 0 && post.CategoryID != filter.CategoryID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(post.Title), search) &&
			!strings.Contains(strings.ToLower(post.Content), search) {
			continue
		}
		matched = append(matched, post)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsPinned != matched[j].IsPinned {
			return matched[i].IsPinned
		}
		return matched[i].ID > matched[j].ID
	})

	result := &model.PostPage{Items: []*model.Post{}, Page: page, Limit: limit, Total: len(matched)}

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return result, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	for _, post := range matched[offset:end] {
		result.Items = append(result.Items, clonePost(post))
	}

	return result, nil
}

func (s *PostMemoryStorage) IncrementViews(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	post.ViewsCount++
	return nil
}

func (s *PostMemoryStorage) AddRepliesCount(id uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	post.RepliesCount += delta
	if post.RepliesCount < 0 {
		post.RepliesCount = 0
	}
	return nil
}

func (s *PostMemoryStorage) LockPost(ctx context.Context, id uint) error {
	return s.updateByAuthor(ctx, id, func(p *model.Post) { p.IsLocked = true })
}

func (s *PostMemoryStorage) UnlockPost(ctx context.Context, id uint) error {
	return s.updateByAuthor(ctx, id, func(p *model.Post) { p.IsLocked = false })
}

func (s *PostMemoryStorage) PinPost(ctx context.Context, id uint) error {
	return s.updateByAuthor(ctx, id, func(p *model.Post) { p.IsPinned = true })
}

func (s *PostMemoryStorage) UnpinPost(ctx context.Context, id uint) error {
	return s.updateByAuthor(ctx, id, func(p *model.Post) { p.IsPinned = false })
}

func (s *PostMemoryStorage) DeletePostByID(ctx context.Context, id uint) error {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}

	if post.UserID != userID {
		return fmt.Errorf("%w: not author", storage.ErrForbidden)
	}

	delete(s.posts, id)
	delete(s.likes, id)
	return nil
}

// UpdatePost меняет заголовок, текст и теги. Slug остается прежним,
// чтобы не ломать ссылки.
func (s *PostMemoryStorage) UpdatePost(ctx context.Context, id uint, title, content string, tags []string) (*model.Post, error) {
	if err := storage.ValidTitle(title); err != nil {
		return nil, err
	}
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}

	err := s.updateByAuthor(ctx, id, func(p *model.Post) {
		p.Title = title
		p.Content = content
		p.Tags = append([]string(nil), tags...)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPostByID(id)
}

func (s *PostMemoryStorage) LikePost(ctx context.Context, id uint) (*model.Post, error) {
	return s.setLike(ctx, id, true)
}

func (s *PostMemoryStorage) UnlikePost(ctx context.Context, id uint) (*model.Post, error) {
	return s.setLike(ctx, id, false)
}

func (s *PostMemoryStorage) setLike(ctx context.Context, id uint, liked bool) (*model.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}

	users := s.likes[id]
	if users == nil {
		users = make(map[uint]bool)
		s.likes[id] = users
	}

	if users[userID] != liked {
		if liked {
			users[userID] = true
			post.LikesCount++
		} else {
			delete(users, userID)
			post.LikesCount--
		}
	}

	return clonePost(post), nil
}

func (s *PostMemoryStorage) updateByAuthor(ctx context.Context, id uint, update func(*model.Post)) error {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}

	if post.UserID != userID {
		return fmt.Errorf("%w: not author", storage.ErrForbidden)
	}

	update(post)
	post.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}
