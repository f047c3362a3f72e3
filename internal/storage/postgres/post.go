package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/models"
	"github.com/jinzhu/gorm"
)

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

func (s *PostPostgresStorage) CreatePost(ctx context.Context, categoryID uint, title, content string, tags []string) (*model.Post, error) {
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

	post := &models.Post{
		CategoryID: categoryID,
		UserID:     userID,
		Title:      title,
		Content:    content,
		Tags:       strings.Join(tags, ","),
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		// slug зависит от id, поэтому заполняем после вставки
		post.Slug = fmt.Sprintf("%s-%d", storage.Slugify(title), post.ID)
		return tx.Model(post).UpdateColumn("slug", post.Slug).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not create post: %w", err)
	}

	result := toPostModel(post)
	result.AuthorName = auth.GetUsernameFromContext(ctx)
	return result, nil
}

func (s *PostPostgresStorage) GetPostByID(id uint) (*model.Post, error) {
	post, err := findPost(id)
	if err != nil {
		return nil, err
	}

	names, err := usernames([]uint{post.UserID})
	if err != nil {
		return nil, err
	}

	result := toPostModel(post)
	result.AuthorName = names[post.UserID]
	return result, nil
}

// ListPosts - сначала закрепленные, затем новые
func (s *PostPostgresStorage) ListPosts(filter model.PostFilter) (*model.PostPage, error) {
	page, limit := storage.NormalizePage(filter.Page, filter.Limit)

	query := DB.Model(&models.Post{})
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	var total int
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("could not count posts: %w", err)
	}

	var posts []models.Post
	err := query.Order("is_pinned desc").Order("id desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}

	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
	}
	names, err := usernames(authorIDs)
	if err != nil {
		return nil, err
	}

	result := &model.PostPage{Items: []*model.Post{}, Page: page, Limit: limit, Total: total}
	for i := range posts {
		p := toPostModel(&posts[i])
		p.AuthorName = names[posts[i].UserID]
		result.Items = append(result.Items, p)
	}
	return result, nil
}

func (s *PostPostgresStorage) IncrementViews(id uint) error {
	res := DB.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("could not increment views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostPostgresStorage) AddRepliesCount(id uint, delta int) error {
	res := DB.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("replies_count", gorm.Expr("CASE WHEN replies_count + ? < 0 THEN 0 ELSE replies_count + ? END", delta, delta))
	if res.Error != nil {
		return fmt.Errorf("could not update replies count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostPostgresStorage) LockPost(ctx context.Context, id uint) error {
	return updateByAuthor(ctx, id, "is_locked", true)
}

func (s *PostPostgresStorage) UnlockPost(ctx context.Context, id uint) error {
	return updateByAuthor(ctx, id, "is_locked", false)
}

func (s *PostPostgresStorage) PinPost(ctx context.Context, id uint) error {
	return updateByAuthor(ctx, id, "is_pinned", true)
}

func (s *PostPostgresStorage) UnpinPost(ctx context.Context, id uint) error {
	return updateByAuthor(ctx, id, "is_pinned", false)
}

func (s *PostPostgresStorage) DeletePostByID(ctx context.Context, id uint) error {
	if _, err := authorPost(ctx, id); err != nil {
		return err
	}

	err := DB.Delete(&models.Post{}, id).Error
	if err != nil {
		return fmt.Errorf("could not delete post: %w", err)
	}

	return nil
}

// UpdatePost меняет заголовок, текст и теги. Slug не меняется.
func (s *PostPostgresStorage) UpdatePost(ctx context.Context, id uint, title, content string, tags []string) (*model.Post, error) {
	if err := storage.ValidTitle(title); err != nil {
		return nil, err
	}
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}

	post, err := authorPost(ctx, id)
	if err != nil {
		return nil, err
	}

	err = DB.Model(post).Updates(map[string]interface{}{
		"title":   title,
		"content": content,
		"tags":    strings.Join(tags, ","),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("could not update post: %w", err)
	}

	return s.GetPostByID(id)
}

func (s *PostPostgresStorage) LikePost(ctx context.Context, id uint) (*model.Post, error) {
	return s.setLike(ctx, id, true)
}

func (s *PostPostgresStorage) UnlikePost(ctx context.Context, id uint) (*model.Post, error) {
	return s.setLike(ctx, id, false)
}

func (s *PostPostgresStorage) setLike(ctx context.Context, id uint, liked bool) (*model.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	if _, err := findPost(id); err != nil {
		return nil, err
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		delta, err := toggleLike(tx, &models.PostLike{}, "post_id", id, userID, liked)
		if err != nil || delta == 0 {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not update like: %w", err)
	}

	return s.GetPostByID(id)
}

// authorPost возвращает пост, если его автор - текущий пользователь
func authorPost(ctx context.Context, id uint) (*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	post, err := findPost(id)
	if err != nil {
		return nil, err
	}

	if post.UserID != userID {
		return nil, fmt.Errorf("%w: you are not the author of this post", storage.ErrForbidden)
	}
	return post, nil
}

func updateByAuthor(ctx context.Context, id uint, column string, value bool) error {
	if _, err := authorPost(ctx, id); err != nil {
		return err
	}

	err := DB.Model(&models.Post{}).Where("id = ?", id).Update(column, value).Error
	if err != nil {
		return fmt.Errorf("could not update %s: %w", column, err)
	}

	return nil
}

func findPost(id uint) (*models.Post, error) {
	var post models.Post
	err := DB.First(&post, id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}
	return &post, nil
}

func toPostModel(p *models.Post) *model.Post {
	var tags []string
	if p.Tags != "" {
		tags = strings.Split(p.Tags, ",")
	}

	return &model.Post{
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		UserID:       p.UserID,
		Title:        p.Title,
		Content:      p.Content,
		Slug:         p.Slug,
		Tags:         tags,
		ViewsCount:   p.ViewsCount,
		RepliesCount: p.RepliesCount,
		LikesCount:   p.LikesCount,
		IsPinned:     p.IsPinned,
		IsLocked:     p.IsLocked,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
