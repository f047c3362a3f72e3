package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/internal/subscription"
	"github.com/VitaminP8/alumni-forum/models"
	"github.com/jinzhu/gorm"
)

const deletedContent = "[deleted]"

type ReplyPostgresStorage struct {
	manager subscription.Manager
}

func NewReplyPostgresStorage(manager subscription.Manager) *ReplyPostgresStorage {
	return &ReplyPostgresStorage{manager: manager}
}

func (s *ReplyPostgresStorage) CreateReply(ctx context.Context, postID uint, parentID *uint, content string) (*model.Reply, error) {
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}

	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	post, err := findPost(postID)
	if err != nil {
		return nil, err
	}
	if post.IsLocked {
		return nil, fmt.Errorf("post %d: %w", postID, storage.ErrLocked)
	}

	reply := &models.ForumReply{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}

	if parentID != nil {
		var parent models.ForumReply
		err := DB.First(&parent, *parentID).Error
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("reply %d: %w", *parentID, storage.ErrParentNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("could not get parent reply: %w", err)
		}
		if parent.PostID != postID {
			return nil, storage.ErrParentOtherPost
		}
		pid := *parentID
		reply.ParentReplyID = &pid
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("replies_count", gorm.Expr("replies_count + ?", 1)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not create reply: %w", err)
	}

	result := toReplyModel(reply)
	result.AuthorName = auth.GetUsernameFromContext(ctx)

	if s.manager != nil {
		published := *result
		s.manager.Publish(postID, &published)
	}

	return result, nil
}

func (s *ReplyPostgresStorage) ListReplies(postID uint, page, limit int) (*model.ReplyPage, error) {
	if _, err := findPost(postID); err != nil {
		return nil, err
	}
	page, limit = storage.NormalizePage(page, limit)

	query := DB.Model(&models.ForumReply{}).Where("post_id = ?", postID)

	var total int
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("could not count replies: %w", err)
	}

	var replies []models.ForumReply
	err := query.Order("id asc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("could not get replies: %w", err)
	}

	items, err := toReplyModels(replies)
	if err != nil {
		return nil, err
	}

	return &model.ReplyPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (s *ReplyPostgresStorage) GetNestedReplies(postID, replyID uint) ([]*model.Reply, error) {
	if _, err := findReply(postID, replyID); err != nil {
		return nil, err
	}

	var children []models.ForumReply
	err := DB.Where("post_id = ? AND parent_reply_id = ?", postID, replyID).
		Order("id asc").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("could not get nested replies: %w", err)
	}

	return toReplyModels(children)
}

func (s *ReplyPostgresStorage) UpdateReply(ctx context.Context, postID, replyID uint, content string) (*model.Reply, error) {
	if err := storage.ValidContent(content); err != nil {
		return nil, err
	}
	return updateReplyByAuthor(ctx, postID, replyID, map[string]interface{}{
		"content": content,
	})
}

// DeleteReply помечает ответ удаленным, строка остается,
// чтобы вложенные ответы не потеряли родителя
func (s *ReplyPostgresStorage) DeleteReply(ctx context.Context, postID, replyID uint) error {
	_, err := updateReplyByAuthor(ctx, postID, replyID, map[string]interface{}{
		"is_deleted": true,
		"content":    deletedContent,
	})
	return err
}

func (s *ReplyPostgresStorage) LikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return setLike(ctx, postID, replyID, true)
}

func (s *ReplyPostgresStorage) UnlikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return setLike(ctx, postID, replyID, false)
}

// MarkSolution - только автор поста, предыдущее решение снимается
func (s *ReplyPostgresStorage) MarkSolution(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	post, err := findPost(postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: only the post author can mark a solution", storage.ErrForbidden)
	}

	if _, err := findReply(postID, replyID); err != nil {
		return nil, err
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ForumReply{}).Where("post_id = ?", postID).
			UpdateColumn("is_solution", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.ForumReply{}).Where("id = ?", replyID).
			UpdateColumn("is_solution", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not mark solution: %w", err)
	}

	return getReplyModel(postID, replyID)
}

func setLike(ctx context.Context, postID, replyID uint, liked bool) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	if _, err := findReply(postID, replyID); err != nil {
		return nil, err
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		delta, err := toggleLike(tx, &models.ReplyLike{}, "reply_id", replyID, userID, liked)
		if err != nil || delta == 0 {
			return err
		}
		return tx.Model(&models.ForumReply{}).Where("id = ?", replyID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not update like: %w", err)
	}

	return getReplyModel(postID, replyID)
}

// toggleLike ставит или снимает лайк и возвращает изменение счетчика.
// Уникальность пары (id, user_id) держит первичный ключ, поэтому
// повторный лайк (или снятие) возвращает 0 и под гонкой тоже.
func toggleLike(tx *gorm.DB, row interface{}, column string, id, userID uint, liked bool) (int, error) {
	if liked {
		table := tx.NewScope(row).TableName()
		res := tx.Exec(fmt.Sprintf("INSERT INTO %s (%s, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING", table, column), id, userID)
		return int(res.RowsAffected), res.Error
	}

	res := tx.Where(column+" = ? AND user_id = ?", id, userID).Delete(row)
	return -int(res.RowsAffected), res.Error
}

func updateReplyByAuthor(ctx context.Context, postID, replyID uint, fields map[string]interface{}) (*model.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	reply, err := findReply(postID, replyID)
	if err != nil {
		return nil, err
	}
	if reply.UserID != userID {
		return nil, fmt.Errorf("%w: not author", storage.ErrForbidden)
	}
	if reply.IsDeleted {
		return nil, fmt.Errorf("reply %d: %w", replyID, storage.ErrNotFound)
	}

	err = DB.Model(reply).Updates(fields).Error
	if err != nil {
		return nil, fmt.Errorf("could not update reply: %w", err)
	}

	return getReplyModel(postID, replyID)
}

func findReply(postID, replyID uint) (*models.ForumReply, error) {
	var reply models.ForumReply
	err := DB.Where("post_id = ?", postID).First(&reply, replyID).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("reply %d: %w", replyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get reply: %w", err)
	}
	return &reply, nil
}

func getReplyModel(postID, replyID uint) (*model.Reply, error) {
	reply, err := findReply(postID, replyID)
	if err != nil {
		return nil, err
	}
	items, err := toReplyModels([]models.ForumReply{*reply})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// toReplyModels дополняет ответы именами авторов и числом прямых ответов
func toReplyModels(replies []models.ForumReply) ([]*model.Reply, error) {
	items := []*model.Reply{}
	if len(replies) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(replies))
	authorIDs := make([]uint, 0, len(replies))
	for _, r := range replies {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.UserID)
	}

	names, err := usernames(authorIDs)
	if err != nil {
		return nil, err
	}

	counts, err := childCounts(ids)
	if err != nil {
		return nil, err
	}

	for i := range replies {
		r := toReplyModel(&replies[i])
		r.AuthorName = names[replies[i].UserID]
		r.RepliesCount = counts[replies[i].ID]
		items = append(items, r)
	}
	return items, nil
}

func childCounts(parentIDs []uint) (map[uint]int, error) {
	rows, err := DB.Model(&models.ForumReply{}).
		Select("parent_reply_id, count(*)").
		Where("parent_reply_id IN (?)", parentIDs).
		Group("parent_reply_id").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("could not count nested replies: %w", err)
	}
	defer rows.Close()

	counts := make(map[uint]int)
	for rows.Next() {
		var parentID uint
		var count int
		if err := rows.Scan(&parentID, &count); err != nil {
			return nil, fmt.Errorf("could not scan nested replies count: %w", err)
		}
		counts[parentID] = count
	}
	return counts, rows.Err()
}

func toReplyModel(r *models.ForumReply) *model.Reply {
	result := &model.Reply{
		ID:         r.ID,
		PostID:     r.PostID,
		UserID:     r.UserID,
		Content:    r.Content,
		LikesCount: r.LikesCount,
		IsSolution: r.IsSolution,
		IsDeleted:  r.IsDeleted,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if r.ParentReplyID != nil {
		pid := *r.ParentReplyID
		result.ParentReplyID = &pid
	}
	return result
}
