package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
)

// MockReplyStorage отдает заранее заданный плоский список ответов.
// Нужен, чтобы проверить API на данных, которые настоящее хранилище
// создать не даст (висячие родители, циклы), и на ошибках хранилища.
type MockReplyStorage struct {
	mu      sync.Mutex
	Replies map[uint][]*model.Reply // postID -> ответы в порядке выдачи
	Err     error                   // если задана, возвращается из всех методов
	Calls   int
}

func NewMockReplyStorage() *MockReplyStorage {
	return &MockReplyStorage{
		Replies: make(map[uint][]*model.Reply),
	}
}

func (m *MockReplyStorage) SetReplies(postID uint, replies ...*model.Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies[postID] = replies
}

func (m *MockReplyStorage) CreateReply(ctx context.Context, postID uint, parentID *uint, content string) (*model.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}

	reply := &model.Reply{
		ID:            uint(len(m.Replies[postID]) + 1),
		PostID:        postID,
		ParentReplyID: parentID,
		Content:       content,
	}
	m.Replies[postID] = append(m.Replies[postID], reply)
	return reply, nil
}

func (m *MockReplyStorage) ListReplies(postID uint, page, limit int) (*model.ReplyPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}

	page, limit = storage.NormalizePage(page, limit)
	all := m.Replies[postID]
	result := &model.ReplyPage{Items: []*model.Reply{}, Page: page, Limit: limit, Total: len(all)}

	offset := (page - 1) * limit
	if offset >= len(all) {
		return result, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	result.Items = append(result.Items, all[offset:end]...)
	return result, nil
}

func (m *MockReplyStorage) GetNestedReplies(postID, replyID uint) ([]*model.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}

	children := []*model.Reply{}
	for _, r := range m.Replies[postID] {
		if r.ParentReplyID != nil && *r.ParentReplyID == replyID {
			children = append(children, r)
		}
	}
	return children, nil
}

func (m *MockReplyStorage) UpdateReply(ctx context.Context, postID, replyID uint, content string) (*model.Reply, error) {
	return m.find(postID, replyID)
}

func (m *MockReplyStorage) DeleteReply(ctx context.Context, postID, replyID uint) error {
	_, err := m.find(postID, replyID)
	return err
}

func (m *MockReplyStorage) LikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return m.find(postID, replyID)
}

func (m *MockReplyStorage) UnlikeReply(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return m.find(postID, replyID)
}

func (m *MockReplyStorage) MarkSolution(ctx context.Context, postID, replyID uint) (*model.Reply, error) {
	return m.find(postID, replyID)
}

func (m *MockReplyStorage) find(postID, replyID uint) (*model.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.Replies[postID] {
		if r.ID == replyID {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}
