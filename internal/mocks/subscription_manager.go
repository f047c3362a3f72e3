package mocks

import (
	"sync"

	"github.com/VitaminP8/alumni-forum/internal/model"
)

// MockSubscriptionManager запоминает опубликованные ответы для проверок в тестах
type MockSubscriptionManager struct {
	mu            sync.Mutex
	subs          map[uint][]chan *model.Reply
	notifications map[uint][]*model.Reply
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		subs:          make(map[uint][]chan *model.Reply),
		notifications: make(map[uint][]*model.Reply),
	}
}

func (m *MockSubscriptionManager) Subscribe(postID uint) (<-chan *model.Reply, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// буфер побольше, чтобы Publish в тестах никогда не ждал
	ch := make(chan *model.Reply, 16)
	m.subs[postID] = append(m.subs[postID], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subscribers := m.subs[postID]
			for i, sub := range subscribers {
				if sub == ch {
					m.subs[postID] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}

	return ch, cancel
}

func (m *MockSubscriptionManager) Publish(postID uint, reply *model.Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[postID] {
		select {
		case sub <- reply:
		default:
		}
	}

	m.notifications[postID] = append(m.notifications[postID], reply)
}

// GetNotificationsForPost возвращает все ответы, опубликованные для поста
func (m *MockSubscriptionManager) GetNotificationsForPost(postID uint) []*model.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*model.Reply(nil), m.notifications[postID]...)
}
