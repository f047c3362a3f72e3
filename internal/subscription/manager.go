package subscription

import (
	"sync"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/model"
)

const publishTimeout = 500 * time.Millisecond

type SubscriptionManager struct {
	mu   sync.Mutex
	subs map[uint][]chan *model.Reply // postID -> каналы подписчиков
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subs: make(map[uint][]chan *model.Reply),
	}
}

func (m *SubscriptionManager) Subscribe(postID uint) (<-chan *model.Reply, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *model.Reply, 1) // буфер 1, чтобы не блокировался писатель

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

// Publish рассылает ответ подписчикам поста.
// Медленный подписчик пропускает сообщение после publishTimeout.
func (m *SubscriptionManager) Publish(postID uint, reply *model.Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[postID] {
		select {
		case sub <- reply:
		case <-time.After(publishTimeout):
		}
	}
}

// Count возвращает число активных подписчиков поста
func (m *SubscriptionManager) Count(postID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[postID])
}
