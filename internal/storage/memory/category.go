package memory

import (
	"sort"
	"sync"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
)

type CategoryMemoryStorage struct {
	mu         sync.Mutex
	categories map[uint]*model.Category
	nextID     uint
}

func NewCategoryMemoryStorage() *CategoryMemoryStorage {
	return &CategoryMemoryStorage{
		categories: make(map[uint]*model.Category),
		nextID:     1,
	}
}

func (s *CategoryMemoryStorage) CreateCategory(name, description, color string, orderPosition int) (*model.Category, error) {
	if err := storage.ValidTitle(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category := &model.Category{
		ID:            s.nextID,
		Name:          name,
		Slug:          storage.Slugify(name),
		Description:   description,
		Color:         color,
		OrderPosition: orderPosition,
		IsActive:      true,
	}
	s.nextID++
	s.categories[category.ID] = category

	result := *category
	return &result, nil
}

// ListCategories - активные категории по order_position
func (s *CategoryMemoryStorage) ListCategories() ([]*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []*model.Category{}
	for _, c := range s.categories {
		if !c.IsActive {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderPosition == result[j].OrderPosition {
			return result[i].ID < result[j].ID
		}
		return result[i].OrderPosition < result[j].OrderPosition
	})
	return result, nil
}
