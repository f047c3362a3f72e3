package postgres

import (
	"fmt"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/models"
)

type CategoryPostgresStorage struct{}

func NewCategoryPostgresStorage() *CategoryPostgresStorage {
	return &CategoryPostgresStorage{}
}

func (s *CategoryPostgresStorage) CreateCategory(name, description, color string, orderPosition int) (*model.Category, error) {
	if err := storage.ValidTitle(name); err != nil {
		return nil, err
	}

	category := &models.ForumCategory{
		Name:          name,
		Slug:          storage.Slugify(name),
		Description:   description,
		Color:         color,
		OrderPosition: orderPosition,
		IsActive:      true,
	}

	if err := DB.Create(category).Error; err != nil {
		return nil, fmt.Errorf("could not create category: %w", err)
	}

	return toCategoryModel(category), nil
}

func (s *CategoryPostgresStorage) ListCategories() ([]*model.Category, error) {
	var categories []models.ForumCategory
	err := DB.Where("is_active = ?", true).
		Order("order_position asc").Order("id asc").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("could not get categories: %w", err)
	}

	result := []*model.Category{}
	for i := range categories {
		result = append(result, toCategoryModel(&categories[i]))
	}
	return result, nil
}

func toCategoryModel(c *models.ForumCategory) *model.Category {
	return &model.Category{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Description:   c.Description,
		Color:         c.Color,
		OrderPosition: c.OrderPosition,
		IsActive:      c.IsActive,
	}
}
