package category

import (
	"github.com/VitaminP8/alumni-forum/internal/model"
)

type CategoryStorage interface {
	CreateCategory(name, description, color string, orderPosition int) (*model.Category, error)
	ListCategories() ([]*model.Category, error)
}
