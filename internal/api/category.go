package api

import (
	"net/http"
)

type categoryRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	OrderPosition int    `json:"order_position"`
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categories.ListCategories()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Data: categories, Total: intPtr(len(categories))})
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	category, err := a.categories.CreateCategory(req.Name, req.Description, req.Color, req.OrderPosition)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, Response{Message: "Category created", Data: category})
}
