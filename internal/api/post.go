package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/VitaminP8/alumni-forum/internal/model"
)

type postRequest struct {
	CategoryID uint     `json:"category_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	categoryID, err := queryInt(r, "category_id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	result, err := a.posts.ListPosts(model.PostFilter{
		CategoryID: uint(categoryID),
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, Response{
		Data:       result.Items,
		Total:      intPtr(result.Total),
		Pagination: newPagination(result.Page, result.Limit, result.Total),
	})
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.CategoryID == 0 {
		a.fail(w, r, errorf("category_id is required"))
		return
	}

	post, err := a.posts.CreatePost(r.Context(), req.CategoryID, req.Title, req.Content, req.Tags)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, Response{Message: "Post created", Data: post})
}

// getPost увеличивает счетчик просмотров
func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.posts.IncrementViews(id); err != nil {
		a.fail(w, r, err)
		return
	}

	post, err := a.posts.GetPostByID(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Data: post})
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req postRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	post, err := a.posts.UpdatePost(r.Context(), id, req.Title, req.Content, req.Tags)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Post updated", Data: post})
}

func (a *API) likePost(action func(ctx context.Context, id uint) (*model.Post, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			a.fail(w, r, err)
			return
		}

		post, err := action(r.Context(), id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.ok(w, http.StatusOK, Response{Message: message, Data: post})
	}
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.posts.DeletePostByID(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Post deleted"})
}

// moderate - общий обработчик lock/unlock/pin/unpin
func (a *API) moderate(action func(ctx context.Context, id uint) error, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			a.fail(w, r, err)
			return
		}

		if err := action(r.Context(), id); err != nil {
			a.fail(w, r, err)
			return
		}

		post, err := a.posts.GetPostByID(id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.ok(w, http.StatusOK, Response{Message: message, Data: post})
	}
}
