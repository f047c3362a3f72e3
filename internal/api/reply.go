package api

import (
	"net/http"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/thread"
	"github.com/go-chi/chi/v5"
)

type replyRequest struct {
	Content string `json:"content"`
}

func (a *API) listReplies(w http.ResponseWriter, r *http.Request) {
	page, ok := a.replyPage(w, r)
	if !ok {
		return
	}

	a.ok(w, http.StatusOK, Response{
		Data:       page.Items,
		Total:      intPtr(page.Total),
		Pagination: newPagination(page.Page, page.Limit, page.Total),
	})
}

// replyTree собирает страницу ответов в дерево.
// Ответы, чей родитель на другой странице, попадают в excluded.
func (a *API) replyTree(w http.ResponseWriter, r *http.Request) {
	page, ok := a.replyPage(w, r)
	if !ok {
		return
	}

	forest := thread.Build(page.Items)
	a.metrics.ObserveForest(forest)

	if len(forest.Excluded) > 0 {
		a.logger.Warn("replies excluded from thread",
			"request_id", RequestIDFromContext(r.Context()),
			"post_id", chi.URLParam(r, "id"),
			"excluded", len(forest.Excluded),
		)
	}

	a.ok(w, http.StatusOK, Response{
		Data:       forest.Replies,
		Total:      intPtr(page.Total),
		Pagination: newPagination(page.Page, page.Limit, page.Total),
		Excluded:   forest.Excluded,
	})
}

func (a *API) replyPage(w http.ResponseWriter, r *http.Request) (*model.ReplyPage, bool) {
	postID, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	pageNum, limit, err := pageParams(r)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}

	page, err := a.replies.ListReplies(postID, pageNum, limit)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return page, true
}

func (a *API) nestedReplies(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	children, err := a.replies.GetNestedReplies(postID, replyID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Data: children, Total: intPtr(len(children))})
}

func (a *API) createReply(w http.ResponseWriter, r *http.Request) {
	postID, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.saveReply(w, r, postID, nil)
}

func (a *API) createNestedReply(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}
	a.saveReply(w, r, postID, &replyID)
}

func (a *API) saveReply(w http.ResponseWriter, r *http.Request, postID uint, parentID *uint) {
	var req replyRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	created, err := a.replies.CreateReply(r.Context(), postID, parentID, req.Content)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, Response{Message: "Reply created", Data: created})
}

func (a *API) updateReply(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	var req replyRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	updated, err := a.replies.UpdateReply(r.Context(), postID, replyID, req.Content)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Reply updated", Data: updated})
}

func (a *API) deleteReply(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	if err := a.replies.DeleteReply(r.Context(), postID, replyID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Reply deleted"})
}

func (a *API) likeReply(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	liked, err := a.replies.LikeReply(r.Context(), postID, replyID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Reply liked", Data: liked})
}

func (a *API) unlikeReply(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	unliked, err := a.replies.UnlikeReply(r.Context(), postID, replyID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Reply unliked", Data: unliked})
}

func (a *API) markSolution(w http.ResponseWriter, r *http.Request) {
	postID, replyID, ok := a.replyIDs(w, r)
	if !ok {
		return
	}

	solved, err := a.replies.MarkSolution(r.Context(), postID, replyID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, Response{Message: "Reply marked as solution", Data: solved})
}

func (a *API) replyIDs(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	postID, err := urlID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return 0, 0, false
	}
	replyID, err := urlID(r, "replyID")
	if err != nil {
		a.fail(w, r, err)
		return 0, 0, false
	}
	return postID, replyID, true
}
