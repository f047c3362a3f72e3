package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/internal/thread"
)

// Response - общий конверт всех ответов API
type Response struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       interface{}        `json:"data,omitempty"`
	Total      *int               `json:"total,omitempty"`
	Pagination *Pagination        `json:"pagination,omitempty"`
	Excluded   []thread.Exclusion `json:"excluded,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

var errBadRequest = errors.New("bad request")

func newPagination(page, limit, total int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, TotalPages: pages}
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (a *API) ok(w http.ResponseWriter, status int, resp Response) {
	resp.Success = true
	writeJSON(w, status, resp)
}

// fail переводит ошибку хранилища в HTTP-статус
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "request_id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, Response{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, storage.ErrInvalidContent),
		errors.Is(err, storage.ErrInvalidTitle),
		errors.Is(err, storage.ErrParentOtherPost):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnauthorized),
		errors.Is(err, storage.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrParentNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrLocked),
		errors.Is(err, storage.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func intPtr(v int) *int {
	return &v
}

// errorf - ошибка некорректного запроса (400)
func errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{errBadRequest}, args...)...)
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errorf("invalid request body")
	}
	return nil
}
