// Package client - HTTP-клиент API форума. Дерево ответов собирается на клиенте
// из плоского списка, поэтому клиент переживает битые данные на сервере.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/thread"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultPageLimit = 200

type Client struct {
	baseURL   string
	http      *retryablehttp.Client
	token     string
	logger    *slog.Logger
	pageLimit int
}

type Option func(*Client)

// WithToken добавляет Authorization: Bearer ко всем запросам
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithRetryMax(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

// WithRetryWait задает границы паузы между повторами
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// WithPageLimit - размер страницы, которой Thread выкачивает ответы
func WithPageLimit(limit int) Option {
	return func(c *Client) { c.pageLimit = limit }
}

func New(baseURL string, opts ...Option) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = 15 * time.Second
	// последний ответ нужен, чтобы прочитать ошибку из конверта
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.CheckRetry = checkRetry

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		logger:    slog.Default(),
		pageLimit: defaultPageLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Logger = c.logger
	return c
}

type noRetryKey struct{}

// checkRetry не повторяет неидемпотентные запросы: сервер мог сохранить
// ответ и упасть уже после этого
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if ctx.Value(noRetryKey{}) != nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// APIError - ответ сервера со статусом не 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Total      *int            `json:"total"`
	Pagination *pagination     `json:"pagination"`
	Error      string          `json:"error"`
}

type repliesPage struct {
	items      []*model.Reply
	totalPages int
}

// ListReplies возвращает одну страницу плоского списка ответов
func (c *Client) ListReplies(ctx context.Context, postID uint, page, limit int) ([]*model.Reply, error) {
	p, err := c.listReplies(ctx, postID, page, limit)
	if err != nil {
		return nil, err
	}
	return p.items, nil
}

// Thread выкачивает все страницы ответов поста и собирает их в дерево
func (c *Client) Thread(ctx context.Context, postID uint) (*thread.Forest, error) {
	var all []*model.Reply
	for page := 1; ; page++ {
		p, err := c.listReplies(ctx, postID, page, c.pageLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, p.items...)

		if page >= p.totalPages || len(p.items) == 0 {
			break
		}
	}

	forest := thread.Build(all)
	if len(forest.Excluded) > 0 {
		c.logger.Warn("replies excluded from thread", "post_id", postID, "excluded", len(forest.Excluded))
	}
	return forest, nil
}

// CreateReply отправляет ответ; parentID == nil - ответ верхнего уровня
func (c *Client) CreateReply(ctx context.Context, postID uint, parentID *uint, content string) (*model.Reply, error) {
	path := fmt.Sprintf("/api/forums/posts/%d/replies", postID)
	if parentID != nil {
		path = fmt.Sprintf("/api/forums/posts/%d/replies/%d/reply", postID, *parentID)
	}

	env, err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	var reply model.Reply
	if err := json.Unmarshal(env.Data, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	return &reply, nil
}

func (c *Client) listReplies(ctx context.Context, postID uint, page, limit int) (*repliesPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := fmt.Sprintf("/api/forums/posts/%d/replies", postID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	result := &repliesPage{items: []*model.Reply{}}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result.items); err != nil {
			return nil, fmt.Errorf("failed to decode replies: %w", err)
		}
	}
	if env.Pagination != nil {
		result.totalPages = env.Pagination.TotalPages
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	if !idempotent(method) {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &env, nil
}
