// Package model содержит типы, которые отдает REST API и потребляет клиент.
package model

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Category struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	Color         string `json:"color,omitempty"`
	OrderPosition int    `json:"order_position"`
	IsActive      bool   `json:"is_active"`
	PostsCount    int    `json:"posts_count"`
}

type Post struct {
	ID           uint     `json:"id"`
	CategoryID   uint     `json:"category_id"`
	UserID       uint     `json:"user_id"`
	AuthorName   string   `json:"author_name,omitempty"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Slug         string   `json:"slug"`
	Tags         []string `json:"tags,omitempty"`
	ViewsCount   int      `json:"views_count"`
	RepliesCount int      `json:"replies_count"`
	LikesCount   int      `json:"likes_count"`
	IsPinned     bool     `json:"is_pinned"`
	IsLocked     bool     `json:"is_locked"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// Reply - один ответ в обсуждении поста.
// NestedReplies заполняется только при построении дерева (thread.Build),
// в плоском списке от сервера его нет.
type Reply struct {
	ID            uint     `json:"id"`
	PostID        uint     `json:"post_id"`
	UserID        uint     `json:"user_id"`
	ParentReplyID *uint    `json:"parent_reply_id,omitempty"`
	AuthorName    string   `json:"author_name,omitempty"`
	Content       string   `json:"content"`
	LikesCount    int      `json:"likes_count"`
	IsSolution    bool     `json:"is_solution"`
	IsDeleted     bool     `json:"is_deleted"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	RepliesCount  int      `json:"replies_count"`
	NestedReplies []*Reply `json:"nested_replies,omitempty"`
}

// ReplyPage - страница плоского списка ответов поста.
type ReplyPage struct {
	Items []*Reply
	Page  int
	Limit int
	Total int
}

type PostPage struct {
	Items []*Post
	Page  int
	Limit int
	Total int
}

// PostFilter - параметры выборки постов.
type PostFilter struct {
	CategoryID uint
	Search     string
	Page       int
	Limit      int
}
