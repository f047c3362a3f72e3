package models

import "github.com/jinzhu/gorm"

type User struct {
	gorm.Model
	Username string `gorm:"unique"`
	Email    string `gorm:"unique"`
	Password string
	Posts    []Post       `gorm:"foreignkey:UserID"`
	Replies  []ForumReply `gorm:"foreignkey:UserID"`
}

type ForumCategory struct {
	gorm.Model
	Name          string
	Slug          string `gorm:"unique_index"`
	Description   string
	Color         string
	OrderPosition int
	IsActive      bool `gorm:"default:true"`
}

type Post struct {
	gorm.Model
	CategoryID   uint `gorm:"index"`
	UserID       uint
	Title        string
	Content      string `gorm:"type:text"`
	Slug         string
	Tags         string // через запятую
	ViewsCount   int
	RepliesCount int
	LikesCount   int
	IsPinned     bool
	IsLocked     bool
	Replies      []ForumReply `gorm:"foreignkey:PostID"`
}

type ForumReply struct {
	gorm.Model
	PostID        uint `gorm:"index"`
	UserID        uint
	ParentReplyID *uint  `gorm:"index"`
	Content       string `gorm:"type:text"`
	LikesCount    int
	IsSolution    bool
	IsDeleted     bool
}

// ReplyLike - лайк ответа пользователем, пара (ReplyID, UserID) уникальна
type ReplyLike struct {
	ReplyID uint `gorm:"primary_key;auto_increment:false"`
	UserID  uint `gorm:"primary_key;auto_increment:false"`
}

// PostLike - лайк поста, устроен как ReplyLike
type PostLike struct {
	PostID uint `gorm:"primary_key;auto_increment:false"`
	UserID uint `gorm:"primary_key;auto_increment:false"`
}
