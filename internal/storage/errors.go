// Package storage содержит ошибки, общие для всех реализаций хранилищ.
package storage

import (
	"errors"
	"math"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrLocked             = errors.New("post is locked")
	ErrInvalidContent     = errors.New("content is too long or empty")
	ErrInvalidTitle       = errors.New("title is too long or empty")
	ErrParentNotFound     = errors.New("parent reply not found")
	ErrParentOtherPost    = errors.New("parent reply belongs to a different post")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	MaxContentLen = 5000
	MaxTitleLen   = 200

	DefaultLimit = 50
	MaxLimit     = 200

	// MaxOffset - наибольшее смещение (page-1)*limit, допустимое и для SQL OFFSET
	MaxOffset = math.MaxInt32
)

// ValidContent проверяет длину текста поста или ответа
func ValidContent(content string) error {
	if len(content) == 0 || len(content) > MaxContentLen {
		return ErrInvalidContent
	}
	return nil
}

func ValidTitle(title string) error {
	if len(title) == 0 || len(title) > MaxTitleLen {
		return ErrInvalidTitle
	}
	return nil
}

// NormalizePage приводит page/limit к допустимым значениям (page с 1)
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// страница дальше MaxOffset все равно пустая
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, limit
}
