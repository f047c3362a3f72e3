package postgres

import (
	"context"
	"testing"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/VitaminP8/alumni-forum/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite" // Импортируем драйвер SQLite
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Создает контекст с ID и именем пользователя
func createUserContext(userID uint) context.Context {
	ctx := context.Background()
	return auth.WithUser(ctx, userID, "testuser")
}

// setupTestDB создает тестовую БД в памяти и выполняет миграции
func setupTestDB(t *testing.T) *gorm.DB {
	// Сохраняем оригинальное соединение (если оно есть)
	oldDB := GetDB()

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err, "Failed to connect to in-memory SQLite")

	// у каждого соединения своя :memory: база
	db.DB().SetMaxOpenConns(1)
	db.LogMode(false)

	InitDBWithConnection(db)
	require.NoError(t, Migrate(), "Failed to migrate database schema")

	t.Cleanup(func() { db.Close() })
	return oldDB
}

// teardownTestDB восстанавливает оригинальную базу данных
func teardownTestDB(db *gorm.DB) {
	InitDBWithConnection(db)
}

// createTestUser создает тестового пользователя и возвращает его ID
func createTestUser(t *testing.T, username string) uint {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}

	err := DB.Create(user).Error
	require.NoError(t, err, "Failed to create test user")

	return user.ID
}

// createTestPost создает тестовый пост напрямую в БД и возвращает его ID
func createTestPost(t *testing.T, userID uint, title string, locked bool) uint {
	post := &models.Post{
		CategoryID: 1,
		UserID:     userID,
		Title:      title,
		Content:    "content of " + title,
		IsLocked:   locked,
	}

	err := DB.Create(post).Error
	require.NoError(t, err, "Failed to create test post")

	return post.ID
}

func TestPostPostgresStorage_CreatePost(t *testing.T) {
	posts := NewPostPostgresStorage()

	t.Run("Success post creation", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "testuser")
		ctx := createUserContext(userID)

		post, err := posts.CreatePost(ctx, 3, "Class of 2010 Reunion", "Who is coming?", []string{"reunion", "2010"})
		require.NoError(t, err)
		assert.Equal(t, uint(3), post.CategoryID)
		assert.Equal(t, userID, post.UserID)
		assert.Equal(t, "testuser", post.AuthorName)
		assert.Equal(t, []string{"reunion", "2010"}, post.Tags)

		// Проверяем, что пост действительно создался в БД
		var dbPost models.Post
		require.NoError(t, DB.First(&dbPost, post.ID).Error)
		assert.Equal(t, "Class of 2010 Reunion", dbPost.Title)
		assert.Equal(t, post.Slug, dbPost.Slug)
		assert.Equal(t, "reunion,2010", dbPost.Tags)
	})

	t.Run("Error: no authorization", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		post, err := posts.CreatePost(context.Background(), 1, "Test Title", "Test Content", nil)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)
		assert.Nil(t, post)
	})

	t.Run("Error: empty title", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		_, err := posts.CreatePost(createUserContext(1), 1, "", "Test Content", nil)
		assert.ErrorIs(t, err, storage.ErrInvalidTitle)
	})
}

func TestPostPostgresStorage_GetPostByID(t *testing.T) {
	posts := NewPostPostgresStorage()

	t.Run("Getting exists post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author")
		postID := createTestPost(t, userID, "Career fair", false)

		post, err := posts.GetPostByID(postID)
		require.NoError(t, err)
		assert.Equal(t, postID, post.ID)
		assert.Equal(t, "Career fair", post.Title)
		assert.Equal(t, "author", post.AuthorName)
		assert.Nil(t, post.Tags)
	})

	t.Run("Trying to get not exist post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		post, err := posts.GetPostByID(999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, post)
	})
}

func TestPostPostgresStorage_ListPosts(t *testing.T) {
	posts := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	userID := createTestUser(t, "author")
	first := createTestPost(t, userID, "Career fair", false)
	second := createTestPost(t, userID, "Mentoring program", false)
	third := createTestPost(t, userID, "Alumni football", false)

	require.NoError(t, DB.Model(&models.Post{}).Where("id = ?", second).Update("category_id", 2).Error)

	t.Run("Newest first", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 3)
		assert.Equal(t, []uint{third, second, first}, []uint{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
		assert.Equal(t, "author", page.Items[0].AuthorName)
	})

	t.Run("Pinned posts go first", func(t *testing.T) {
		require.NoError(t, posts.PinPost(createUserContext(userID), first))
		defer func() { require.NoError(t, posts.UnpinPost(createUserContext(userID), first)) }()

		page, err := posts.ListPosts(model.PostFilter{})
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, first, page.Items[0].ID)
		assert.True(t, page.Items[0].IsPinned)
	})

	t.Run("Filter by category and search", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{CategoryID: 2})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, second, page.Items[0].ID)

		page, err = posts.ListPosts(model.PostFilter{Search: "FOOTBALL"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, third, page.Items[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, first, page.Items[0].ID)
	})
}

func TestPostPostgresStorage_Counters(t *testing.T) {
	posts := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	userID := createTestUser(t, "author")
	postID := createTestPost(t, userID, "Career fair", false)

	require.NoError(t, posts.IncrementViews(postID))
	require.NoError(t, posts.IncrementViews(postID))
	require.NoError(t, posts.AddRepliesCount(postID, 1))
	require.NoError(t, posts.AddRepliesCount(postID, -5))

	post, err := posts.GetPostByID(postID)
	require.NoError(t, err)
	assert.Equal(t, 2, post.ViewsCount)
	assert.Equal(t, 0, post.RepliesCount)

	assert.ErrorIs(t, posts.IncrementViews(999), storage.ErrNotFound)
	assert.ErrorIs(t, posts.AddRepliesCount(999, 1), storage.ErrNotFound)
}

func TestPostPostgresStorage_LockPost(t *testing.T) {
	posts := NewPostPostgresStorage()

	t.Run("Lock and unlock by author", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author")
		postID := createTestPost(t, userID, "Test Post", false)
		ctx := createUserContext(userID)

		require.NoError(t, posts.LockPost(ctx, postID))

		var post models.Post
		require.NoError(t, DB.First(&post, postID).Error)
		assert.True(t, post.IsLocked)

		require.NoError(t, posts.UnlockPost(ctx, postID))
		require.NoError(t, DB.First(&post, postID).Error)
		assert.False(t, post.IsLocked)
	})

	t.Run("Lock by not author", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author")
		anotherID := createTestUser(t, "another")
		postID := createTestPost(t, authorID, "Test Post", false)

		err := posts.LockPost(createUserContext(anotherID), postID)
		assert.ErrorIs(t, err, storage.ErrForbidden)

		var post models.Post
		require.NoError(t, DB.First(&post, postID).Error)
		assert.False(t, post.IsLocked)
	})

	t.Run("Lock not exists post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author")
		err := posts.LockPost(createUserContext(userID), 999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Lock by unauthorized user", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author")
		postID := createTestPost(t, userID, "Test Post", false)

		err := posts.LockPost(context.Background(), postID)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)
	})
}

func TestPostPostgresStorage_DeletePostByID(t *testing.T) {
	posts := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	authorID := createTestUser(t, "author")
	anotherID := createTestUser(t, "another")
	postID := createTestPost(t, authorID, "Test Post", false)

	err := posts.DeletePostByID(createUserContext(anotherID), postID)
	assert.ErrorIs(t, err, storage.ErrForbidden)

	require.NoError(t, posts.DeletePostByID(createUserContext(authorID), postID))

	_, err = posts.GetPostByID(postID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostPostgresStorage_UpdatePost(t *testing.T) {
	posts := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	authorID := createTestUser(t, "author")
	anotherID := createTestUser(t, "another")

	created, err := posts.CreatePost(createUserContext(authorID), 1, "Reunion", "Saturday", []string{"old"})
	require.NoError(t, err)

	updated, err := posts.UpdatePost(createUserContext(authorID), created.ID, "Reunion moved", "Sunday", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "Reunion moved", updated.Title)
	assert.Equal(t, "Sunday", updated.Content)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	assert.Equal(t, created.Slug, updated.Slug)
	assert.Equal(t, "author", updated.AuthorName)

	_, err = posts.UpdatePost(createUserContext(anotherID), created.ID, "Mine", "Mine", nil)
	assert.ErrorIs(t, err, storage.ErrForbidden)

	_, err = posts.UpdatePost(createUserContext(authorID), created.ID, "Title", "", nil)
	assert.ErrorIs(t, err, storage.ErrInvalidContent)

	_, err = posts.UpdatePost(createUserContext(authorID), 999, "Title", "Content", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostPostgresStorage_Likes(t *testing.T) {
	posts := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	authorID := createTestUser(t, "author")
	fanID := createTestUser(t, "fan")
	postID := createTestPost(t, authorID, "Test Post", false)

	liked, err := posts.LikePost(createUserContext(fanID), postID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount)

	// повторный лайк не меняет счетчик
	liked, err = posts.LikePost(createUserContext(fanID), postID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount)

	unliked, err := posts.UnlikePost(createUserContext(fanID), postID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikesCount)

	unliked, err = posts.UnlikePost(createUserContext(fanID), postID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikesCount)

	_, err = posts.LikePost(createUserContext(fanID), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = posts.LikePost(context.Background(), postID)
	assert.ErrorIs(t, err, storage.ErrUnauthorized)
}
