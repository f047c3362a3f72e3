package memory

import (
	"context"
	"testing"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUserContext(userID uint) context.Context {
	ctx := context.Background()
	return auth.WithUser(ctx, userID, "user")
}

func TestPostMemoryStorage_CreatePost(t *testing.T) {
	posts := NewPostMemoryStorage()
	ctx := createUserContext(1)

	t.Run("Successful post creation", func(t *testing.T) {
		post, err := posts.CreatePost(ctx, 2, "Class of 2010 Reunion", "Who is coming?", []string{"reunion"})
		require.NoError(t, err)
		assert.NotZero(t, post.ID)
		assert.Equal(t, uint(2), post.CategoryID)
		assert.Equal(t, uint(1), post.UserID)
		assert.Equal(t, "user", post.AuthorName)
		assert.Equal(t, "class-of-2010-reunion-1", post.Slug)
		assert.Equal(t, []string{"reunion"}, post.Tags)
		assert.False(t, post.IsLocked)
	})

	t.Run("Error when no authorization", func(t *testing.T) {
		_, err := posts.CreatePost(context.Background(), 1, "Title", "Content", nil)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)
	})

	t.Run("Error on empty title or content", func(t *testing.T) {
		_, err := posts.CreatePost(ctx, 1, "", "Content", nil)
		assert.ErrorIs(t, err, storage.ErrInvalidTitle)

		_, err = posts.CreatePost(ctx, 1, "Title", "", nil)
		assert.ErrorIs(t, err, storage.ErrInvalidContent)
	})
}

func TestPostMemoryStorage_ListPosts(t *testing.T) {
	posts := NewPostMemoryStorage()
	ctx := createUserContext(1)

	first, err := posts.CreatePost(ctx, 1, "Career fair", "Booths and talks", nil)
	require.NoError(t, err)
	second, err := posts.CreatePost(ctx, 2, "Mentoring program", "Looking for mentors", nil)
	require.NoError(t, err)
	third, err := posts.CreatePost(ctx, 1, "Alumni football", "Sunday match", nil)
	require.NoError(t, err)

	t.Run("Newest first", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 3)
		assert.Equal(t, third.ID, page.Items[0].ID)
		assert.Equal(t, first.ID, page.Items[2].ID)
	})

	t.Run("Pinned posts go first", func(t *testing.T) {
		require.NoError(t, posts.PinPost(ctx, first.ID))
		defer posts.UnpinPost(ctx, first.ID)

		page, err := posts.ListPosts(model.PostFilter{})
		require.NoError(t, err)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("Filter by category and search", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{CategoryID: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)

		page, err = posts.ListPosts(model.PostFilter{Search: "MENTOR"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, second.ID, page.Items[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		page, err := posts.ListPosts(model.PostFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Len(t, page.Items, 1)

		page, err = posts.ListPosts(model.PostFilter{Page: 5, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func TestPostMemoryStorage_Moderation(t *testing.T) {
	posts := NewPostMemoryStorage()
	ctx := createUserContext(1)
	other := createUserContext(2)

	post, err := posts.CreatePost(ctx, 1, "Title", "Content", nil)
	require.NoError(t, err)

	t.Run("Author locks and unlocks", func(t *testing.T) {
		require.NoError(t, posts.LockPost(ctx, post.ID))
		got, err := posts.GetPostByID(post.ID)
		require.NoError(t, err)
		assert.True(t, got.IsLocked)

		require.NoError(t, posts.UnlockPost(ctx, post.ID))
		got, err = posts.GetPostByID(post.ID)
		require.NoError(t, err)
		assert.False(t, got.IsLocked)
	})

	t.Run("Other user is forbidden", func(t *testing.T) {
		assert.ErrorIs(t, posts.LockPost(other, post.ID), storage.ErrForbidden)
		assert.ErrorIs(t, posts.DeletePostByID(other, post.ID), storage.ErrForbidden)
	})

	t.Run("Views and replies counters", func(t *testing.T) {
		require.NoError(t, posts.IncrementViews(post.ID))
		require.NoError(t, posts.AddRepliesCount(post.ID, 2))
		require.NoError(t, posts.AddRepliesCount(post.ID, -5))

		got, err := posts.GetPostByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ViewsCount)
		assert.Equal(t, 0, got.RepliesCount)
	})

	t.Run("Delete post", func(t *testing.T) {
		require.NoError(t, posts.DeletePostByID(ctx, post.ID))

		_, err := posts.GetPostByID(post.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, posts.DeletePostByID(ctx, post.ID), storage.ErrNotFound)
	})
}

func TestPostMemoryStorage_UpdatePost(t *testing.T) {
	posts := NewPostMemoryStorage()
	author := createUserContext(1)

	post, err := posts.CreatePost(author, 1, "Reunion", "Saturday", []string{"old"})
	require.NoError(t, err)

	t.Run("Author updates the post", func(t *testing.T) {
		updated, err := posts.UpdatePost(author, post.ID, "Reunion moved", "Sunday", []string{"new"})
		require.NoError(t, err)
		assert.Equal(t, "Reunion moved", updated.Title)
		assert.Equal(t, "Sunday", updated.Content)
		assert.Equal(t, []string{"new"}, updated.Tags)
		assert.Equal(t, post.Slug, updated.Slug)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := posts.UpdatePost(createUserContext(2), post.ID, "Mine", "Mine", nil)
		assert.ErrorIs(t, err, storage.ErrForbidden)

		_, err = posts.UpdatePost(context.Background(), post.ID, "T", "C", nil)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)

		_, err = posts.UpdatePost(author, 999, "T", "C", nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = posts.UpdatePost(author, post.ID, "", "C", nil)
		assert.ErrorIs(t, err, storage.ErrInvalidTitle)
	})
}

func TestPostMemoryStorage_Likes(t *testing.T) {
	posts := NewPostMemoryStorage()
	post, err := posts.CreatePost(createUserContext(1), 1, "Reunion", "Saturday", nil)
	require.NoError(t, err)

	liked, err := posts.LikePost(createUserContext(2), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount)

	// повторный лайк не меняет счетчик
	liked, err = posts.LikePost(createUserContext(2), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount)

	liked, err = posts.LikePost(createUserContext(3), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, liked.LikesCount)

	unliked, err := posts.UnlikePost(createUserContext(2), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unliked.LikesCount)

	unliked, err = posts.UnlikePost(createUserContext(2), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unliked.LikesCount)

	_, err = posts.LikePost(createUserContext(2), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = posts.LikePost(context.Background(), post.ID)
	assert.ErrorIs(t, err, storage.ErrUnauthorized)
}

func TestPostMemoryStorage_ReturnsCopies(t *testing.T) {
	posts := NewPostMemoryStorage()
	ctx := createUserContext(1)

	post, err := posts.CreatePost(ctx, 1, "Title", "Content", []string{"a"})
	require.NoError(t, err)

	post.Title = "changed"
	post.Tags[0] = "changed"

	got, err := posts.GetPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)
}
