package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/api"
	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/mocks"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/reply"
	"github.com/VitaminP8/alumni-forum/internal/storage/memory"
	"github.com/VitaminP8/alumni-forum/internal/subscription"
	"github.com/VitaminP8/alumni-forum/internal/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	url     string
	postID  uint
	replies reply.ReplyStorage
	subs    *subscription.SubscriptionManager
}

// setupServer поднимает настоящий API на in-memory хранилищах с одним постом
func setupServer(t *testing.T, replies reply.ReplyStorage) *testServer {
	t.Helper()

	posts := memory.NewPostMemoryStorage()
	subs := subscription.NewSubscriptionManager()
	if replies == nil {
		replies = memory.NewReplyMemoryStorage(posts, subs)
	}

	a := api.New(api.Args{
		Posts:      posts,
		Replies:    replies,
		Users:      memory.NewUserMemoryStorage(testSecret, time.Hour),
		Categories: memory.NewCategoryMemoryStorage(),
		Subs:       subs,
		JWTSecret:  testSecret,
	})
	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)

	post, err := posts.CreatePost(userCtx(), 1, "Class of 2010 Reunion", "Who is coming?", nil)
	require.NoError(t, err)

	return &testServer{url: server.URL, postID: post.ID, replies: replies, subs: subs}
}

func userCtx() context.Context {
	return auth.WithUser(context.Background(), 1, "alice")
}

func (s *testServer) addReply(t *testing.T, parentID *uint, content string) *model.Reply {
	t.Helper()
	r, err := s.replies.CreateReply(userCtx(), s.postID, parentID, content)
	require.NoError(t, err)
	return r
}

func TestClient_ListReplies(t *testing.T) {
	srv := setupServer(t, nil)
	a := srv.addReply(t, nil, "A")
	srv.addReply(t, &a.ID, "B")
	srv.addReply(t, nil, "C")

	c := New(srv.url)

	replies, err := c.ListReplies(context.Background(), srv.postID, 1, 2)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "A", replies[0].Content)
	assert.Equal(t, "B", replies[1].Content)

	replies, err = c.ListReplies(context.Background(), srv.postID, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestClient_ThreadFetchesAllPages(t *testing.T) {
	srv := setupServer(t, nil)
	a := srv.addReply(t, nil, "A")
	b := srv.addReply(t, &a.ID, "B")
	srv.addReply(t, nil, "C")
	srv.addReply(t, &b.ID, "D")
	srv.addReply(t, &a.ID, "E")

	// родитель и ребенок на разных страницах все равно собираются вместе
	c := New(srv.url, WithPageLimit(2))

	forest, err := c.Thread(context.Background(), srv.postID)
	require.NoError(t, err)
	assert.Empty(t, forest.Excluded)
	assert.Equal(t, 5, forest.Len())

	require.Len(t, forest.Replies, 2)
	assert.Equal(t, "A", forest.Replies[0].Content)
	require.Len(t, forest.Replies[0].NestedReplies, 2)
	assert.Equal(t, "B", forest.Replies[0].NestedReplies[0].Content)
	assert.Equal(t, "E", forest.Replies[0].NestedReplies[1].Content)
	assert.Equal(t, "D", forest.Replies[0].NestedReplies[0].NestedReplies[0].Content)
}

func TestClient_ThreadEmptyPost(t *testing.T) {
	srv := setupServer(t, nil)

	forest, err := New(srv.url).Thread(context.Background(), srv.postID)
	require.NoError(t, err)
	assert.NotNil(t, forest.Replies)
	assert.Empty(t, forest.Replies)
	assert.Empty(t, forest.Excluded)
}

func TestClient_ThreadMalformedData(t *testing.T) {
	replies := mocks.NewMockReplyStorage()
	srv := setupServer(t, replies)

	p := func(id uint) *uint { return &id }
	replies.SetReplies(srv.postID,
		&model.Reply{ID: 1, Content: "root"},
		&model.Reply{ID: 2, ParentReplyID: p(99), Content: "dangling"},
		&model.Reply{ID: 3, ParentReplyID: p(3), Content: "self"},
	)

	forest, err := New(srv.url).Thread(context.Background(), srv.postID)
	require.NoError(t, err)
	require.Len(t, forest.Replies, 1)
	assert.Equal(t, map[thread.Reason]int{
		thread.ReasonDanglingParent: 1,
		thread.ReasonSelfReference:  1,
	}, forest.ExcludedByReason())
}

func TestClient_CreateReply(t *testing.T) {
	srv := setupServer(t, nil)

	t.Run("Without token", func(t *testing.T) {
		_, err := New(srv.url).CreateReply(context.Background(), srv.postID, nil, "hello")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("With token", func(t *testing.T) {
		token, err := auth.IssueToken(testSecret, 2, "bob", time.Hour)
		require.NoError(t, err)
		c := New(srv.url, WithToken(token))

		parent, err := c.CreateReply(context.Background(), srv.postID, nil, "hello")
		require.NoError(t, err)
		assert.Equal(t, "bob", parent.AuthorName)

		child, err := c.CreateReply(context.Background(), srv.postID, &parent.ID, "nested")
		require.NoError(t, err)
		require.NotNil(t, child.ParentReplyID)
		assert.Equal(t, parent.ID, *child.ParentReplyID)
	})
}

func TestClient_APIError(t *testing.T) {
	srv := setupServer(t, nil)

	_, err := New(srv.url).ListReplies(context.Background(), 999, 1, 10)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestClient_Retries(t *testing.T) {
	t.Run("Recovers after server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":    true,
				"data":       []model.Reply{{ID: 1, Content: "A"}},
				"pagination": map[string]int{"page": 1, "limit": 50, "total_pages": 1},
			})
		}))
		defer server.Close()

		c := New(server.URL, WithRetryMax(3), WithRetryWait(time.Millisecond, 5*time.Millisecond))
		replies, err := c.ListReplies(context.Background(), 1, 1, 50)
		require.NoError(t, err)
		require.Len(t, replies, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Gives up with the last error", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "internal server error"})
		}))
		defer server.Close()

		c := New(server.URL, WithRetryMax(1), WithRetryWait(time.Millisecond, 5*time.Millisecond))
		_, err := c.ListReplies(context.Background(), 1, 1, 50)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "internal server error", apiErr.Message)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("POST is sent once", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := New(server.URL, WithToken("t"), WithRetryMax(3), WithRetryWait(time.Millisecond, 5*time.Millisecond))
		_, err := c.CreateReply(context.Background(), 1, nil, "only once")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_WatchThread(t *testing.T) {
	srv := setupServer(t, nil)
	srv.addReply(t, nil, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *thread.Forest, 10)
	done := make(chan error, 1)
	go func() {
		done <- New(srv.url).WatchThread(ctx, srv.postID, 20*time.Millisecond, func(f *thread.Forest) {
			updates <- f
		})
	}()

	first := <-updates
	assert.Equal(t, 1, first.Len())

	// без изменений fn не вызывается
	select {
	case <-updates:
		t.Fatal("unexpected update without changes")
	case <-time.After(100 * time.Millisecond):
	}

	srv.addReply(t, nil, "B")

	select {
	case second := <-updates:
		assert.Equal(t, 2, second.Len())
	case <-time.After(2 * time.Second):
		t.Fatal("change was not noticed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchThread did not return after cancel")
	}
}

func TestClient_StreamReplies(t *testing.T) {
	srv := setupServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *model.Reply, 1)
	done := make(chan error, 1)
	go func() {
		done <- New(srv.url).StreamReplies(ctx, srv.postID, func(r *model.Reply) {
			received <- r
		})
	}()

	require.Eventually(t, func() bool { return srv.subs.Count(srv.postID) == 1 }, 2*time.Second, 10*time.Millisecond)

	created := srv.addReply(t, nil, "live")

	select {
	case r := <-received:
		assert.Equal(t, created.ID, r.ID)
		assert.Equal(t, "live", r.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("reply was not streamed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StreamReplies did not return after cancel")
	}

	t.Run("Unknown post", func(t *testing.T) {
		err := New(srv.url).StreamReplies(context.Background(), 999, func(*model.Reply) {})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}
