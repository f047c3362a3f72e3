// Package api - REST API форума поверх chi.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/auth"
	"github.com/VitaminP8/alumni-forum/internal/category"
	"github.com/VitaminP8/alumni-forum/internal/metrics"
	"github.com/VitaminP8/alumni-forum/internal/post"
	"github.com/VitaminP8/alumni-forum/internal/reply"
	"github.com/VitaminP8/alumni-forum/internal/subscription"
	"github.com/VitaminP8/alumni-forum/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type API struct {
	r *chi.Mux

	posts      post.PostStorage
	replies    reply.ReplyStorage
	users      user.UserStorage
	categories category.CategoryStorage
	subs       subscription.Manager

	logger         *slog.Logger
	metrics        *metrics.Metrics
	jwtSecret      string
	wsWriteTimeout time.Duration
}

type Args struct {
	Posts      post.PostStorage
	Replies    reply.ReplyStorage
	Users      user.UserStorage
	Categories category.CategoryStorage
	Subs       subscription.Manager

	Logger    *slog.Logger
	JWTSecret string
	// Metrics и MetricsHandler могут быть nil, тогда /metrics не подключается
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	WSWriteTimeout time.Duration
}

func New(args Args) *API {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}
	if args.WSWriteTimeout <= 0 {
		args.WSWriteTimeout = 10 * time.Second
	}

	a := &API{
		r:              chi.NewRouter(),
		posts:          args.Posts,
		replies:        args.Replies,
		users:          args.Users,
		categories:     args.Categories,
		subs:           args.Subs,
		logger:         args.Logger,
		metrics:        args.Metrics,
		jwtSecret:      args.JWTSecret,
		wsWriteTimeout: args.WSWriteTimeout,
	}
	a.endpoints(args.MetricsHandler)
	return a
}

// Router возвращает маршрутизатор для http.Server
func (a *API) Router() http.Handler {
	return a.r
}

func (a *API) endpoints(metricsHandler http.Handler) {
	a.r.Use(requestID)
	a.r.Use(a.instrument)
	a.r.Use(middleware.Recoverer)
	a.r.Use(auth.AuthMiddleware(a.jwtSecret))

	if metricsHandler != nil {
		a.r.Handle("/metrics", metricsHandler)
	}

	a.r.Post("/api/auth/register", a.register)
	a.r.Post("/api/auth/login", a.login)

	a.r.Route("/api/forums", func(r chi.Router) {
		r.Get("/categories", a.listCategories)
		r.With(auth.RequireUser).Post("/categories", a.createCategory)

		r.Get("/posts", a.listPosts)
		r.With(auth.RequireUser).Post("/posts", a.createPost)

		r.Route("/posts/{id}", func(r chi.Router) {
			r.Get("/", a.getPost)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Put("/", a.updatePost)
				r.Delete("/", a.deletePost)
				r.Post("/like", a.likePost(a.posts.LikePost, "Post liked"))
				r.Delete("/unlike", a.likePost(a.posts.UnlikePost, "Post unliked"))
				r.Post("/lock", a.moderate(a.posts.LockPost, "Post locked"))
				r.Post("/unlock", a.moderate(a.posts.UnlockPost, "Post unlocked"))
				r.Post("/pin", a.moderate(a.posts.PinPost, "Post pinned"))
				r.Post("/unpin", a.moderate(a.posts.UnpinPost, "Post unpinned"))
			})

			r.Get("/replies", a.listReplies)
			r.Get("/replies/tree", a.replyTree)
			r.Get("/replies/stream", a.streamReplies)
			r.With(auth.RequireUser).Post("/replies", a.createReply)

			r.Route("/replies/{replyID}", func(r chi.Router) {
				r.Get("/nested", a.nestedReplies)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireUser)
					r.Put("/", a.updateReply)
					r.Delete("/", a.deleteReply)
					r.Post("/reply", a.createNestedReply)
					r.Post("/like", a.likeReply)
					r.Delete("/unlike", a.unlikeReply)
					r.Post("/solution", a.markSolution)
				})
			})
		})
	})
}

func urlID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, errorf("invalid %s", name)
	}
	return uint(id), nil
}

// queryInt читает необязательный числовой параметр запроса
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errorf("invalid %s", name)
	}
	return v, nil
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
