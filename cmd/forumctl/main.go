package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/client"
	"github.com/VitaminP8/alumni-forum/internal/model"
	"github.com/VitaminP8/alumni-forum/internal/thread"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

func postFlag() cli.Flag {
	return &cli.UintFlag{
		Name:     "post",
		Usage:    "post id",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "forumctl",
		Usage: "read forum reply threads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				EnvVars: []string{"FORUM_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "token",
				EnvVars: []string{"FORUM_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"FORUM_LOG_LEVEL"},
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "tree",
				Usage: "print the reply tree of a post",
				Flags: []cli.Flag{
					postFlag(),
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "redraw the tree when replies change",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Value: 10 * time.Second,
					},
				},
				Action: runTree,
			},
			{
				Name:  "replies",
				Usage: "print one page of the flat reply list",
				Flags: []cli.Flag{
					postFlag(),
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: runReplies,
			},
			{
				Name:   "stream",
				Usage:  "print new replies of a post as they arrive",
				Flags:  []cli.Flag{postFlag()},
				Action: runStream,
			},
		},
		ErrWriter: os.Stderr,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(cmd *cli.Context) *client.Client {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return client.New(cmd.String("server"),
		client.WithToken(cmd.String("token")),
		client.WithLogger(logger),
	)
}

// signalContext отменяется по SIGINT/SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runTree(cmd *cli.Context) error {
	c := newClient(cmd)
	postID := cmd.Uint("post")

	if !cmd.Bool("watch") {
		forest, err := c.Thread(cmd.Context, postID)
		if err != nil {
			return err
		}
		printForest(os.Stdout, forest)
		return nil
	}

	ctx, cancel := signalContext(cmd.Context)
	defer cancel()

	return c.WatchThread(ctx, postID, cmd.Duration("interval"), func(forest *thread.Forest) {
		fmt.Fprintf(os.Stdout, "--- %s\n", time.Now().Format(time.TimeOnly))
		printForest(os.Stdout, forest)
	})
}

func runReplies(cmd *cli.Context) error {
	replies, err := newClient(cmd).ListReplies(cmd.Context, cmd.Uint("post"), cmd.Int("page"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range replies {
		fmt.Fprintln(os.Stdout, formatReply(r))
	}
	return nil
}

func runStream(cmd *cli.Context) error {
	ctx, cancel := signalContext(cmd.Context)
	defer cancel()

	return newClient(cmd).StreamReplies(ctx, cmd.Uint("post"), func(r *model.Reply) {
		fmt.Fprintln(os.Stdout, formatReply(r))
	})
}

// printForest печатает дерево с отступом по глубине и сводку исключенных ответов
func printForest(w io.Writer, forest *thread.Forest) {
	thread.Walk(forest.Replies, func(depth int, r *model.Reply) {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), formatReply(r))
	})

	if len(forest.Excluded) == 0 {
		return
	}

	counts := forest.ExcludedByReason()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, counts[thread.Reason(reason)]))
	}
	fmt.Fprintf(w, "excluded %d replies: %s\n", len(forest.Excluded), strings.Join(parts, ", "))
}

func formatReply(r *model.Reply) string {
	author := r.AuthorName
	if author == "" {
		author = fmt.Sprintf("user %d", r.UserID)
	}

	line := fmt.Sprintf("#%d %s: %s", r.ID, author, r.Content)
	if r.LikesCount > 0 {
		line += fmt.Sprintf(" [+%d]", r.LikesCount)
	}
	if r.IsSolution {
		line += " (solution)"
	}
	return line
}
