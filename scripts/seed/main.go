package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clubhouse/clubhouse/internal/app"
	"github.com/clubhouse/clubhouse/internal/auth"
	"github.com/clubhouse/clubhouse/internal/messages"
	"github.com/clubhouse/clubhouse/internal/platform/db"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
)

type seedUser struct {
	reg    auth.Registration
	member bool
	posts  []messages.Draft
}

var demo = []seedUser{
	{
		reg:    auth.Registration{FirstName: "Ada", LastName: "Byron", Username: "ada", Password: "password1"},
		member: true,
		posts: []messages.Draft{
			{Title: "Welcome", Text: "Members can see who wrote what. Everyone else sees Anonymous."},
		},
	},
	{
		reg: auth.Registration{FirstName: "Grace", LastName: "Hopper", Username: "grace", Password: "password1"},
		posts: []messages.Draft{
			{Title: "Hello", Text: "Still waiting for the passcode."},
		},
	},
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := seed(ctx, cfg, logger); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func seed(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	userRepo := users.NewRepository(pool)
	authService := auth.NewService(userRepo, auth.NewRepository(pool), auth.NewBcryptHasher(0))
	userService := users.NewService(userRepo, cfg.MembershipSecret)
	messageService := messages.NewService(messages.NewRepository(pool))

	for _, entry := range demo {
		user, err := authService.Register(ctx, entry.reg)
		if errors.Is(err, shared.ErrDuplicate) {
			logger.Info("user exists, skipping", slog.String("username", entry.reg.Username))
			continue
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", entry.reg.Username, err)
		}
		if entry.member {
			if _, err := userService.UnlockMembership(ctx, user.ID, cfg.MembershipSecret); err != nil {
				return fmt.Errorf("unlock %s: %w", entry.reg.Username, err)
			}
		}
		for _, post := range entry.posts {
			if _, err := messageService.Create(ctx, user.ID, post); err != nil {
				return fmt.Errorf("post as %s: %w", entry.reg.Username, err)
			}
		}
		logger.Info("seeded user", slog.String("username", user.Username), slog.Bool("member", entry.member))
	}
	return nil
}
