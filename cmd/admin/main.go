package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/credential"
	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/service"
	"github.com/flicky/storefront-api/internal/storage"
)

// services is the subset of the API wiring the admin commands need.
type services struct {
	auth  *service.AuthService
	admin *service.AdminService
	close func()
}

func connect(ctx context.Context, cfg *config.Config) (*services, error) {
	pool, err := storage.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	activity := service.NewDirectActivityRecorder(activityRepo)

	carts := service.NewCartService(repository.NewCartRepository(pool), repository.NewProductRepository(pool),
		repository.NewTransactor(pool), activity)
	tokens := credential.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)

	return &services{
		auth: service.NewAuthService(userRepo, roleRepo, carts, tokens, activity),
		admin: service.NewAdminService(roleRepo, repository.NewOrderRepository(pool),
			repository.NewReportRepository(pool), activityRepo, userRepo, activity),
		close: pool.Close,
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "storefront-admin",
		Usage: "schema and account maintenance for the storefront API",
		Commands: []*cli.Command{
			migrateCommand(cfg),
			createAdminCommand(cfg),
			grantRoleCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func migrateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(*cli.Context) error {
					if err := storage.MigrateUp(cfg.DB.DSN()); err != nil {
						return err
					}
					slog.Info("schema up to date")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					if err := storage.MigrateDown(cfg.DB.DSN(), c.Int("steps")); err != nil {
						return err
					}
					slog.Info("rolled back", "steps", c.Int("steps"))
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "print the applied schema version",
				Action: func(c *cli.Context) error {
					v, dirty, err := storage.Version(cfg.DB.DSN())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "version=%d dirty=%t\n", v, dirty)
					return nil
				},
			},
		},
	}
}

func createAdminCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "register a user (if missing) and grant it the admin role",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			svc, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			username := c.String("username")
			_, err = svc.auth.Register(c.Context, dto.RegisterRequest{
				Username:     username,
				Password:     c.String("password"),
				AcceptPolicy: true,
			})
			switch {
			case errors.Is(err, service.ErrUserAlreadyExists):
				slog.Info("user exists, granting role only", "username", username)
			case err != nil:
				return err
			}

			if err := svc.admin.GrantRole(c.Context, username, model.RoleAdmin); err != nil {
				return err
			}
			slog.Info("admin ready", "username", username)
			return nil
		},
	}
}

func grantRoleCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "grant-role",
		Usage: "set a user's role",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "role", Value: model.RoleAdmin, Usage: "user or admin"},
		},
		Action: func(c *cli.Context) error {
			svc, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			if err := svc.admin.GrantRole(c.Context, c.String("username"), c.String("role")); err != nil {
				return err
			}
			slog.Info("role granted", "username", c.String("username"), "role", c.String("role"))
			return nil
		},
	}
}
