// Command admin runs database migrations and manages local accounts.
package main

import (
	"context"
	"fmt"
	"os"

	"paperarchive/internal/app/service"
	"paperarchive/internal/common"
	"paperarchive/internal/domain/repository"
	"paperarchive/internal/platform/config"
	"paperarchive/internal/platform/database"
	"paperarchive/internal/platform/logger"

	"golang.org/x/term"
)

func main() {
	config.Load()
	cfg := config.AppConfig

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := database.Connect(cfg.DBConnStr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer database.Close()

	users := repository.NewPgUserRepository(database.DB)
	auth := service.NewAuthService(
		service.NewLocalIdentityProvider(users),
		users,
		repository.NewPgRoleRepository(database.DB),
		common.NewValidator(),
		zlog,
	)

	cli := &commandLine{
		migrate: func(ctx context.Context, command string, args ...string) error {
			return database.Migrate(ctx, database.DB, command, args...)
		},
		users:        auth,
		readPassword: term.ReadPassword,
		out:          os.Stdout,
	}
	if err := newRootCmd(cli).ExecuteContext(context.Background()); err != nil {
		database.Close()
		os.Exit(1)
	}
}
