package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"paperarchive/internal/domain/model"

	"github.com/spf13/cobra"
)

var errEmptyPassword = errors.New("password must not be empty")

type userAdder interface {
	AddUser(ctx context.Context, email, password string, admin bool) (*model.User, error)
}

type commandLine struct {
	migrate      func(ctx context.Context, command string, args ...string) error
	users        userAdder
	readPassword func(fd int) ([]byte, error)
	out          io.Writer
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "Paper archive administration",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(cli), newAddUserCmd(cli))
	return root
}

func newMigrateCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command",
		Long: `Run a goose migration command against the embedded SQL migrations.

Common commands:
  up        - apply all pending migrations
  down      - roll back the latest migration
  status    - list applied and pending migrations
  version   - print the current schema version
  up-to N   - migrate up to version N
  down-to N - roll back to version N`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func newAddUserCmd(cli *commandLine) *cobra.Command {
	var (
		email string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a local account or reset its password",
		Long: `Create a local account, or reset the password of an existing one.
The password is prompted for on the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cli.out, "Enter password: ")
			pwd, err := cli.readPassword(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}

			user, err := cli.users.AddUser(cmd.Context(), email, string(pwd), admin)
			if err != nil {
				return err
			}
			role := model.RoleUser
			if admin {
				role = model.RoleAdmin
			}
			fmt.Fprintf(cli.out, "saved %s (%s, id %s)\n", user.Email, role, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
