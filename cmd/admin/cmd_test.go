package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"paperarchive/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type migrateCall struct {
	command string
	args    []string
}

type fakeUsers struct {
	email    string
	password string
	admin    bool
	err      error
}

func (f *fakeUsers) AddUser(_ context.Context, email, password string, admin bool) (*model.User, error) {
	f.email, f.password, f.admin = email, password, admin
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{ID: "u-1", Email: email}, nil
}

func setup(password string) (*commandLine, *[]migrateCall, *fakeUsers, *bytes.Buffer) {
	calls := &[]migrateCall{}
	users := &fakeUsers{}
	out := &bytes.Buffer{}
	cli := &commandLine{
		migrate: func(_ context.Context, command string, args ...string) error {
			*calls = append(*calls, migrateCall{command: command, args: args})
			return nil
		},
		users:        users,
		readPassword: func(int) ([]byte, error) { return []byte(password), nil },
		out:          out,
	}
	return cli, calls, users, out
}

func run(cli *commandLine, args ...string) error {
	root := newRootCmd(cli)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []migrateCall
		wantErr bool
	}{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: true},
		{name: "up", args: []string{"migrate", "up"}, want: []migrateCall{{command: "up", args: []string{}}}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, want: []migrateCall{{command: "up-to", args: []string{"2"}}}},
		{name: "status", args: []string{"migrate", "status"}, want: []migrateCall{{command: "status", args: []string{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, calls, _, _ := setup("")
			err := run(cli, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, *calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *calls)
		})
	}
}

func TestAddUser(t *testing.T) {
	cli, _, users, out := setup("s3cret")

	require.NoError(t, run(cli, "adduser", "--email", "admin@example.com", "--admin"))
	assert.Equal(t, "admin@example.com", users.email)
	assert.Equal(t, "s3cret", users.password)
	assert.True(t, users.admin)
	assert.Contains(t, out.String(), "saved admin@example.com (admin, id u-1)")
}

func TestAddUserRequiresEmail(t *testing.T) {
	cli, _, users, _ := setup("s3cret")

	assert.Error(t, run(cli, "adduser"))
	assert.Empty(t, users.email)
}

func TestAddUserRejectsEmptyPassword(t *testing.T) {
	cli, _, users, _ := setup("")

	err := run(cli, "adduser", "--email", "a@example.com")
	assert.ErrorIs(t, err, errEmptyPassword)
	assert.Empty(t, users.email)
}

func TestAddUserPropagatesServiceError(t *testing.T) {
	cli, _, users, _ := setup("pw")
	users.err = errors.New("boom")

	assert.EqualError(t, run(cli, "adduser", "--email", "a@example.com"), "boom")
}
