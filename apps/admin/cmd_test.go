package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/colegia/backend/core/person"
	testutil "github.com/colegia/backend/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture()
	return &commandLine{repo: f.PersonRepo}, f
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
	wantStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "grade", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				switch {
				case tt.wantErr != nil:
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				case tt.wantStr != "":
					if err.Error() != tt.wantStr {
						t.Errorf("cli.run() error = %s, want %s", err.Error(), tt.wantStr)
					}
				default:
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli, f := setup(t)
	ctx := context.Background()

	s := f.CreateSchool(t, "Admin High", "mc-adm")
	_, existing := f.CreatePersonWithAccount(t, "promoteme", person.RoleStudent, s.ID)

	addArgs := func(uname string) []string {
		return []string{"addadmin", "-username", uname, "-firstname", "Ad", "-lastname", "Min", "-nationalid", "nid-" + uname}
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"addadmin", "-username", "boss"}, wantErr: errHelp},
		{name: "username but no password", args: addArgs("boss"), wantErr: errHelp},
		{name: "create new admin", args: addArgs("boss"), pwd: "Sup3rSecret!"},
		{name: "promote existing account", args: addArgs("promoteme"), pwd: "N3wSecret!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	boss, err := f.PersonRepo.GetAccountByUsername(ctx, "boss")
	if err != nil {
		t.Fatalf("GetAccountByUsername(boss): %v", err)
	}
	if !boss.IsGlobalAdmin() || !boss.IsActive {
		t.Errorf("boss = %+v; want an active global admin", boss)
	}
	if err := boss.CheckPassword("Sup3rSecret!"); err != nil {
		t.Error("boss password was not set")
	}

	promoted, err := f.PersonRepo.GetAccountByUsername(ctx, "promoteme")
	if err != nil {
		t.Fatalf("GetAccountByUsername(promoteme): %v", err)
	}
	if !promoted.IsGlobalAdmin() || promoted.HomeSchoolID != "" {
		t.Errorf("promoted = %+v; want a global admin with no home school", promoted)
	}
	if bytes.Equal(promoted.PasswordHash, existing.PasswordHash) {
		t.Error("failed to update promoted account's password")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, f := setup(t)
	ctx := context.Background()

	s := f.CreateSchool(t, "Reset High", "mc-rst")
	_, acct := f.CreatePersonWithAccount(t, "forgetful", person.RoleTeacher, s.ID)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: person.ErrAccountNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", "forgetful"}, pwd: "N3wSecret!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := f.PersonRepo.GetAccountByUsername(ctx, acct.Username)
				if err != nil {
					t.Fatalf("GetAccountByUsername(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, acct.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
