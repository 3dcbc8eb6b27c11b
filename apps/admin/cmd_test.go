package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
	inmemdb "github.com/darasahq/darasa/storage/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	logger = log.New(os.Stdout, "ADMIN TEST : ", log.LstdFlags)

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	ensureIndexesFunc = func(ctx context.Context, db *mongo.Database) error { return nil }

	return &commandLine{usrRepo: usrRepo}
}

func seedUser(t *testing.T, usr user.User) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr.CreatedAt = now
	usr.UpdatedAt = now
	if err := usr.SetPassword("LePassword7"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	existing := seedUser(t, user.User{
		Name: "Mentor", Email: "mentor@test.cd", Role: user.RoleMentor, IsActive: true,
	})

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "no password", args: []string{"addadmin", "-name", "Boss", "-email", "boss@test.cd"}, wantErr: errHelp},
		{name: "create", args: []string{"addadmin", "-name", "Boss", "-email", "boss@test.cd"}, pwd: "LePassword7"},
		{name: "promote existing", args: []string{"addadmin", "-name", "Mentor", "-email", "MENTOR@test.cd"}, pwd: "NewPassword7"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	ctx := context.Background()
	created, err := usrRepo.GetUserByEmail(ctx, "boss@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if created.Role != user.RoleAdmin || !created.IsActive {
		t.Errorf("created = %+v; want an active admin", created)
	}

	promoted, err := usrRepo.GetUserByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if promoted.Role != user.RoleAdmin {
		t.Errorf("promoted.Role = %q; want %q", promoted.Role, user.RoleAdmin)
	}
	if bytes.Equal(promoted.PasswordHash, existing.PasswordHash) {
		t.Error("failed to update the promoted admin's password")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := seedUser(t, user.User{
		Name: "Jane Doe", Email: "jane@test.cd", Role: user.RoleStudent, IsActive: true,
	})

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "jane@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "ghost@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "jane@test.cd"}, pwd: "NewPassword7"},
		{name: "email is case-insensitive", args: []string{"resetpassword", "-email", "JANE@test.cd"}, pwd: "YetAnother7"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_migrateTracks(t *testing.T) {
	cli := setup(t)

	legacy := seedUser(t, user.User{
		Name: "Old Mentor", Email: "old@test.cd", Role: user.RoleMentor, IsActive: true,
		AssignedTracks: []string{track.BackendDevelopment, track.DataScience},
	})
	modern := seedUser(t, user.User{
		Name: "New Mentor", Email: "new@test.cd", Role: user.RoleMentor, IsActive: true,
		TrackAssignments: []user.TrackAssignment{{TrackID: track.BackendDevelopment, IsActive: true}},
	})

	if err := cli.run([]string{"admin", "migratetracks"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	ctx := context.Background()
	migrated, err := usrRepo.GetUserByID(ctx, legacy.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if len(migrated.TrackAssignments) != 2 {
		t.Fatalf("len(TrackAssignments) = %d; want 2", len(migrated.TrackAssignments))
	}
	for _, ta := range migrated.TrackAssignments {
		if !ta.IsActive {
			t.Errorf("assignment %q inactive; want active", ta.TrackID)
		}
	}
	if len(migrated.AssignedTracks) != 0 {
		t.Errorf("AssignedTracks = %v; want cleared", migrated.AssignedTracks)
	}

	untouched, err := usrRepo.GetUserByID(ctx, modern.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if len(untouched.TrackAssignments) != 1 {
		t.Errorf("TrackAssignments = %v; want left as-is", untouched.TrackAssignments)
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli := setup(t)

	var called bool
	ensureIndexesFunc = func(ctx context.Context, db *mongo.Database) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "ensureindexes"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if !called {
		t.Error("expected EnsureIndexes to be invoked")
	}
}
