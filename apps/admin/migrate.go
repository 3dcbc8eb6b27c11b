package main

import (
	"context"
	"time"

	"github.com/darasahq/darasa/core/user"
)

// migrateTracks persists the legacy flat assigned-tracks lists as structured
// track assignments. Safe to run repeatedly; users already on the new shape
// are left untouched.
func (cli *commandLine) migrateTracks(ctx context.Context) error {
	users, err := cli.usrRepo.FilterUsers(ctx, user.QueryFilter{})
	if err != nil {
		return err
	}

	var migrated int
	for _, usr := range users {
		if !usr.NormalizeAssignments() {
			continue
		}
		usr.UpdatedAt = time.Now().UTC()
		if _, err = cli.usrRepo.UpdateUser(ctx, usr, nil); err != nil {
			return err
		}
		migrated++
	}
	logger.Printf("migrated %d user(s)", migrated)
	return nil
}
