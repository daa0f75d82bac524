package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Allow grants or revokes a Spotify account's access to playlist generation.
func (r *Runner) Allow(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.StringArg("email"))
	name := cmd.String("name")
	note := cmd.String("note")
	revoke := cmd.Bool("revoke")

	if email == "" {
		return fmt.Errorf("%w: an account email is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	grants := repositories.NewAccessGrantRepository(db)

	user, err := users.GetByEmail(email)
	if err != nil {
		if revoke {
			return fmt.Errorf("%w: no account found for %s", shared.ErrInvalidArgument, email)
		}
		if name == "" {
			name = email
		}
		user = models.NewUser(0, email, name)
		if err := users.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		r.logger.Info("created user", "email", email)
	}

	grant, err := grants.GetByUserID(user.ID())
	if err != nil {
		if revoke {
			r.writePlain("✓ %s has no access grant, nothing to revoke\n", email)
			return nil
		}
		grant = models.NewAccessGrant(0, user.ID(), true, note)
		if err := grants.Create(grant); err != nil {
			return fmt.Errorf("failed to create access grant: %w", err)
		}
		r.writePlain("✓ %s can now generate playlists\n", email)
		return nil
	}

	grant.SetAllowlisted(!revoke)
	if note != "" {
		grant.SetNote(note)
	}
	if err := grants.Update(grant); err != nil {
		return fmt.Errorf("failed to update access grant: %w", err)
	}

	if revoke {
		r.writePlain("✓ Access revoked for %s\n", email)
	} else {
		r.writePlain("✓ %s can now generate playlists\n", email)
	}
	return nil
}
