package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

func runAuthorCreate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	flags := cmd.Flags()
	email, _ := flags.GetString("email")
	firstName, _ := flags.GetString("first-name")
	lastName, _ := flags.GetString("last-name")
	password, _ := flags.GetString("password")
	staff, _ := flags.GetBool("staff")

	if password == "" {
		password = os.Getenv("BLOG_AUTHOR_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required: pass --password or set BLOG_AUTHOR_PASSWORD")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.users.CreateAuthor(ctx, &domain.UserCreateRequest{
		Username:  args[0],
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  password,
		IsStaff:   staff,
	})
	if err != nil {
		if verr, ok := domain.IsValidation(err); ok {
			for field, msg := range verr.Fields {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
			}
		}
		return fmt.Errorf("failed to create author: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created author %s (%s)\n", user.Username, user.ID)
	return nil
}
