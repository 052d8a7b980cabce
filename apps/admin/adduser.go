package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
)

type addUserArgs struct {
	email     string
	firstName string
	lastName  string
	chapter   string
	isAdmin   bool
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var args addUserArgs
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the one with the same email. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usr, err := cli.addUser(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %s (%s) saved with role %s\n", usr.Email, usr.ID, usr.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&args.email, "email", "", "the user's email")
	cmd.Flags().StringVar(&args.firstName, "first-name", "", "the user's first name")
	cmd.Flags().StringVar(&args.lastName, "last-name", "", "the user's last name")
	cmd.Flags().StringVar(&args.chapter, "chapter", "", "the chapter name, created when missing")
	cmd.Flags().BoolVar(&args.isAdmin, "admin", false, "give the user the Administrador role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("chapter")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, args addUserArgs) (user.User, error) {
	email := core.CleanString(args.email, true /* lower */)
	if err := cli.validate.Var(email, "required,email"); err != nil {
		return user.User{}, errors.Errorf("invalid email %q", args.email)
	}

	ch, err := cli.getOrCreateChapter(ctx, args.chapter)
	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	isNew := false
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		isNew = true
		usr = user.User{
			ID:        core.NewID(),
			Email:     email,
			Role:      user.RoleTutee,
			CreatedAt: now,
		}
	}
	if name := core.CleanString(args.firstName); name != "" {
		usr.FirstName = name
	}
	if name := core.CleanString(args.lastName); name != "" {
		usr.LastName = name
	}
	if usr.FirstName == "" || usr.LastName == "" {
		return user.User{}, errors.New("first and last names are required for new users")
	}
	if args.isAdmin {
		usr.Role = user.RoleAdmin
	}
	usr.Chapter = ch
	usr.IsActive = true
	usr.UpdatedAt = now

	pwd, err := cli.readNewPassword(usr)
	if err != nil {
		return user.User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}

	if isNew {
		return cli.usrRepo.CreateUser(ctx, usr)
	}
	return cli.usrRepo.UpdateUser(ctx, usr)
}

func (cli *commandLine) getOrCreateChapter(ctx context.Context, name string) (chapter.Chapter, error) {
	name = core.CleanString(name)
	ch, err := cli.chapterRepo.GetChapterByName(ctx, name)
	if err == nil {
		return ch, nil
	}
	if errors.Cause(err) != chapter.ErrNotFound {
		return chapter.Chapter{}, err
	}
	ch, err = cli.chapterSvc.Create(ctx, chapter.NewChapter{Name: name})
	if err != nil {
		return chapter.Chapter{}, cli.translateErr(err)
	}
	fmt.Fprintf(cli.out, "chapter %q created\n", ch.Name)
	return ch, nil
}
