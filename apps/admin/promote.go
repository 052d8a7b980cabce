package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

func (cli *commandLine) promoteCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Change a user's role (Administrador, Tutor or Tutorado)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usr, err := cli.promote(cmd.Context(), email, user.Role(core.CleanString(role)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %s is now %s\n", usr.Email, usr.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&role, "role", "", "the new role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (cli *commandLine) promote(ctx context.Context, email string, role user.Role) (user.User, error) {
	if !role.IsValid() {
		return user.User{}, errUnknownRole
	}
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return user.User{}, cli.translateErr(err)
	}
	return cli.usrSvc.UpdateRole(ctx, usr.ID, role)
}
