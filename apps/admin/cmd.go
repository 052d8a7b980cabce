package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
	"github.com/sistematutorias/tutorias/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNoDatabase  = errors.New("migrations need the postgres storage")
	errNoPassword  = errors.New("password cannot be empty")
	errPwdMismatch = errors.New("passwords do not match")
	errUnknownRole = errors.Errorf("role must be one of %q, %q or %q", user.RoleAdmin, user.RoleTutor, user.RoleTutee)
)

type commandLine struct {
	db          *database.DB // nil with the inmem storage
	chapterSvc  chapter.Service
	chapterRepo chapter.Repository
	usrRepo     user.Repository
	usrSvc      user.Service
	validate    *validator.Validate
	trans       ut.Translator
	out         io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administration tasks for the tutoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.promoteCmd(),
	)
	return root
}

// run executes the command line args, without the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// readNewPassword prompts for a password and its confirmation, then applies the password policy.
func (cli *commandLine) readNewPassword(usr user.User) (string, error) {
	pwd, err := cli.promptPassword("Enter password: ")
	if err != nil {
		return "", err
	}
	if pwd == "" {
		return "", errNoPassword
	}
	confirm, err := cli.promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pwd != confirm {
		return "", errPwdMismatch
	}
	if err := user.NewPasswordChange(usr, pwd, confirm).Validate(cli.validate); err != nil {
		return "", cli.translateErr(err)
	}
	return pwd, nil
}

// translateErr renders validation and domain errors in the configured locale.
func (cli *commandLine) translateErr(err error) error {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(origErr))
		for _, vErr := range origErr {
			msgs = append(msgs, vErr.Translate(cli.trans))
		}
		return errors.New(strings.Join(msgs, "; "))
	case *core.ValidationError:
		msgs := make([]string, 0, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			msgs = append(msgs, fErr.Field+": "+core.Translate(cli.trans, fErr.Error))
		}
		return errors.New(strings.Join(msgs, "; "))
	case *core.Error:
		return errors.New(core.TranslateError(cli.trans, origErr))
	}
	return err
}
