package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your journal account",
		Long: `Create an account, sign in and out, and check who is signed in.

The session is stored on disk and shared by every journal command running
on this machine until it expires or you sign out.`,
	}

	cmd.AddCommand(authSignUpCmd())
	cmd.AddCommand(authSignInCmd())
	cmd.AddCommand(authSignOutCmd())
	cmd.AddCommand(authStatusCmd())

	return cmd
}

// credentials reads the email from flags or a prompt and the password from a
// hidden prompt.
func credentials(cmd *cobra.Command) (string, string, error) {
	p := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		var err error
		if email, err = p.Ask("Email:"); err != nil {
			return "", "", err
		}
	}
	password, err := p.AskSecret("Password:")
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func authSignUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			email, password, err := credentials(cmd)
			if err != nil {
				return err
			}
			session, err := a.auth.SignUp(cmd.Context(), email, password)
			if err != nil {
				return authError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Welcome! Signed in as "+session.Email))
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	return cmd
}

func authSignInCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			email, password, err := credentials(cmd)
			if err != nil {
				return err
			}
			session, err := a.auth.SignIn(cmd.Context(), email, password)
			if err != nil {
				return authError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed in as "+session.Email))
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	return cmd
}

func authSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out on this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.SignOut(); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Signed out."))
			return nil
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			session, ok := a.auth.Session()
			if !ok {
				fmt.Fprintln(out, cli.FormatWarning("Not signed in."))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess("Signed in as "+session.Email))
			fmt.Fprintf(out, "  user id:  %s\n", session.UserID)
			fmt.Fprintf(out, "  expires:  %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "  store:    %s\n", a.cfg.Store.Backend)
			return nil
		},
	}
}

// authError maps sign-in failures to messages a person can act on.
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		return common.NewUserError("That doesn't look like an email address.", err)
	case errors.Is(err, auth.ErrWeakPassword):
		return common.NewUserError(fmt.Sprintf("Passwords need at least %d characters.", auth.MinPasswordLength), err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return common.NewUserError("Wrong email or password.", err)
	case errors.Is(err, auth.ErrEmailTaken):
		return common.NewUserError("An account with that email already exists. Try journal auth signin.", err)
	}
	return err
}
