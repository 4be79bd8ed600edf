package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waselni/waselni-cli/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens for a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd.InOrStdin(), password, passwordStdin)
			if err != nil {
				return err
			}

			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			user, err := withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Signing in...", func(ctx context.Context) (domain.User, error) {
				return handle.session.Login(ctx, email, secret)
			})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			return finishSignIn(cmd, app, handle, user, "Logged in")
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newRegisterCmd(app *app) *cobra.Command {
	var (
		registration  domain.Registration
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd.InOrStdin(), registration.Password, passwordStdin)
			if err != nil {
				return err
			}
			registration.Password = secret
			registration.Role = domain.Role(strings.ToUpper(strings.TrimSpace(role)))

			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			user, err := withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Creating account...", func(ctx context.Context) (domain.User, error) {
				return handle.session.Register(ctx, registration)
			})
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			return finishSignIn(cmd, app, handle, user, "Registered")
		},
	}

	cmd.Flags().StringVar(&registration.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&registration.Password, "password", "", "Password, at least 6 characters")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleShipper), "SHIPPER, CARRIER_INDIVIDUAL, CARRIER_PRO or SHIPPER_CARRIER")
	cmd.Flags().StringVar(&registration.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&registration.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&registration.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&registration.Country, "country", "", "Country code")
	cmd.Flags().StringVar(&registration.City, "city", "", "City")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func finishSignIn(cmd *cobra.Command, app *app, handle *sessionHandle, user domain.User, verb string) error {
	profile, err := app.profiles.RecordLogin(cmd.Context(), handle.profile, handle.session.BaseURL(), user)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s as %s <%s> (%s) on profile %s\n", verb, user.DisplayName(), user.Email, user.Role.Label(), profile.ID)
	return err
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session tokens of a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			if err := handle.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged out of profile %s\n", handle.profile.ID)
			return err
		},
	}
}

func newRefreshCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			_, err = withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Refreshing access token...", func(ctx context.Context) (struct{}, error) {
				return struct{}{}, handle.session.Renew(ctx)
			})
			if err != nil {
				return withLoginHint(fmt.Errorf("refresh: %w", err), handle.profile)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Access token refreshed")
			return err
		},
	}
}

func resolvePassword(stdin io.Reader, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return "", errors.New("password is required: pass --password or --password-stdin")
		}
		return flagValue, nil
	}
	if flagValue != "" {
		return "", errors.New("--password and --password-stdin are mutually exclusive")
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}

	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("password read from stdin is empty")
	}
	return secret, nil
}

