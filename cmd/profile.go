package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waselni/waselni-cli/internal/domain"
)

type profileOutput struct {
	ID          domain.ProfileID `json:"id"`
	Active      bool             `json:"active"`
	BaseURL     string           `json:"base_url,omitempty"`
	Email       string           `json:"email,omitempty"`
	Role        domain.Role      `json:"role,omitempty"`
	LastLoginAt string           `json:"last_login_at,omitempty"`
}

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage named sessions",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, active, err := app.profiles.List(cmd.Context())
			if err != nil {
				return err
			}

			outputs := make([]profileOutput, 0, len(profiles))
			for _, profile := range profiles {
				out := profileOutput{
					ID:      profile.ID,
					Active:  profile.ID == active,
					BaseURL: profile.BaseURL,
					Email:   profile.Email,
					Role:    profile.Role,
				}
				if !profile.LastLoginAt.IsZero() {
					out.LastLoginAt = profile.LastLoginAt.Format("2006-01-02 15:04")
				}
				outputs = append(outputs, out)
			}

			if asJSON {
				return writeJSON(cmd, outputs)
			}

			if len(outputs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No profiles. Run `waselni login` to create one.")
				return err
			}

			rows := make([][]string, 0, len(outputs))
			for _, out := range outputs {
				marker := ""
				if out.Active {
					marker = "*"
				}
				rows = append(rows, []string{marker, string(out.ID), out.Email, out.Role.Label(), out.BaseURL, out.LastLoginAt})
			}
			return writeTable(cmd, []string{"", "PROFILE", "EMAIL", "ROLE", "BACKEND", "LAST LOGIN"}, rows, fmt.Sprintf("%d profile(s)", len(rows)))
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	use := &cobra.Command{
		Use:   "use PROFILE",
		Short: "Make a profile the default for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ProfileID(strings.TrimSpace(args[0]))
			if err := app.profiles.Use(cmd.Context(), id); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Using profile %s\n", id)
			return err
		},
	}

	remove := &cobra.Command{
		Use:     "remove PROFILE",
		Aliases: []string{"rm"},
		Short:   "Delete a profile and its stored tokens",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ProfileID(strings.TrimSpace(args[0]))
			if err := app.profiles.Remove(cmd.Context(), id); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", id)
			return err
		},
	}

	cmd.AddCommand(list, use, remove)

	return cmd
}
