package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/waselni/waselni-cli/internal/adapters/api"
	statusadapter "github.com/waselni/waselni-cli/internal/adapters/render/status"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/metrics"
)

type statusOutput struct {
	Profile         domain.ProfileID `json:"profile"`
	BaseURL         string           `json:"base_url"`
	Authenticated   bool             `json:"authenticated"`
	IsAdmin         bool             `json:"is_admin"`
	IsShipper       bool             `json:"is_shipper"`
	IsCarrier       bool             `json:"is_carrier"`
	IsCarrierPro    bool             `json:"is_carrier_pro"`
	User            *domain.User     `json:"user,omitempty"`
	TokenExpiresAt  *time.Time       `json:"token_expires_at,omitempty"`
	Warning         string           `json:"warning,omitempty"`
	SessionCounters []metrics.Sample `json:"session_counters,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session of a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			state, restoreErr := handle.session.Restore(cmd.Context())
			if restoreErr != nil && !errors.Is(restoreErr, domain.ErrUnreachable) && !errors.Is(restoreErr, domain.ErrAuthorizationInvalid) && !errors.Is(restoreErr, domain.ErrAuthorizationExpired) {
				return restoreErr
			}

			snapshot := statusadapter.Snapshot{
				Profile:        handle.profile,
				BaseURL:        handle.session.BaseURL(),
				State:          state,
				TokenExpiresAt: tokenExpiry(cmd, handle),
			}
			if verbose {
				snapshot.Metrics, err = handle.session.Metrics().Snapshot()
				if err != nil {
					return fmt.Errorf("gather session counters: %w", err)
				}
			}

			if asJSON {
				return writeJSON(cmd, newStatusOutput(snapshot, restoreErr))
			}

			rendered, err := app.statusRenderer(snapshot, statusadapter.RenderOptions{Now: app.now(), Verbose: verbose})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
				return err
			}
			if restoreErr != nil {
				_, err = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", restoreErr)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Include session request and refresh counters")

	return cmd
}

func newStatusOutput(snapshot statusadapter.Snapshot, restoreErr error) statusOutput {
	out := statusOutput{
		Profile:         snapshot.Profile.ID,
		BaseURL:         snapshot.BaseURL,
		Authenticated:   snapshot.State.IsAuthenticated,
		IsAdmin:         snapshot.State.IsAdmin,
		IsShipper:       snapshot.State.IsShipper,
		IsCarrier:       snapshot.State.IsCarrier,
		IsCarrierPro:    snapshot.State.IsCarrierPro,
		User:            snapshot.State.User,
		SessionCounters: snapshot.Metrics,
	}
	if !snapshot.TokenExpiresAt.IsZero() {
		expires := snapshot.TokenExpiresAt
		out.TokenExpiresAt = &expires
	}
	if restoreErr != nil {
		out.Warning = restoreErr.Error()
	}
	return out
}

func tokenExpiry(cmd *cobra.Command, handle *sessionHandle) time.Time {
	token, err := handle.session.CurrentAccessToken(cmd.Context())
	if err != nil || token == "" {
		return time.Time{}
	}

	claims, err := api.ParseClaims(token)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}

func newWhoamiCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			state, err := requireAuthenticated(cmd.Context(), handle)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, state.User)
			}
			return writeUser(cmd, state)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func writeUser(cmd *cobra.Command, state application.State) error {
	user := state.User
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nrole: %s\nrating: %s\n", user.DisplayName(), user.Email, user.Role.Label(), user.RatingLabel())
	return err
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
