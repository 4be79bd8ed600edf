package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "waselni",
		Short:         "Waselni CLI: sign in and browse the shipping marketplace",
		Long:          "waselni keeps an authenticated session with the Waselni marketplace API, refreshing the access token when it expires, and lists shipment requests, offers, contracts and conversations from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().StringVar(&app.flags.profile, "profile", "", "Profile to use (defaults to the active profile)")
	rootCmd.PersistentFlags().StringVar(&app.flags.baseURL, "base-url", "", "Backend API base URL, e.g. http://localhost:8001/api")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newStatusCmd(app),
		newRefreshCmd(app),
		newAPICmd(app),
		newRequestsCmd(app),
		newOffersCmd(app),
		newContractsCmd(app),
		newConversationsCmd(app),
		newProfileCmd(app),
	)

	return rootCmd
}
