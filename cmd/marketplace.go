package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/domain"
)

type listFlags struct {
	mine        bool
	origin      string
	destination string
	mode        string
	status      string
	page        int
	limit       int
	asJSON      bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.mine, "mine", false, "Only list your own entries")
	cmd.Flags().StringVar(&f.origin, "origin", "", "Origin country filter")
	cmd.Flags().StringVar(&f.destination, "destination", "", "Destination country filter")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Shipping mode filter (TERRESTRIAL or AIR)")
	cmd.Flags().StringVar(&f.status, "status", "", "Status filter")
	cmd.Flags().IntVar(&f.page, "page", 0, "Page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Page size, at most 100")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Output JSON")
}

func (f listFlags) pageOptions() application.PageOptions {
	return application.PageOptions{Page: f.page, Limit: f.limit}
}

func newRequestsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Browse shipment requests",
	}

	var flags listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List shipment requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			var page domain.Page[domain.ShipmentRequest]
			if flags.mine {
				page, err = handle.marketplace.ListMyRequests(cmd.Context(), flags.pageOptions())
			} else {
				page, err = handle.marketplace.ListRequests(cmd.Context(), application.RequestFilter{
					OriginCountry:      strings.ToUpper(flags.origin),
					DestinationCountry: strings.ToUpper(flags.destination),
					Mode:               domain.ShippingMode(strings.ToUpper(flags.mode)),
					Status:             domain.RequestStatus(strings.ToUpper(flags.status)),
					PageOptions:        flags.pageOptions(),
				})
			}
			if err != nil {
				return withLoginHint(err, handle.profile)
			}

			if flags.asJSON {
				return writeJSON(cmd, page)
			}

			rows := make([][]string, 0, len(page.Items))
			for _, item := range page.Items {
				rows = append(rows, []string{
					item.ID,
					route(item.OriginCity, item.OriginCountry, item.DestinationCity, item.DestinationCountry),
					string(item.Mode),
					formatWeight(item.Weight),
					item.Deadline,
					string(item.Status),
				})
			}
			return writeTable(cmd, []string{"ID", "ROUTE", "MODE", "WEIGHT", "DEADLINE", "STATUS"}, rows, pageFooter(page.Page, page.Pages, page.Total))
		},
	}
	flags.register(list)
	cmd.AddCommand(list)

	return cmd
}

func newOffersCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Browse carrier offers",
	}

	var flags listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List carrier offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			var page domain.Page[domain.Offer]
			if flags.mine {
				page, err = handle.marketplace.ListMyOffers(cmd.Context(), flags.pageOptions())
			} else {
				page, err = handle.marketplace.ListOffers(cmd.Context(), application.OfferFilter{
					OriginCountry:      strings.ToUpper(flags.origin),
					DestinationCountry: strings.ToUpper(flags.destination),
					Mode:               domain.ShippingMode(strings.ToUpper(flags.mode)),
					Status:             domain.OfferStatus(strings.ToUpper(flags.status)),
					PageOptions:        flags.pageOptions(),
				})
			}
			if err != nil {
				return withLoginHint(err, handle.profile)
			}

			if flags.asJSON {
				return writeJSON(cmd, page)
			}

			rows := make([][]string, 0, len(page.Items))
			for _, item := range page.Items {
				rows = append(rows, []string{
					item.ID,
					route(item.OriginCity, item.OriginCountry, item.DestinationCity, item.DestinationCountry),
					string(item.Mode),
					item.DepartureDate,
					formatWeight(item.CapacityKg),
					strconv.FormatFloat(item.PricePerKg, 'f', 2, 64) + "/kg",
					string(item.Status),
				})
			}
			return writeTable(cmd, []string{"ID", "ROUTE", "MODE", "DEPARTS", "CAPACITY", "PRICE", "STATUS"}, rows, pageFooter(page.Page, page.Pages, page.Total))
		},
	}
	flags.register(list)
	cmd.AddCommand(list)

	return cmd
}

func newContractsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Inspect your contracts",
	}

	var (
		status string
		asJSON bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List your contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			contracts, err := handle.marketplace.ListContracts(cmd.Context(), domain.ContractStatus(strings.ToUpper(status)))
			if err != nil {
				return withLoginHint(err, handle.profile)
			}

			if asJSON {
				return writeJSON(cmd, contracts)
			}

			rows := make([][]string, 0, len(contracts))
			for _, contract := range contracts {
				rows = append(rows, []string{
					contract.ID,
					contract.RequestID,
					strconv.FormatFloat(contract.ProposedPrice, 'f', 2, 64),
					string(contract.Status),
					contract.CreatedAt,
				})
			}
			return writeTable(cmd, []string{"ID", "REQUEST", "PRICE", "STATUS", "CREATED"}, rows, fmt.Sprintf("%d contract(s)", len(contracts)))
		},
	}
	list.Flags().StringVar(&status, "status", "", "Status filter")
	list.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one contract with its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			contract, err := handle.marketplace.GetContract(cmd.Context(), args[0])
			if err != nil {
				return withLoginHint(err, handle.profile)
			}
			return writeJSON(cmd, contract)
		},
	}

	cmd.AddCommand(list, show)

	return cmd
}

func newConversationsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Inspect your conversations",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			conversations, err := handle.marketplace.ListConversations(cmd.Context())
			if err != nil {
				return withLoginHint(err, handle.profile)
			}

			if asJSON {
				return writeJSON(cmd, conversations)
			}

			rows := make([][]string, 0, len(conversations))
			for _, conversation := range conversations {
				with := ""
				if conversation.OtherUser != nil {
					with = strings.TrimSpace(conversation.OtherUser.FirstName + " " + conversation.OtherUser.LastName)
				}
				rows = append(rows, []string{conversation.ID, with, conversation.LastMessage, conversation.LastMessageAt})
			}
			return writeTable(cmd, []string{"ID", "WITH", "LAST MESSAGE", "AT"}, rows, fmt.Sprintf("%d conversation(s)", len(conversations)))
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.AddCommand(list)

	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeTable(cmd *cobra.Command, headers []string, rows [][]string, footer string) error {
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No results.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(out, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, footer)
	return err
}

func route(originCity, originCountry, destinationCity, destinationCountry string) string {
	return place(originCity, originCountry) + " -> " + place(destinationCity, destinationCountry)
}

func place(city, country string) string {
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + " (" + country + ")"
	}
}

func formatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}

func pageFooter(page, pages, total int) string {
	if pages <= 0 {
		pages = 1
	}
	if page <= 0 {
		page = 1
	}
	return fmt.Sprintf("page %d of %d, %d total", page, pages, total)
}
