package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/domain"
)

func newAPICmd(app *app) *cobra.Command {
	var (
		data   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "api METHOD PATH",
		Short: "Send an authenticated request to the backend and print the response",
		Example: `  waselni api GET /users/me
  waselni api PATCH /users/me --data '{"city":"Tunis"}'
  waselni api GET /requests --query mode=AIR --query limit=5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildAPIRequest(args[0], args[1], data, params)
			if err != nil {
				return err
			}

			handle, err := app.openSession(cmd)
			if err != nil {
				return err
			}

			resp, err := handle.session.IssueRequest(cmd.Context(), req)
			if len(resp.Body) > 0 {
				if writeErr := writeBody(cmd, resp.Body); writeErr != nil {
					return writeErr
				}
			}
			return withLoginHint(err, handle.profile)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON request body")
	cmd.Flags().StringArrayVar(&params, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

func buildAPIRequest(method, path, data string, params []string) (application.Request, error) {
	req := application.Request{
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Path:   "/" + strings.TrimLeft(strings.TrimSpace(path), "/"),
	}
	if req.Method == "" {
		return req, errors.New("method is required")
	}

	if len(params) > 0 {
		req.Query = url.Values{}
		for _, param := range params {
			key, value, ok := strings.Cut(param, "=")
			if !ok || key == "" {
				return req, fmt.Errorf("invalid query parameter %q: want key=value", param)
			}
			req.Query.Add(key, value)
		}
	}

	if data != "" {
		if !json.Valid([]byte(data)) {
			return req, fmt.Errorf("%w: --data is not valid JSON", domain.ErrValidationFailed)
		}
		req.Body = json.RawMessage(data)
	}

	return req, nil
}

func writeBody(cmd *cobra.Command, body []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return err
}
