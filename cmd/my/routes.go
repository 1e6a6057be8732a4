package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dstark/my/internal/api"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List every registered API endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Endpoint registration never touches the database, so no
			// connection is needed to list routes.
			service := api.New(nil, nil)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHODS\tURL\tNAME\tSCOPES")
			for _, e := range service.Endpoints() {
				scopes := []string{}
				for _, names := range e.Endpoint.AuthScopes {
					scopes = append(scopes, names...)
				}
				fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\n",
					strings.Join(e.Endpoint.HTTPMethods, ","),
					api.BasePath, e.URL,
					e.Endpoint.Name,
					strings.Join(scopes, ","),
				)
			}
			return w.Flush()
		},
	}
}
